// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// wdtctl talks to amdwdtd.
//
//	wdtctl [flags] info|status|bootstatus|keepalive|timeleft|gettimeout
//	wdtctl [flags] settimeout SECONDS
//	wdtctl [flags] enable|disable
//	wdtctl [flags] run
//	wdtctl [flags] describe
//
// One-shot commands open a session, run the command and close the session
// with the magic character so the timer stops again, unless -keep is given.
// enable always leaves the timer running. run keeps the watchdog fed until
// interrupted. describe prints the protocol the daemon serves.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
	"google.golang.org/grpc"

	"github.com/u-root/u-wdt/config"
	"github.com/u-root/u-wdt/pkg/logger"
	"github.com/u-root/u-wdt/pkg/pinger"
	"github.com/u-root/u-wdt/pkg/service/grpc/api"
	"github.com/u-root/u-wdt/pkg/watchdog"
)

var (
	socket   = flag.String("socket", config.DefaultConfig.Socket, "amdwdtd socket")
	keep     = flag.Bool("keep", false, "Leave the timer running after a one-shot command")
	interval = flag.Duration("interval", 10*time.Second, "Keepalive interval of run")
	noMagic  = flag.Bool("no-magic", false, "Make run exit without stopping the timer")

	log = logger.LogContainer.GetSimpleLogger()
)

func dial(ctx context.Context) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, *socket,
		grpc.WithInsecure(),
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", addr)
		}))
}

func printStatus(w io.Writer, v uint32) {
	fmt.Fprintf(w, "%#x %v\n", v, watchdog.StatusFromBits(v))
}

// command runs one command on s and prints its result.
func command(w io.Writer, s *api.Session, args []string) error {
	switch args[0] {
	case "info":
		i, err := s.Support()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "identity: %s\noptions: %#x\nfirmware: %d\n", i.Identity, i.Options, i.FirmwareVersion)
	case "status":
		v, err := s.Status()
		if err != nil {
			return err
		}
		printStatus(w, v)
	case "bootstatus":
		v, err := s.BootStatus()
		if err != nil {
			return err
		}
		reset := v&watchdog.BootCardReset != 0
		fmt.Fprintf(w, "%#x watchdog reset: %v\n", v, reset)
	case "keepalive":
		return s.Keepalive()
	case "timeleft":
		v, err := s.TimeLeft()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\n", v)
	case "gettimeout":
		v, err := s.Timeout()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\n", v)
	case "settimeout":
		if len(args) != 2 {
			return fmt.Errorf("usage: settimeout SECONDS")
		}
		n, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return err
		}
		v, err := s.SetTimeout(uint32(n))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\n", v)
	case "enable":
		return s.SetOptions(watchdog.SetOptionsEnable)
	case "disable":
		return s.SetOptions(watchdog.SetOptionsDisable)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func oneShot(ctx context.Context, cc grpc.ClientConnInterface, args []string) error {
	s, err := api.Open(ctx, cc)
	if err != nil {
		return err
	}
	err = command(os.Stdout, s, args)
	if !*keep && args[0] != "enable" {
		if _, werr := s.Write([]byte{watchdog.MagicChar}); werr != nil {
			err = multierr.Append(err, werr)
		}
	}
	return multierr.Append(err, s.Close())
}

func run(ctx context.Context, cc grpc.ClientConnInterface) error {
	p := &pinger.Pinger{
		Open: func(ctx context.Context) (pinger.Conn, error) {
			return api.Open(ctx, cc)
		},
		Interval: *interval,
		NoMagic:  *noMagic,
	}
	return p.Run(ctx)
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	cc, err := dial(ctx)
	if err != nil {
		log.Fatalf("Dial %s: %v", *socket, err)
	}
	defer cc.Close()

	switch flag.Arg(0) {
	case "run":
		err = run(ctx, cc)
	case "describe":
		err = describe(ctx, os.Stdout, cc)
	default:
		err = oneShot(ctx, cc, flag.Args())
	}
	if err != nil {
		log.Errorf("%s: %v", flag.Arg(0), err)
		os.Exit(1)
	}
}
