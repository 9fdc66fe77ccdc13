// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// amdwdtd drives the AMD FCH watchdog timer and serves watchdog sessions
// on a unix socket.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/u-root/u-wdt/config"
	"github.com/u-root/u-wdt/pkg/hardware/amd"
	"github.com/u-root/u-wdt/pkg/hardware/mmio"
	"github.com/u-root/u-wdt/pkg/hardware/pci"
	"github.com/u-root/u-wdt/pkg/hardware/simdev"
	"github.com/u-root/u-wdt/pkg/logger"
	"github.com/u-root/u-wdt/pkg/metric"
	"github.com/u-root/u-wdt/pkg/service/grpc"
	"github.com/u-root/u-wdt/pkg/watchdog"
)

var (
	log = logger.LogContainer.GetSimpleLogger()
)

// device is what the daemon tears down on exit.
type device struct {
	wdt   *watchdog.Watchdog
	close func() error
}

func probe(c *config.Config) (*device, error) {
	o, err := c.Options()
	if err != nil {
		return nil, err
	}
	if c.Simulate {
		log.Warn("Using a simulated watchdog timer")
		w, err := watchdog.New(simdev.New(clock.New()), o)
		if err != nil {
			return nil, err
		}
		return &device{wdt: w, close: func() error {
			w.Shutdown()
			return nil
		}}, nil
	}
	d, err := amd.Probe(amd.Hardware{
		Bus:    pci.NewBus(afero.NewOsFs(), c.SysfsRoot),
		PM:     amd.OpenPM(),
		Mapper: &amd.MMIOMapper{Mapper: mmio.Mapper{MemPath: c.DevMem, LockDir: c.LockDir}},
	}, o)
	if err != nil {
		return nil, err
	}
	return &device{wdt: d.Watchdog, close: d.Close}, nil
}

func listenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	// Whoever can open a session can reset the machine
	if err := os.Chmod(path, 0600); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func registerMetrics(c *config.Config, w *watchdog.Watchdog) error {
	metric.Counter(metric.MetricOpts{
		Namespace: "uwdt",
		Name:      "build_info",
		Help:      "Version of the running daemon",
	}, prometheus.Labels{"version": c.Version.Version, "git_hash": c.Version.GitHash}).Inc()
	return metric.Register(w.Collectors()...)
}

func run(ctx context.Context, c *config.Config) (err error) {
	dev, err := probe(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dev.close())
	}()

	if err := registerMetrics(c, dev.wdt); err != nil {
		return err
	}

	l, err := listenUnix(c.Socket)
	if err != nil {
		return err
	}
	srv := grpc.New(dev.wdt)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(l)
	})
	g.Go(func() error {
		<-ctx.Done()
		srv.Stop()
		return nil
	})
	if c.MetricsAddr != "" {
		ml, err := net.Listen("tcp", c.MetricsAddr)
		if err != nil {
			srv.Stop()
			g.Wait()
			return err
		}
		log.Infof("Serving metrics on %s", ml.Addr())
		g.Go(func() error {
			return metric.Serve(ctx, ml)
		})
	}

	<-ctx.Done()
	log.Info("Shutting down")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	c := config.DefaultConfig
	c.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := logger.LogContainer.Configure(c.LogFile, c.Debug); err != nil {
		log.Errorf("Unable to open log file, logging to console only: %v", err)
	}
	defer logger.LogContainer.Sync()

	if err := c.Normalize(log); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Infof("amdwdtd %s (%s)", c.Version.Version, c.Version.GitHash)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	if err := run(ctx, c); err != nil {
		if errors.Is(err, amd.ErrNotFound) {
			log.Errorf("No supported AMD chipset found")
		}
		log.Errorf("amdwdtd: %v", err)
		logger.LogContainer.Sync()
		os.Exit(1)
	}
}
