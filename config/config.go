// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/u-root/u-wdt/pkg/watchdog"
)

// Set with -ldflags "-X github.com/u-root/u-wdt/config.gitVersion=..."
var (
	gitVersion = "dev"
	gitHash    = "unknown"
)

const (
	MinHeartbeat = 1
	MaxHeartbeat = 600
)

type Version struct {
	Version string
	GitHash string
}

type Config struct {
	// Heartbeat in seconds, clamped to [MinHeartbeat, MaxHeartbeat]
	Heartbeat uint
	NoWayOut  bool
	// Action is "reboot" or "shutdown"
	Action string

	Socket      string
	MetricsAddr string
	SysfsRoot   string
	DevMem      string
	LockDir     string
	LogFile     string
	Debug       bool

	// Simulate drives a software model of the timer instead of the chipset.
	Simulate bool

	Version Version
}

var DefaultConfig = &Config{
	Heartbeat: watchdog.DefaultHeartbeat,
	NoWayOut:  false,
	Action:    watchdog.ActionReboot.String(),

	Socket: "/run/amdwdt.sock",
	// Metrics stay on loopback; scrape through a local agent.
	MetricsAddr: "[::1]:9371",
	SysfsRoot:   "/sys",
	DevMem:      "/dev/mem",
	LockDir:     "/run/lock",

	Version: Version{
		Version: gitVersion,
		GitHash: gitHash,
	},
}

// RegisterFlags binds c to fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.UintVar(&c.Heartbeat, "heartbeat", c.Heartbeat,
		fmt.Sprintf("Watchdog heartbeat in seconds (%d<heartbeat<%d, default=%d)", MinHeartbeat-1, MaxHeartbeat+1, watchdog.DefaultHeartbeat))
	fs.BoolVar(&c.NoWayOut, "nowayout", c.NoWayOut, "Watchdog cannot be stopped once started")
	fs.StringVar(&c.Action, "action", c.Action, "Action on expiry: reboot or shutdown")
	fs.StringVar(&c.Socket, "socket", c.Socket, "Unix socket to serve sessions on")
	fs.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Address to serve metrics on, empty to disable")
	fs.StringVar(&c.SysfsRoot, "sysfs", c.SysfsRoot, "Root of sysfs")
	fs.StringVar(&c.DevMem, "mem", c.DevMem, "Physical memory device")
	fs.StringVar(&c.LockDir, "lockdir", c.LockDir, "Directory for register range reservations")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "Also log JSON to this file")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Log at debug level")
	fs.BoolVar(&c.Simulate, "simulate", c.Simulate, "Use a simulated timer")
}

// Normalize clamps the heartbeat into range and checks the action.
func (c *Config) Normalize(log *zap.SugaredLogger) error {
	switch {
	case c.Heartbeat < MinHeartbeat:
		log.Warnf("heartbeat %d below minimum, using %d", c.Heartbeat, MinHeartbeat)
		c.Heartbeat = MinHeartbeat
	case c.Heartbeat > MaxHeartbeat:
		log.Warnf("heartbeat %d above maximum, using %d", c.Heartbeat, MaxHeartbeat)
		c.Heartbeat = MaxHeartbeat
	}
	if _, err := watchdog.ParseAction(c.Action); err != nil {
		return err
	}
	return nil
}

// Options returns the watchdog options of a normalized c.
func (c *Config) Options() (watchdog.Options, error) {
	a, err := watchdog.ParseAction(c.Action)
	if err != nil {
		return watchdog.Options{}, err
	}
	return watchdog.Options{
		Heartbeat: uint32(c.Heartbeat),
		NoWayOut:  c.NoWayOut,
		Action:    a,
	}, nil
}
