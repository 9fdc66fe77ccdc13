// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pinger keeps a watchdog session fed until it is told to stop.
package pinger

import (
	"context"
	"time"

	"github.com/jmhodges/clock"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/u-root/u-wdt/pkg/logger"
)

// Conn is an open watchdog session.
type Conn interface {
	Write([]byte) (int, error)
	Close() error
}

var (
	ping  = []byte{0}
	magic = []byte{'V'}
)

type Pinger struct {
	// Open starts a session. The context stays valid until the pinger is
	// done with the returned Conn, so it may outlive Run's context.
	Open func(context.Context) (Conn, error)
	// Interval between keepalives. It must be well below the heartbeat.
	Interval time.Duration
	// NoMagic leaves the timer armed when Run returns.
	NoMagic bool

	Clock   clock.Clock
	Backoff *backoff.Backoff
	Logger  *zap.SugaredLogger
}

func (p *Pinger) defaults() {
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.Backoff == nil {
		p.Backoff = &backoff.Backoff{Min: 100 * time.Millisecond, Max: 10 * time.Second, Factor: 2, Jitter: true}
	}
	if p.Logger == nil {
		p.Logger = logger.LogContainer.GetSimpleLogger()
	}
}

// wait returns false if ctx ended first.
func (p *Pinger) wait(ctx context.Context, d time.Duration) bool {
	t := p.Clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// open runs Open on a context detached from ctx once Open has returned.
func (p *Pinger) open(ctx context.Context) (Conn, context.CancelFunc, error) {
	sctx, cancel := context.WithCancel(context.Background())
	opening := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-opening:
		}
	}()
	c, err := p.Open(sctx)
	close(opening)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return c, cancel, nil
}

// release ends the session, with a magic close unless NoMagic is set.
func (p *Pinger) release(c Conn) error {
	if !p.NoMagic {
		if _, err := c.Write(magic); err != nil {
			c.Close()
			return err
		}
	}
	return c.Close()
}

// feed pings c every interval. It returns done when ctx ended and c was
// released; otherwise the session broke with err.
func (p *Pinger) feed(ctx context.Context, c Conn) (done bool, err error) {
	for {
		if _, err := c.Write(ping); err != nil {
			return false, err
		}
		if !p.wait(ctx, p.Interval) {
			return true, p.release(c)
		}
	}
}

// Run feeds the watchdog until ctx ends. Broken sessions are reopened with
// backoff. On return the session is closed; unless NoMagic is set the
// magic character is written first so the timer stops.
func (p *Pinger) Run(ctx context.Context) error {
	p.defaults()
	for {
		c, cancel, err := p.open(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d := p.Backoff.Duration()
			p.Logger.Warnf("Opening watchdog session failed, retrying in %v: %v", d, err)
			if !p.wait(ctx, d) {
				return nil
			}
			continue
		}
		p.Backoff.Reset()
		p.Logger.Infof("Watchdog session open, pinging every %v", p.Interval)

		done, err := p.feed(ctx, c)
		if done {
			cancel()
			if err == nil && !p.NoMagic {
				p.Logger.Info("Watchdog released")
			}
			return err
		}
		c.Close()
		cancel()
		d := p.Backoff.Duration()
		p.Logger.Errorf("Watchdog session broke, reopening in %v: %v", d, err)
		if !p.wait(ctx, d) {
			return nil
		}
	}
}
