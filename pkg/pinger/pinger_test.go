// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pinger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

type event struct {
	conn int
	data string // "close" for Close
}

type fakeOpener struct {
	mu     sync.Mutex
	events chan event
	opens  int
	// fails lists Open results by call; true fails the call
	fails []bool
	// breakAt makes the n-th write of the first conn fail
	breakAt int
}

type fakeConn struct {
	o      *fakeOpener
	id     int
	writes int
}

func (c *fakeConn) Write(b []byte) (int, error) {
	c.writes++
	if c.id == 0 && c.writes == c.o.breakAt {
		return 0, errors.New("connection reset")
	}
	c.o.events <- event{c.id, string(b)}
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.o.events <- event{c.id, "close"}
	return nil
}

func (o *fakeOpener) Open(ctx context.Context) (Conn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := o.opens
	o.opens++
	if n < len(o.fails) && o.fails[n] {
		return nil, errors.New("connection refused")
	}
	return &fakeConn{o: o, id: n}, nil
}

func newPinger(o *fakeOpener) (*Pinger, clock.FakeClock) {
	clk := clock.NewFake()
	return &Pinger{
		Open:     o.Open,
		Interval: 10 * time.Second,
		Clock:    clk,
		Backoff:  &backoff.Backoff{Min: time.Second, Max: 4 * time.Second, Factor: 2},
		Logger:   zap.NewNop().Sugar(),
	}, clk
}

// next advances the clock until the pinger produces an event.
func next(t *testing.T, clk clock.FakeClock, o *fakeOpener) event {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case e := <-o.events:
			return e
		case <-deadline:
			t.Fatalf("Timed out waiting for pinger")
		case <-time.After(time.Millisecond):
			clk.Add(time.Second)
		}
	}
}

func expect(t *testing.T, clk clock.FakeClock, o *fakeOpener, want event) {
	t.Helper()
	if e := next(t, clk, o); e != want {
		t.Errorf("Expected %q on conn %d, got %q on conn %d", want.data, want.conn, e.data, e.conn)
	}
}

func start(p *Pinger) (context.CancelFunc, chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return cancel, done
}

func TestMagicCloseOnCancel(t *testing.T) {
	o := &fakeOpener{events: make(chan event, 100)}
	p, clk := newPinger(o)
	cancel, done := start(p)

	expect(t, clk, o, event{0, "\x00"})
	expect(t, clk, o, event{0, "\x00"})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	expect(t, clk, o, event{0, "V"})
	expect(t, clk, o, event{0, "close"})
}

func TestNoMagic(t *testing.T) {
	o := &fakeOpener{events: make(chan event, 100)}
	p, clk := newPinger(o)
	p.NoMagic = true
	cancel, done := start(p)

	expect(t, clk, o, event{0, "\x00"})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	expect(t, clk, o, event{0, "close"})
}

func TestReconnectAfterBrokenSession(t *testing.T) {
	o := &fakeOpener{events: make(chan event, 100), breakAt: 2}
	p, clk := newPinger(o)
	cancel, done := start(p)

	expect(t, clk, o, event{0, "\x00"})
	expect(t, clk, o, event{0, "close"})
	expect(t, clk, o, event{1, "\x00"})
	cancel()
	<-done
	expect(t, clk, o, event{1, "V"})
	expect(t, clk, o, event{1, "close"})
}

func TestOpenRetries(t *testing.T) {
	o := &fakeOpener{events: make(chan event, 100), fails: []bool{true, true, false}}
	p, clk := newPinger(o)
	cancel, done := start(p)

	expect(t, clk, o, event{2, "\x00"})
	cancel()
	<-done
	if o.opens != 3 {
		t.Errorf("Expected 3 opens, got %d", o.opens)
	}
	expect(t, clk, o, event{2, "V"})
	expect(t, clk, o, event{2, "close"})
}

func TestCancelWhileRetrying(t *testing.T) {
	o := &fakeOpener{events: make(chan event, 100), fails: []bool{true, true, true}}
	p, _ := newPinger(o)
	p.Backoff.Min = time.Hour
	p.Backoff.Max = time.Hour
	cancel, done := start(p)
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Expected clean return, got %v", err)
	}
}
