// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import (
	"fmt"
	"sync"
)

const (
	// MinHeartbeat and MaxHeartbeat bound what the count register accepts.
	MinHeartbeat = 1
	MaxHeartbeat = 0xffff
)

// Device is anything that exposes the watchdog control and count registers.
// The mapped register window implements it on real hardware.
type Device interface {
	ReadControl() uint32
	WriteControl(uint32)
	ReadCount() uint32
	WriteCount(uint32)
}

// Timer serializes all register access to one Device. Each method is one
// read-modify-write done entirely under mu.
type Timer struct {
	mu        sync.Mutex
	dev       Device
	heartbeat uint32
	st        *state
}

func newTimer(dev Device, st *state) *Timer {
	return &Timer{dev: dev, st: st}
}

func (t *Timer) control() Control {
	return Control(t.dev.ReadControl())
}

// setControl writes c back with the fired bit cleared. Fired is write one
// to clear, so carrying it over from a read would drop the latched status.
func (t *Timer) setControl(c Control) {
	t.dev.WriteControl(uint32(c.WithFired(false)))
}

// SetHeartbeat programs the reload value of the counter in seconds.
func (t *Timer) SetHeartbeat(seconds uint32) error {
	if seconds < MinHeartbeat || seconds > MaxHeartbeat {
		return fmt.Errorf("heartbeat %d not in [%d, %d]: %w",
			seconds, MinHeartbeat, MaxHeartbeat, ErrInvalidArgument)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dev.WriteCount(seconds)
	t.heartbeat = seconds
	return nil
}

// Heartbeat returns the last successfully configured timeout.
func (t *Timer) Heartbeat() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heartbeat
}

func (t *Timer) Activate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setControl(t.control().WithStarted(true))
	t.st.active.Store(true)
}

func (t *Timer) Deactivate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setControl(t.control().WithStarted(false))
	t.st.active.Store(false)
}

// Keepalive reloads the countdown without changing the armed state.
func (t *Timer) Keepalive() {
	t.mu.Lock()
	t.setControl(t.control().WithTrigger())
	t.mu.Unlock()
	keepalives.Inc()
}

// TimeLeft returns the remaining seconds before the hardware acts.
func (t *Timer) TimeLeft() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev.ReadCount() & CountMask
}

func (t *Timer) setAction(a Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setControl(t.control().WithActionShutdown(a == ActionShutdown))
}

// clearFired reports whether the fired bit was latched and acknowledges it.
func (t *Timer) clearFired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.control()
	t.dev.WriteControl(uint32(c.WithFired(true)))
	return c.Fired()
}
