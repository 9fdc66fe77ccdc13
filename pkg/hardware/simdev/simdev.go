// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simdev models the AMD FCH watchdog register pair in software.
//
// It is used by tests and by amdwdtd -simulate on machines without the
// chipset. The model follows the hardware closely enough for the control
// protocol: the trigger bit reloads the countdown and reads back as zero,
// the fired bit is write one to clear, and an expired countdown latches
// fired and stops the timer.
package simdev

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

const (
	startStop      uint32 = 1 << 0
	fired          uint32 = 1 << 1
	actionShutdown uint32 = 1 << 2
	trigger        uint32 = 1 << 7

	// countNoise fills the reserved upper half of the count register.
	countNoise uint32 = 0xa5a50000
)

type Device struct {
	mu      sync.Mutex
	clk     clock.Clock
	control uint32
	reload  uint32
	loaded  time.Time
	fired   bool
	pings   int
	expired int
}

// New returns a stopped device with a zero counter.
func New(clk clock.Clock) *Device {
	return &Device{clk: clk, loaded: clk.Now()}
}

// Latch pretends the previous boot ended in a watchdog expiry.
func (d *Device) Latch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fired = true
}

func (d *Device) elapsed() uint32 {
	return uint32(d.clk.Now().Sub(d.loaded) / time.Second)
}

// expire applies a countdown that ran out since the last access.
func (d *Device) expire() {
	if d.control&startStop == 0 || d.elapsed() < d.reload {
		return
	}
	d.fired = true
	d.expired++
	d.control &^= startStop
}

func (d *Device) ReadControl() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	v := d.control
	if d.fired {
		v |= fired
	}
	return v
}

func (d *Device) WriteControl(v uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	if v&fired != 0 {
		d.fired = false
	}
	if d.control&startStop == 0 && v&startStop != 0 {
		d.loaded = d.clk.Now()
	}
	if v&trigger != 0 {
		d.pings++
		d.loaded = d.clk.Now()
	}
	d.control = v &^ (fired | trigger)
}

func (d *Device) ReadCount() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	left := d.reload
	if d.control&startStop != 0 {
		left -= d.elapsed()
	}
	return countNoise | left
}

func (d *Device) WriteCount(v uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	d.reload = v & 0xffff
}

// Pings is the number of trigger writes seen so far.
func (d *Device) Pings() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pings
}

func (d *Device) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	return d.control&startStop != 0
}

func (d *Device) ActionShutdown() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.control&actionShutdown != 0
}

// Fired reports whether the fired status is currently latched.
func (d *Device) Fired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	return d.fired
}

// Expirations counts how often the countdown ran out.
func (d *Device) Expirations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire()
	return d.expired
}

// Reload returns the programmed counter value.
func (d *Device) Reload() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reload
}
