// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import (
	"fmt"
	"sync/atomic"
)

// Status bit positions as reported by GetStatus.
const (
	StatusActive       uint32 = 1 << 0
	StatusDevOpen      uint32 = 1 << 1
	StatusAllowRelease uint32 = 1 << 2
	StatusNoWayOut     uint32 = 1 << 3
)

// BootCardReset is reported by GetBootStatus when the previous reset was
// caused by the watchdog.
const BootCardReset uint32 = 0x0020

// state is the process wide session status of one watchdog instance.
// Every flag can be tested and flipped on its own, so the single-open gate
// does not need the register lock.
type state struct {
	active       atomic.Bool
	open         atomic.Bool
	allowRelease atomic.Bool
	noWayOut     atomic.Bool
}

func (s *state) snapshot() Status {
	return Status{
		Active:       s.active.Load(),
		Open:         s.open.Load(),
		AllowRelease: s.allowRelease.Load(),
		NoWayOut:     s.noWayOut.Load(),
	}
}

// Status is a point in time copy of the session flags.
type Status struct {
	Active       bool
	Open         bool
	AllowRelease bool
	NoWayOut     bool
}

// Bits encodes s the way GetStatus reports it on the wire.
func (s Status) Bits() uint32 {
	var v uint32
	if s.Active {
		v |= StatusActive
	}
	if s.Open {
		v |= StatusDevOpen
	}
	if s.AllowRelease {
		v |= StatusAllowRelease
	}
	if s.NoWayOut {
		v |= StatusNoWayOut
	}
	return v
}

// StatusFromBits is the inverse of Status.Bits.
func StatusFromBits(v uint32) Status {
	return Status{
		Active:       v&StatusActive != 0,
		Open:         v&StatusDevOpen != 0,
		AllowRelease: v&StatusAllowRelease != 0,
		NoWayOut:     v&StatusNoWayOut != 0,
	}
}

func (s Status) String() string {
	return fmt.Sprintf("active=%v open=%v release=%v nowayout=%v",
		s.Active, s.Open, s.AllowRelease, s.NoWayOut)
}

// BootStatus records whether the last reset was a watchdog expiry. It is
// latched once when the device is initialized.
type BootStatus struct {
	CardReset bool
}

func (b BootStatus) Bits() uint32 {
	if b.CardReset {
		return BootCardReset
	}
	return 0
}
