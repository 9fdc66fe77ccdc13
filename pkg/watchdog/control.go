// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import (
	"fmt"
	"strings"
)

// Control is a view of the 32-bit watchdog control register.
// Bits 6:4 and 31:8 are reserved and must be written back unchanged.
type Control uint32

const (
	ControlStartStop      Control = 1 << 0
	ControlFired          Control = 1 << 1
	ControlActionShutdown Control = 1 << 2
	ControlDisable        Control = 1 << 3
	ControlTrigger        Control = 1 << 7
)

// CountMask selects the significant bits of the count register.
const CountMask = 0xffff

func (c Control) Started() bool        { return c&ControlStartStop != 0 }
func (c Control) Fired() bool          { return c&ControlFired != 0 }
func (c Control) ActionShutdown() bool { return c&ControlActionShutdown != 0 }
func (c Control) Disabled() bool       { return c&ControlDisable != 0 }
func (c Control) Triggered() bool      { return c&ControlTrigger != 0 }

func (c Control) with(bit Control, on bool) Control {
	if on {
		return c | bit
	}
	return c &^ bit
}

// WithStarted returns c with the start/stop bit set or cleared.
func (c Control) WithStarted(on bool) Control { return c.with(ControlStartStop, on) }

// WithFired returns c with the fired bit set. Writing it back clears the
// latched status in hardware.
func (c Control) WithFired(on bool) Control { return c.with(ControlFired, on) }

func (c Control) WithActionShutdown(on bool) Control { return c.with(ControlActionShutdown, on) }

// WithTrigger returns c with the trigger bit set, which reloads the counter.
func (c Control) WithTrigger() Control { return c | ControlTrigger }

func (c Control) String() string {
	var s []string
	for _, b := range []struct {
		bit  Control
		name string
	}{
		{ControlStartStop, "started"},
		{ControlFired, "fired"},
		{ControlActionShutdown, "shutdown"},
		{ControlDisable, "disabled"},
		{ControlTrigger, "trigger"},
	} {
		if c&b.bit != 0 {
			s = append(s, b.name)
		}
	}
	return fmt.Sprintf("%08x[%s]", uint32(c), strings.Join(s, ","))
}

// Action is what the hardware does when the countdown expires.
type Action int

const (
	ActionReboot Action = iota
	ActionShutdown
)

// ParseAction accepts the names "reboot" and "shutdown".
func ParseAction(s string) (Action, error) {
	switch s {
	case "reboot":
		return ActionReboot, nil
	case "shutdown":
		return ActionShutdown, nil
	}
	return ActionReboot, fmt.Errorf("unknown watchdog action %q: %w", s, ErrInvalidArgument)
}

func (a Action) String() string {
	if a == ActionShutdown {
		return "shutdown"
	}
	return "reboot"
}
