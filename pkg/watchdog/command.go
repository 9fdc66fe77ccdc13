// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import "fmt"

// Command selects one of the session control operations.
type Command int

const (
	GetSupport Command = iota + 1
	GetStatus
	GetBootStatus
	SetOptions
	Keepalive
	SetTimeout
	GetTimeout
	GetTimeLeft
)

var commandNames = map[Command]string{
	GetSupport:    "GetSupport",
	GetStatus:     "GetStatus",
	GetBootStatus: "GetBootStatus",
	SetOptions:    "SetOptions",
	Keepalive:     "Keepalive",
	SetTimeout:    "SetTimeout",
	GetTimeout:    "GetTimeout",
	GetTimeLeft:   "GetTimeLeft",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Reply carries the result of a command. Info is only set for GetSupport.
type Reply struct {
	Value uint32
	Info  *Info
}

// Ioctl runs cmd on the session. SetOptions and SetTimeout read their
// argument from arg; a nil arg is a transfer fault.
func (s *Session) Ioctl(cmd Command, arg *uint32) (Reply, error) {
	if s.closed.Load() {
		return Reply{}, ErrSessionClosed
	}
	switch cmd {
	case GetSupport:
		i := s.info()
		return Reply{Info: &i}, nil
	case GetStatus:
		return Reply{Value: s.status().Bits()}, nil
	case GetBootStatus:
		return Reply{Value: s.bootStatus().Bits()}, nil
	case SetOptions:
		if arg == nil {
			return Reply{}, ErrTransferFault
		}
		return Reply{}, s.SetOptions(*arg)
	case Keepalive:
		return Reply{}, s.Keepalive()
	case SetTimeout:
		if arg == nil {
			return Reply{}, ErrTransferFault
		}
		v, err := s.SetTimeout(*arg)
		return Reply{Value: v}, err
	case GetTimeout:
		return Reply{Value: s.timeout()}, nil
	case GetTimeLeft:
		return Reply{Value: s.timeLeft()}, nil
	}
	return Reply{}, fmt.Errorf("%v: %w", cmd, ErrUnsupported)
}
