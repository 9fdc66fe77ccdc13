// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import (
	"bytes"
	"sync/atomic"
)

// Support option bits reported by GetSupport.
const (
	OptionSetTimeout    uint32 = 0x0080
	OptionMagicClose    uint32 = 0x0100
	OptionKeepalivePing uint32 = 0x8000
)

// Flags accepted by SetOptions.
const (
	SetOptionsDisable uint32 = 0x0001
	SetOptionsEnable  uint32 = 0x0002
)

// Info describes the device capabilities.
type Info struct {
	Options         uint32
	FirmwareVersion uint32
	Identity        string
}

var info = Info{
	Options:  OptionSetTimeout | OptionKeepalivePing | OptionMagicClose,
	Identity: Identity,
}

// Session is the single client of a Watchdog, from Open to Close.
type Session struct {
	w      *Watchdog
	closed atomic.Bool
}

// Write reloads the timer for any non-empty p. Unless nowayout is set, it
// also decides whether the next Close may stop the timer: only if p
// contains the magic character.
func (s *Session) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrSessionClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	st := &s.w.st
	if !st.noWayOut.Load() {
		st.allowRelease.Store(false)
		if bytes.IndexByte(p, MagicChar) >= 0 {
			st.allowRelease.Store(true)
		}
	}
	s.w.timer.Keepalive()
	return len(p), nil
}

// Close ends the session. The timer is stopped only after a magic close;
// otherwise it is reloaded and left running.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrSessionClosed
	}
	st := &s.w.st
	if st.allowRelease.Swap(false) && !st.noWayOut.Load() {
		s.w.timer.Deactivate()
	} else {
		s.w.log.Error("Unexpected close, not stopping watchdog!")
		unexpectedCloses.Inc()
		s.w.timer.Keepalive()
	}
	st.open.Store(false)
	return nil
}

// The getters below do not check for a closed session; Ioctl does.

func (s *Session) info() Info {
	return info
}

func (s *Session) status() Status {
	return s.w.Status()
}

func (s *Session) bootStatus() BootStatus {
	return s.w.boot
}

// SetOptions disables and/or enables the timer. Disabling is applied first.
// Under nowayout a disable is refused with ErrNoWayOut, but an enable in
// the same flags still takes effect.
func (s *Session) SetOptions(flags uint32) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if flags&(SetOptionsDisable|SetOptionsEnable) == 0 {
		return ErrInvalidArgument
	}
	var err error
	if flags&SetOptionsDisable != 0 {
		if s.w.st.noWayOut.Load() {
			err = ErrNoWayOut
		} else {
			s.w.timer.Deactivate()
		}
	}
	if flags&SetOptionsEnable != 0 {
		s.w.timer.Activate()
		s.w.timer.Keepalive()
	}
	return err
}

func (s *Session) Keepalive() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.w.timer.Keepalive()
	return nil
}

// SetTimeout programs a new heartbeat, reloads the timer and returns the
// heartbeat now in effect.
func (s *Session) SetTimeout(seconds uint32) (uint32, error) {
	if s.closed.Load() {
		return 0, ErrSessionClosed
	}
	if err := s.w.timer.SetHeartbeat(seconds); err != nil {
		return 0, err
	}
	s.w.timer.Keepalive()
	return s.timeout(), nil
}

func (s *Session) timeout() uint32 {
	return s.w.timer.Heartbeat()
}

func (s *Session) timeLeft() uint32 {
	return s.w.timer.TimeLeft()
}
