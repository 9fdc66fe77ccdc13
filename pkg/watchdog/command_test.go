// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import (
	"errors"
	"testing"
)

func u32(v uint32) *uint32 { return &v }

func TestIoctl(t *testing.T) {
	w := newTestWatchdog(t, Options{Heartbeat: 45})
	s := mustOpen(t, w)
	defer s.Close()

	tests := []struct {
		cmd  Command
		arg  *uint32
		want uint32
		err  error
	}{
		{GetStatus, nil, StatusActive | StatusDevOpen, nil},
		{GetBootStatus, nil, 0, nil},
		{GetTimeout, nil, 45, nil},
		{GetTimeLeft, nil, 45, nil},
		{Keepalive, nil, 0, nil},
		{SetTimeout, u32(90), 90, nil},
		{GetTimeout, nil, 90, nil},
		{SetTimeout, u32(0), 0, ErrInvalidArgument},
		{SetTimeout, u32(0x10000), 0, ErrInvalidArgument},
		{GetTimeout, nil, 90, nil},
		{SetTimeout, nil, 0, ErrTransferFault},
		{SetOptions, nil, 0, ErrTransferFault},
		{SetOptions, u32(0), 0, ErrInvalidArgument},
		{SetOptions, u32(SetOptionsDisable), 0, nil},
		{GetStatus, nil, StatusDevOpen, nil},
		{SetOptions, u32(SetOptionsEnable), 0, nil},
		{Command(42), nil, 0, ErrUnsupported},
	}
	for _, tt := range tests {
		r, err := s.Ioctl(tt.cmd, tt.arg)
		if !errors.Is(err, tt.err) {
			t.Errorf("%v: expected error %v, got %v", tt.cmd, tt.err, err)
			continue
		}
		if r.Value != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.cmd, tt.want, r.Value)
		}
	}
}

func TestIoctlBootStatus(t *testing.T) {
	w := newTestWatchdog(t, Options{})
	w.boot = BootStatus{CardReset: true}
	s := mustOpen(t, w)
	defer s.Close()
	r, err := s.Ioctl(GetBootStatus, nil)
	if err != nil || r.Value != BootCardReset {
		t.Errorf("GetBootStatus = %v, %v", r.Value, err)
	}
}

func TestIoctlSupport(t *testing.T) {
	w := newTestWatchdog(t, Options{})
	s := mustOpen(t, w)
	defer s.Close()
	r, err := s.Ioctl(GetSupport, nil)
	if err != nil {
		t.Fatalf("GetSupport: %v", err)
	}
	if r.Info == nil || r.Info.Identity != Identity {
		t.Fatalf("Unexpected support info %+v", r.Info)
	}
	want := OptionSetTimeout | OptionKeepalivePing | OptionMagicClose
	if r.Info.Options != want || r.Info.FirmwareVersion != 0 {
		t.Errorf("Expected options %#x firmware 0, got %#x firmware %d", want, r.Info.Options, r.Info.FirmwareVersion)
	}
}

func TestIoctlSetTimeoutPings(t *testing.T) {
	w := newTestWatchdog(t, Options{})
	s := mustOpen(t, w)
	defer s.Close()
	pings := w.dev.Pings()
	if _, err := s.Ioctl(SetTimeout, u32(10)); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	if w.dev.Pings() != pings+1 {
		t.Errorf("Expected SetTimeout to ping once")
	}
}

func TestIoctlClosed(t *testing.T) {
	w := newTestWatchdog(t, Options{})
	s := mustOpen(t, w)
	s.Close()
	arg := uint32(SetOptionsEnable)
	for _, cmd := range []Command{GetSupport, GetStatus, GetBootStatus, SetOptions, Keepalive, SetTimeout, GetTimeout, GetTimeLeft} {
		r, err := s.Ioctl(cmd, &arg)
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("%v: expected ErrSessionClosed, got %v", cmd, err)
		}
		if r.Info != nil || r.Value != 0 {
			t.Errorf("%v: expected empty reply, got %+v", cmd, r)
		}
	}
}

func TestStatusBits(t *testing.T) {
	for v := uint32(0); v < 16; v++ {
		if got := StatusFromBits(v).Bits(); got != v {
			t.Errorf("StatusFromBits(%#x).Bits() = %#x", v, got)
		}
	}
}
