// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmio maps a small physical register window from /dev/mem.
//
// Userspace has no request_mem_region, so exclusive ownership of a range is
// an flock(2) on a lock file named after the range. Every process driving
// the same registers through this package contends on the same lock.
package mmio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

var (
	// ErrReservationConflict means another owner holds the range.
	ErrReservationConflict = errors.New("mmio range already in use")
	// ErrMapFailure means the range was reserved but could not be mapped.
	ErrMapFailure = errors.New("mmio range could not be mapped")
)

const (
	controlOffset = 0x00
	countOffset   = 0x04
)

// Mapper creates Windows.
type Mapper struct {
	// MemPath is the physical memory device, usually /dev/mem.
	MemPath string
	// LockDir holds the reservation lock files, usually /run/lock.
	LockDir string
}

// Window is a mapped and exclusively reserved register range.
type Window struct {
	base uint32
	size uint32

	once sync.Once
	lock *os.File
	mem  *os.File
	page []byte
	regs []byte
}

func (m *Mapper) reserve(base, size uint32) (*os.File, error) {
	name := filepath.Join(m.LockDir, fmt.Sprintf("mmio-%08x-%x.lock", base, size))
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("reserve %#08x: %v", base, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%#08x: %w", base, ErrReservationConflict)
		}
		return nil, fmt.Errorf("reserve %#08x: %v", base, err)
	}
	return f, nil
}

func release(f *os.File) error {
	return multierr.Append(unix.Flock(int(f.Fd()), unix.LOCK_UN), f.Close())
}

// Map reserves [base, base+size) and maps it. The reservation is released
// again if mapping fails.
func (m *Mapper) Map(base, size uint32) (*Window, error) {
	lock, err := m.reserve(base, size)
	if err != nil {
		return nil, err
	}
	w, err := m.mmap(base, size)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("%#08x: %w: %v", base, ErrMapFailure, err), release(lock))
	}
	w.lock = lock
	return w, nil
}

func (m *Mapper) mmap(base, size uint32) (*Window, error) {
	ps := uint32(unix.Getpagesize())
	page := base &^ (ps - 1)
	off := base - page
	length := (off + size + ps - 1) &^ (ps - 1)

	mem, err := os.OpenFile(m.MemPath, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	b, err := unix.Mmap(int(mem.Fd()), int64(page), int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		mem.Close()
		return nil, err
	}
	return &Window{base: base, size: size, mem: mem, page: b, regs: b[off : off+size]}, nil
}

// Base returns the physical address of the window.
func (w *Window) Base() uint32 {
	return w.base
}

func (w *Window) reg(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&w.regs[off]))
}

func (w *Window) Read32(off int) uint32 {
	return atomic.LoadUint32(w.reg(off))
}

func (w *Window) Write32(off int, v uint32) {
	atomic.StoreUint32(w.reg(off), v)
}

func (w *Window) ReadControl() uint32   { return w.Read32(controlOffset) }
func (w *Window) WriteControl(v uint32) { w.Write32(controlOffset, v) }
func (w *Window) ReadCount() uint32     { return w.Read32(countOffset) }
func (w *Window) WriteCount(v uint32)   { w.Write32(countOffset, v) }

// Close unmaps the window and releases the reservation.
func (w *Window) Close() error {
	var err error
	w.once.Do(func() {
		err = multierr.Combine(unix.Munmap(w.page), w.mem.Close(), release(w.lock))
		w.page, w.regs = nil, nil
	})
	return err
}
