// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd

import (
	"fmt"
	"sync"

	"github.com/u-root/u-root/pkg/memio"
)

const (
	// IO port pair for indirect access to the ACPI PM registers
	PMIndexPort uint16 = 0xcd6
	PMDataPort  uint16 = 0xcd7

	// PM24-PM27: ACPI MMIO base address, low byte first
	pmWatchdogBase0 uint8 = 0x24

	// PM48: Watchdog timer misc control
	pmWatchdogMisc     uint8 = 0x48
	pmWatchdogDecodeEn uint8 = 1 << 0
	pmWatchdogDisable  uint8 = 1 << 1

	// PM4C: Watchdog timer control
	pmWatchdogControl   uint8 = 0x4c
	pmWatchdogSecondRes uint8 = 0x3

	// Bits 31:13 of PM24 hold the ACPI MMIO base
	acpiMMIOReserved uint32 = 0x1fff
	// The watchdog registers start at ACPI MMIO base + 0xB00
	WatchdogOffset uint32 = 0xb00
	// WindowSize covers the control and count registers
	WindowSize uint32 = 0x100
)

// PM accesses the PM register file through the index/data port pair.
// In and Out have the signatures of memio.In and memio.Out.
type PM struct {
	mu  sync.Mutex
	In  func(uint16, memio.UintN) error
	Out func(uint16, memio.UintN) error
}

func (p *PM) sel(index uint8) error {
	v := memio.Uint8(index)
	if err := p.Out(PMIndexPort, &v); err != nil {
		return fmt.Errorf("select PM%02X: %v", index, err)
	}
	return nil
}

func (p *PM) read(index uint8) (uint8, error) {
	if err := p.sel(index); err != nil {
		return 0, err
	}
	var v memio.Uint8
	if err := p.In(PMDataPort, &v); err != nil {
		return 0, fmt.Errorf("read PM%02X: %v", index, err)
	}
	return uint8(v), nil
}

func (p *PM) write(index uint8, d uint8) error {
	if err := p.sel(index); err != nil {
		return err
	}
	v := memio.Uint8(d)
	if err := p.Out(PMDataPort, &v); err != nil {
		return fmt.Errorf("write PM%02X: %v", index, err)
	}
	return nil
}

// Read returns the PM register at index.
func (p *PM) Read(index uint8) (uint8, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read(index)
}

// update sets and clears bits of a PM register in one locked sequence.
func (p *PM) update(index uint8, set, clear uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.read(index)
	if err != nil {
		return err
	}
	v = (v | set) &^ clear
	return p.write(index, v)
}

// WatchdogBase returns the physical address of the watchdog registers.
func (p *PM) WatchdogBase() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var base uint32
	for i := uint8(0); i < 4; i++ {
		b, err := p.read(pmWatchdogBase0 + i)
		if err != nil {
			return 0, err
		}
		base |= uint32(b) << (8 * i)
	}
	base &^= acpiMMIOReserved
	return base + WatchdogOffset, nil
}

// EnableWatchdog turns on address decode of the watchdog registers and sets
// the counter resolution to one second.
func (p *PM) EnableWatchdog() error {
	if err := p.update(pmWatchdogMisc, pmWatchdogDecodeEn, pmWatchdogDisable); err != nil {
		return err
	}
	return p.update(pmWatchdogControl, pmWatchdogSecondRes, 0)
}
