// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package amd brings up the watchdog timer of AMD Hudson-2 class FCH
// chipsets.
//
// The timer lives in the ACPI MMIO region of the FCH. Its base address is
// only available through the PM registers, which are reached with the
// index/data IO port pair at 0xCD6/0xCD7. Probe finds the chipset on the
// PCI bus, reads the base, maps the register window and hands it to the
// generic watchdog protocol.
package amd

import (
	"errors"
	"fmt"

	"github.com/u-root/u-wdt/pkg/hardware/mmio"
	"github.com/u-root/u-wdt/pkg/hardware/pci"
	"github.com/u-root/u-wdt/pkg/logger"
	"github.com/u-root/u-wdt/pkg/watchdog"
)

const (
	Version = "0.1"

	vendorAMD          = 0x1022
	deviceHudson2SMBus = 0x780b
)

// DeviceTable lists the chipsets this driver supports.
var DeviceTable = []pci.ID{
	{Vendor: vendorAMD, Device: deviceHudson2SMBus, SubVendor: pci.AnyID, SubDevice: pci.AnyID},
}

var (
	log = logger.LogContainer.GetSimpleLogger()

	// ErrNotFound means no supported chipset is present.
	ErrNotFound = pci.ErrNotFound
)

// Window is a mapped register window.
type Window interface {
	watchdog.Device
	Close() error
}

// Mapper reserves and maps a physical register window.
type Mapper interface {
	Map(base, size uint32) (Window, error)
}

// MMIOMapper adapts mmio.Mapper to Mapper.
type MMIOMapper struct {
	mmio.Mapper
}

func (m *MMIOMapper) Map(base, size uint32) (Window, error) {
	w, err := m.Mapper.Map(base, size)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Hardware bundles the collaborators Probe talks to.
type Hardware struct {
	Bus    *pci.Bus
	PM     *PM
	Mapper Mapper
}

// Driver is a probed watchdog. Close it to stop the timer and unmap.
type Driver struct {
	Device   *pci.Device
	Base     uint32
	Window   Window
	Watchdog *watchdog.Watchdog
}

// Probe locates, maps and initializes the watchdog. Nothing is mapped and
// no port is touched unless a supported chipset is found.
func Probe(hw Hardware, o watchdog.Options) (*Driver, error) {
	log := log
	if o.Logger != nil {
		log = o.Logger
	}
	log.Infof("AMD WatchDog Timer Driver v%s", Version)

	dev, err := hw.Bus.Find(DeviceTable)
	if err != nil {
		return nil, fmt.Errorf("find chipset: %w", err)
	}
	log.Infow("found chipset", "device", dev.String())

	base, err := hw.PM.WatchdogBase()
	if err != nil {
		return nil, fmt.Errorf("read watchdog base: %w", err)
	}

	win, err := hw.Mapper.Map(base, WindowSize)
	if err != nil {
		if errors.Is(err, mmio.ErrReservationConflict) {
			log.Errorf("mmio address 0x%04x already in use", base)
		} else {
			log.Errorf("failed to map watchdog registers at 0x%04x: %v", base, err)
		}
		return nil, err
	}

	if err := hw.PM.EnableWatchdog(); err != nil {
		win.Close()
		return nil, fmt.Errorf("enable watchdog decode: %w", err)
	}

	w, err := watchdog.New(win, o)
	if err != nil {
		win.Close()
		return nil, err
	}
	log.Infof("initialized (0x%08x)", base)
	return &Driver{Device: dev, Base: base, Window: win, Watchdog: w}, nil
}

// Close stops the timer unless nowayout is set, then releases the window.
// The watchdog must not be used afterwards.
func (d *Driver) Close() error {
	d.Watchdog.Shutdown()
	return d.Window.Close()
}
