// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pci finds PCI functions in sysfs by vendor and device ID.
package pci

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// AnyID matches any value of a field in an ID.
const AnyID = ^uint32(0)

// ErrNotFound is returned when no present device matches the table.
var ErrNotFound = errors.New("no matching PCI device")

// ID is one entry of a device match table.
type ID struct {
	Vendor    uint32
	Device    uint32
	SubVendor uint32
	SubDevice uint32
}

// Device is a PCI function found in sysfs.
type Device struct {
	Addr      string
	Vendor    uint16
	Device    uint16
	SubVendor uint16
	SubDevice uint16
}

func (d *Device) String() string {
	return fmt.Sprintf("%s %04x:%04x (%04x:%04x)", d.Addr, d.Vendor, d.Device, d.SubVendor, d.SubDevice)
}

func field(want uint32, have uint16) bool {
	return want == AnyID || want == uint32(have)
}

// Match reports whether d satisfies id.
func (id ID) Match(d *Device) bool {
	return field(id.Vendor, d.Vendor) && field(id.Device, d.Device) &&
		field(id.SubVendor, d.SubVendor) && field(id.SubDevice, d.SubDevice)
}

// Bus reads devices from a sysfs tree.
type Bus struct {
	fs   afero.Fs
	root string
}

// NewBus returns a Bus reading <sysfs>/bus/pci/devices on fs.
func NewBus(fs afero.Fs, sysfs string) *Bus {
	return &Bus{fs: fs, root: path.Join(sysfs, "bus/pci/devices")}
}

func (b *Bus) readHex(dir, name string) (uint16, error) {
	c, err := afero.ReadFile(b.fs, path.Join(dir, name))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(c)), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("%s/%s: %v", dir, name, err)
	}
	return uint16(v), nil
}

func (b *Bus) read(dir string) (*Device, error) {
	d := &Device{Addr: path.Base(dir)}
	var err error
	for _, f := range []struct {
		name string
		v    *uint16
	}{
		{"vendor", &d.Vendor},
		{"device", &d.Device},
		{"subsystem_vendor", &d.SubVendor},
		{"subsystem_device", &d.SubDevice},
	} {
		if *f.v, err = b.readHex(dir, f.name); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Devices lists all functions in bus address order.
func (b *Bus) Devices() ([]*Device, error) {
	dirs, err := afero.Glob(b.fs, path.Join(b.root, "*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(dirs)
	var devs []*Device
	for _, dir := range dirs {
		d, err := b.read(dir)
		if err != nil {
			return nil, err
		}
		devs = append(devs, d)
	}
	return devs, nil
}

// Find returns the first device in bus order that matches any entry of table.
func (b *Bus) Find(table []ID) (*Device, error) {
	devs, err := b.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		for _, id := range table {
			if id.Match(d) {
				return d, nil
			}
		}
	}
	return nil, ErrNotFound
}
