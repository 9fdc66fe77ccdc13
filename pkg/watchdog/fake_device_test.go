// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import (
	"fmt"
	"testing"
)

const (
	regControl = "control"
	regCount   = "count"
)

type op struct {
	write bool
	reg   string
	data  uint32
}

// fakeDevice checks register accesses against a scripted sequence.
type fakeDevice struct {
	t   *testing.T
	ops []op
}

func opstr(o *op) string {
	t := "read"
	if o.write {
		t = "write"
	}
	return fmt.Sprintf("{%s %s = %08x}", t, o.reg, o.data)
}

func (d *fakeDevice) next(write bool, reg string, data uint32) uint32 {
	d.t.Helper()
	if len(d.ops) == 0 {
		d.t.Fatalf("Unexpected %v access to %s (%08x)", write, reg, data)
	}
	o := d.ops[0]
	d.ops = d.ops[1:]
	if o.write != write || o.reg != reg || (write && o.data != data) {
		d.t.Errorf("Expected %s, got %s", opstr(&o), opstr(&op{write, reg, data}))
	}
	return o.data
}

func (d *fakeDevice) ReadControl() uint32   { return d.next(false, regControl, 0) }
func (d *fakeDevice) WriteControl(v uint32) { d.next(true, regControl, v) }
func (d *fakeDevice) ReadCount() uint32     { return d.next(false, regCount, 0) }
func (d *fakeDevice) WriteCount(v uint32)   { d.next(true, regCount, v) }

func (d *fakeDevice) ExpectWriteControl(v uint32) {
	d.ops = append(d.ops, op{true, regControl, v})
}

func (d *fakeDevice) ExpectWriteCount(v uint32) {
	d.ops = append(d.ops, op{true, regCount, v})
}

func (d *fakeDevice) FakeReadControl(v uint32) {
	d.ops = append(d.ops, op{false, regControl, v})
}

func (d *fakeDevice) FakeReadCount(v uint32) {
	d.ops = append(d.ops, op{false, regCount, v})
}

// Done fails the test if scripted accesses were not consumed.
func (d *fakeDevice) Done() {
	d.t.Helper()
	for i := range d.ops {
		d.t.Errorf("Missing access %s", opstr(&d.ops[i]))
	}
}

func fakeDev(t *testing.T) *fakeDevice {
	return &fakeDevice{t: t}
}
