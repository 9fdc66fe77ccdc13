// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd

import (
	"fmt"
	"testing"

	"github.com/u-root/u-root/pkg/memio"
)

type op struct {
	write bool
	port  uint16
	data  uint8
}

// fakePorts checks IO port accesses against a scripted sequence.
type fakePorts struct {
	t   *testing.T
	ops []op
	err error
}

func opstr(o *op) string {
	t := "in"
	if o.write {
		t = "out"
	}
	return fmt.Sprintf("{%s %04x = %02x}", t, o.port, o.data)
}

func (p *fakePorts) next(write bool, port uint16, data uint8) (uint8, error) {
	p.t.Helper()
	if p.err != nil {
		return 0, p.err
	}
	if len(p.ops) == 0 {
		p.t.Fatalf("Unexpected port access %s", opstr(&op{write, port, data}))
	}
	o := p.ops[0]
	p.ops = p.ops[1:]
	if o.write != write || o.port != port || (write && o.data != data) {
		p.t.Errorf("Expected %s, got %s", opstr(&o), opstr(&op{write, port, data}))
	}
	return o.data, nil
}

func (p *fakePorts) In(port uint16, v memio.UintN) error {
	b, ok := v.(*memio.Uint8)
	if !ok {
		p.t.Fatalf("Expected 8 bit in on %04x, got %T", port, v)
	}
	d, err := p.next(false, port, 0)
	*b = memio.Uint8(d)
	return err
}

func (p *fakePorts) Out(port uint16, v memio.UintN) error {
	b, ok := v.(*memio.Uint8)
	if !ok {
		p.t.Fatalf("Expected 8 bit out on %04x, got %T", port, v)
	}
	_, err := p.next(true, port, uint8(*b))
	return err
}

// ExpectRead scripts a PM register read returning d.
func (p *fakePorts) ExpectRead(index, d uint8) {
	p.ops = append(p.ops, op{true, PMIndexPort, index}, op{false, PMDataPort, d})
}

// ExpectWrite scripts a PM register write of d.
func (p *fakePorts) ExpectWrite(index, d uint8) {
	p.ops = append(p.ops, op{true, PMIndexPort, index}, op{true, PMDataPort, d})
}

func (p *fakePorts) Done() {
	p.t.Helper()
	for _, o := range p.ops {
		p.t.Errorf("Expected %s, never happened", opstr(&o))
	}
	p.ops = nil
}

func (p *fakePorts) PM() *PM {
	return &PM{In: p.In, Out: p.Out}
}

func fakePM(t *testing.T) *fakePorts {
	return &fakePorts{t: t}
}
