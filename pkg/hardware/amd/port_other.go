// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux || !(amd64 || 386)
// +build !linux !amd64,!386

package amd

import (
	"errors"

	"github.com/u-root/u-root/pkg/memio"
)

var errNoPorts = errors.New("x86 IO ports are not available on this platform")

func noPorts(uint16, memio.UintN) error {
	return errNoPorts
}

// OpenPM returns a PM accessor that fails every access.
func OpenPM() *PM {
	return &PM{In: noPorts, Out: noPorts}
}
