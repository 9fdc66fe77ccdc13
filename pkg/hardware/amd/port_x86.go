// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || 386)
// +build linux
// +build amd64 386

package amd

import (
	"github.com/u-root/u-root/pkg/memio"
)

// OpenPM returns a PM accessor using /dev/port.
func OpenPM() *PM {
	return &PM{In: memio.In, Out: memio.Out}
}
