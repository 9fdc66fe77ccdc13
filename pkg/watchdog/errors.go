// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import "errors"

var (
	// ErrAlreadyOpen is returned by Open while another session holds the device.
	ErrAlreadyOpen = errors.New("watchdog already open")
	// ErrInvalidArgument covers out of range timeouts and empty option sets.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupported is returned for command codes the device does not know.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrTransferFault means a command argument could not be read from the
	// caller. Register writes already issued by the same call stay in effect.
	ErrTransferFault = errors.New("argument transfer fault")
	// ErrSessionClosed is returned when a closed session is used again.
	ErrSessionClosed = errors.New("session closed")
	// ErrNoWayOut is returned when disarming is requested while nowayout is set.
	ErrNoWayOut = errors.New("watchdog cannot be stopped once started")
)
