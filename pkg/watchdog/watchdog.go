// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watchdog implements the control protocol of a countdown watchdog
// timer with a start/stop bit, a trigger bit and a seconds counter.
//
// A Watchdog is created once per device. Clients get at most one Session at
// a time; the timer is started when the session opens and is only stopped
// again on close if the client wrote the magic character 'V' first. Any
// other close leaves the timer running so the hardware resets the machine
// if the client has died.
package watchdog

import (
	"github.com/u-root/u-wdt/pkg/logger"
	"go.uber.org/zap"
)

const (
	// Identity is reported by GetSupport.
	Identity = "AMD watchdog timer"
	// DefaultHeartbeat is the timeout used when none is configured.
	DefaultHeartbeat = 60
	// MagicChar written to a session allows the next close to stop the timer.
	MagicChar = 'V'
)

type Options struct {
	// Heartbeat in seconds programmed at initialization.
	Heartbeat uint32
	// NoWayOut forbids stopping the timer once it has been started.
	NoWayOut bool
	// Action taken by the hardware on expiry.
	Action Action
	// Logger defaults to the process wide simple logger.
	Logger *zap.SugaredLogger
}

// Watchdog owns the session state and the serialized register access of one
// timer device.
type Watchdog struct {
	timer  *Timer
	st     state
	boot   BootStatus
	action Action
	log    *zap.SugaredLogger
}

// New initializes dev: it programs the expiry action, latches and clears
// the fired status into the boot status and loads the heartbeat.
func New(dev Device, o Options) (*Watchdog, error) {
	w := &Watchdog{action: o.Action, log: o.Logger}
	if w.log == nil {
		w.log = logger.LogContainer.GetSimpleLogger()
	}
	w.timer = newTimer(dev, &w.st)

	w.timer.setAction(o.Action)

	fired := w.timer.clearFired()
	w.boot = BootStatus{CardReset: fired}
	if fired {
		w.log.Warn("Watchdog reboot detected")
	} else {
		w.log.Info("Watchdog reboot not detected")
	}

	if o.Heartbeat == 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if err := w.timer.SetHeartbeat(o.Heartbeat); err != nil {
		return nil, err
	}
	w.st.noWayOut.Store(o.NoWayOut)

	w.log.Infow("watchdog initialized",
		"heartbeat", o.Heartbeat, "nowayout", o.NoWayOut, "action", o.Action.String())
	return w, nil
}

// Timer gives direct access to the register operations.
func (w *Watchdog) Timer() *Timer {
	return w.timer
}

func (w *Watchdog) Status() Status {
	return w.st.snapshot()
}

func (w *Watchdog) BootStatus() BootStatus {
	return w.boot
}

func (w *Watchdog) Action() Action {
	return w.action
}

// Open starts a session. Only one session may exist at a time.
// Opening starts the timer and reloads it.
func (w *Watchdog) Open() (*Session, error) {
	if !w.st.open.CompareAndSwap(false, true) {
		opensRejected.Inc()
		return nil, ErrAlreadyOpen
	}
	w.timer.Activate()
	w.timer.Keepalive()
	sessionsOpened.Inc()
	return &Session{w: w}, nil
}

// Shutdown stops the timer before the device goes away, unless nowayout is
// set. No register access may follow it.
func (w *Watchdog) Shutdown() {
	if w.st.noWayOut.Load() {
		w.log.Warn("nowayout is set, leaving watchdog running")
		return
	}
	w.timer.Deactivate()
}
