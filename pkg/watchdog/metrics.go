// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watchdog

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	keepalives = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uwdt",
		Subsystem: "watchdog",
		Name:      "keepalives_total",
		Help:      "Number of times the hardware countdown has been reloaded",
	})
	sessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uwdt",
		Subsystem: "watchdog",
		Name:      "sessions_opened_total",
		Help:      "Number of sessions that successfully opened the watchdog",
	})
	opensRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uwdt",
		Subsystem: "watchdog",
		Name:      "opens_rejected_total",
		Help:      "Number of open attempts rejected because a session was active",
	})
	unexpectedCloses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uwdt",
		Subsystem: "watchdog",
		Name:      "unexpected_closes_total",
		Help:      "Number of sessions closed without the magic character",
	})
)

func init() {
	prometheus.MustRegister(keepalives)
	prometheus.MustRegister(sessionsOpened)
	prometheus.MustRegister(opensRejected)
	prometheus.MustRegister(unexpectedCloses)
}

// Collectors returns gauges bound to w, for registration by the owner of w.
func (w *Watchdog) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "uwdt",
			Subsystem: "watchdog",
			Name:      "time_left_seconds",
			Help:      "Seconds left on the hardware countdown",
		}, func() float64 { return float64(w.timer.TimeLeft()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "uwdt",
			Subsystem: "watchdog",
			Name:      "active",
			Help:      "Whether the watchdog timer is armed",
		}, func() float64 { return boolGauge(w.Status().Active) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "uwdt",
			Subsystem: "watchdog",
			Name:      "boot_card_reset",
			Help:      "Whether the previous reset was caused by the watchdog",
		}, func() float64 { return boolGauge(w.BootStatus().CardReset) }),
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
