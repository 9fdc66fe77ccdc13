// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	pt "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounterReuse(t *testing.T) {
	opts := MetricOpts{Namespace: "uwdt", Subsystem: "test", Name: "reuse_total"}
	labels := prometheus.Labels{"version": "x"}
	a := Counter(opts, labels)
	b := Counter(opts, labels)
	a.Inc()
	b.Inc()
	if v := pt.ToFloat64(a); v != 2 {
		t.Errorf("Expected shared counter value 2, got %v", v)
	}
}

func TestRegisterTwice(t *testing.T) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "uwdt_test_register_twice", Help: "test"})
	if err := Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(g); err != nil {
		t.Errorf("Second Register should be tolerated, got %v", err)
	}
}

func TestStartMetrics(t *testing.T) {
	Counter(MetricOpts{Namespace: "uwdt", Subsystem: "test", Name: "exported_total"}, nil).Inc()
	mux := http.NewServeMux()
	StartMetrics(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "uwdt_test_exported_total 1") {
		t.Errorf("Counter missing from exposition:\n%s", rec.Body.String())
	}
}
