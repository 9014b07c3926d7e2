package main

import (
	"testing"
	"time"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	checks := generate(generateOptions{Now: now, Span: 25 * time.Hour, Interval: 5 * time.Minute, Seed: 1})

	perService := 25*12 + 1
	if want := len(regions) * len(services) * perService; len(checks) != want {
		t.Fatalf("len = %d, want %d", len(checks), want)
	}

	ids := make(map[string]bool)
	degraded := 0
	for _, c := range checks {
		ids[c.ServiceID] = true
		if c.Status == domain.StatusDegraded {
			degraded++
			if c.ServiceID != "eu-west-2-db-cluster" || c.Error != "High CPU Load" {
				t.Errorf("unexpected degraded check: %+v", c)
			}
		}
		if c.Status == domain.StatusDown {
			t.Errorf("seed should never produce down checks: %+v", c)
		}
	}
	if len(ids) != len(regions)*len(services) {
		t.Errorf("distinct services = %d", len(ids))
	}
	// 30 minute window, exclusive at both ends, 5 minute cadence.
	if degraded != 5 {
		t.Errorf("degraded = %d, want 5", degraded)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	opts := generateOptions{Now: time.Unix(1_700_000_000, 0), Span: time.Hour, Interval: 5 * time.Minute, Seed: 42}
	a, b := generate(opts), generate(opts)
	for i := range a {
		if a[i].LatencyMs != b[i].LatencyMs {
			t.Fatalf("check %d differs: %d vs %d", i, a[i].LatencyMs, b[i].LatencyMs)
		}
	}
}
