package classifier

import (
	"math"
	"testing"
	"time"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

func TestClassify(t *testing.T) {
	c := New(DefaultConfig)

	tests := []struct {
		name  string
		probe Probe
		want  domain.Status
	}{
		{"healthy", Probe{LatencyMs: 120, StatusCode: 200}, domain.StatusOperational},
		{"no response", Probe{LatencyMs: 0, StatusCode: 0, Error: "dial tcp: connection refused"}, domain.StatusDown},
		{"no response without error text", Probe{StatusCode: 0}, domain.StatusDown},
		{"server error", Probe{LatencyMs: 40, StatusCode: 503}, domain.StatusDown},
		{"redirect outside range", Probe{LatencyMs: 40, StatusCode: 301}, domain.StatusDown},
		{"slow", Probe{LatencyMs: 1501, StatusCode: 200}, domain.StatusDegraded},
		{"at threshold", Probe{LatencyMs: 1500, StatusCode: 200}, domain.StatusOperational},
		{"huge latency", Probe{LatencyMs: 1e13, StatusCode: 200}, domain.StatusDegraded},
		{"max latency", Probe{LatencyMs: math.MaxInt64, StatusCode: 200}, domain.StatusDegraded},
		{"soft error", Probe{LatencyMs: 10, StatusCode: 200, Error: "High CPU Load"}, domain.StatusDegraded},
		{"reported degraded", Probe{LatencyMs: 10, StatusCode: 204, Reported: domain.StatusDegraded}, domain.StatusDegraded},
		{"reported down but answered", Probe{LatencyMs: 10, StatusCode: 200, Reported: domain.StatusDown}, domain.StatusDegraded},
		{"reported operational but failing", Probe{StatusCode: 500, Reported: domain.StatusOperational}, domain.StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.probe); got != tt.want {
				t.Errorf("Classify(%+v) = %s, want %s", tt.probe, got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New(DefaultConfig)
	probes := []Probe{
		{LatencyMs: 10, StatusCode: 200},
		{LatencyMs: 5000, StatusCode: 200},
		{StatusCode: 0, Error: "timeout"},
		{LatencyMs: 10, StatusCode: 404},
	}

	for _, p := range probes {
		first := c.Classify(p)
		for i := 0; i < 100; i++ {
			if got := c.Classify(p); got != first {
				t.Fatalf("Classify(%+v) changed from %s to %s", p, first, got)
			}
		}
		if first == domain.StatusDown && p.StatusCode >= 200 && p.StatusCode <= 299 {
			t.Errorf("down requires no response or out-of-range code, got down for %+v", p)
		}
	}
}

func TestNewFillsDefaults(t *testing.T) {
	c := New(Config{})
	if c.cfg.DegradedLatency != 1500*time.Millisecond {
		t.Errorf("DegradedLatency = %v", c.cfg.DegradedLatency)
	}
	if c.cfg.SuccessMin != 200 || c.cfg.SuccessMax != 299 {
		t.Errorf("success range = %d-%d", c.cfg.SuccessMin, c.cfg.SuccessMax)
	}
}

func TestClassifyCustomRange(t *testing.T) {
	c := New(Config{SuccessMin: 200, SuccessMax: 399, DegradedLatency: time.Second})

	if got := c.Classify(Probe{StatusCode: 302, LatencyMs: 10}); got != domain.StatusOperational {
		t.Errorf("302 in custom range: got %s", got)
	}
	if got := c.Classify(Probe{StatusCode: 200, LatencyMs: 1001}); got != domain.StatusDegraded {
		t.Errorf("custom latency threshold: got %s", got)
	}
}
