// Package classifier maps raw probe measurements to a Status and rolls child
// statuses up into region and system statuses.
package classifier

import (
	"time"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

// Config holds the classification thresholds.
type Config struct {
	DegradedLatency time.Duration `yaml:"degraded_latency"`
	SuccessMin      int           `yaml:"success_min"`
	SuccessMax      int           `yaml:"success_max"`
}

// DefaultConfig accepts 2xx responses and degrades above 1.5s.
var DefaultConfig = Config{
	DegradedLatency: 1500 * time.Millisecond,
	SuccessMin:      200,
	SuccessMax:      299,
}

// Probe is one raw measurement of a service.
type Probe struct {
	LatencyMs  int64
	StatusCode int // 0 when there was no response
	Error      string

	// Reported is the status the probe source claims, zero when absent.
	Reported domain.Status
}

// Classifier is a pure, deterministic Probe -> Status mapping.
type Classifier struct {
	cfg Config
}

// New creates a classifier, filling unset thresholds from DefaultConfig.
func New(cfg Config) *Classifier {
	if cfg.DegradedLatency <= 0 {
		cfg.DegradedLatency = DefaultConfig.DegradedLatency
	}
	if cfg.SuccessMin == 0 && cfg.SuccessMax == 0 {
		cfg.SuccessMin = DefaultConfig.SuccessMin
		cfg.SuccessMax = DefaultConfig.SuccessMax
	}
	return &Classifier{cfg: cfg}
}

// Classify returns down for no response or an out-of-range status code,
// degraded for a slow response or any soft-failure signal, operational otherwise.
func (c *Classifier) Classify(p Probe) domain.Status {
	if !c.inRange(p.StatusCode) {
		return domain.StatusDown
	}

	if p.LatencyMs > c.cfg.DegradedLatency.Milliseconds() {
		return domain.StatusDegraded
	}

	// Soft failures: an error text on a successful response, or the source
	// itself reporting trouble.
	if p.Error != "" {
		return domain.StatusDegraded
	}
	switch p.Reported {
	case domain.StatusDegraded, domain.StatusDown:
		return domain.StatusDegraded
	}

	return domain.StatusOperational
}

func (c *Classifier) inRange(code int) bool {
	// 0 is "no response" even if a caller configures a range starting at 0.
	return code > 0 && code >= c.cfg.SuccessMin && code <= c.cfg.SuccessMax
}
