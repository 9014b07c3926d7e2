package upstream

import (
	"math"
	"strings"

	"github.com/vietddude/statuswatch/internal/core/classifier"
	"github.com/vietddude/statuswatch/internal/core/domain"
)

// Payload is the upstream status API response.
type Payload struct {
	Regions []Region `json:"regions"`
}

// Region groups the services measured in one region.
type Region struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Services []Service `json:"services"`
}

// Service is one raw per-service measurement.
type Service struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	StatusCode int     `json:"statusCode"`
	Latency    float64 `json:"latency"`
	Error      *string `json:"error"`
}

// ServiceCount returns the number of services across all regions.
func (p *Payload) ServiceCount() int {
	n := 0
	for _, r := range p.Regions {
		n += len(r.Services)
	}
	return n
}

// Probe converts the measurement into classifier input. An unrecognised
// reported status is treated as absent.
func (s Service) Probe() classifier.Probe {
	reported, _ := domain.ParseStatus(strings.ToLower(strings.TrimSpace(s.Status)))

	var latency int64
	switch l := math.Round(s.Latency); {
	case l >= math.MaxInt64:
		latency = math.MaxInt64
	case l > 0:
		latency = int64(l)
	}

	var errText string
	if s.Error != nil {
		errText = *s.Error
	}

	return classifier.Probe{
		LatencyMs:  latency,
		StatusCode: s.StatusCode,
		Error:      errText,
		Reported:   reported,
	}
}
