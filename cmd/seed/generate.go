package main

import (
	"math/rand/v2"
	"time"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

type named struct {
	ID   string
	Name string
}

var regions = []named{
	{ID: "us-east-1", Name: "US East (N. Virginia)"},
	{ID: "eu-west-2", Name: "EU West (London)"},
	{ID: "ap-south-1", Name: "AP South (Mumbai)"},
}

var services = []named{
	{ID: "api-gateway", Name: "API Gateway"},
	{ID: "auth-service", Name: "Authentication"},
	{ID: "db-cluster", Name: "Database Cluster"},
	{ID: "storage", Name: "Object Storage"},
}

// generateOptions controls the synthetic history.
type generateOptions struct {
	Now      time.Time
	Span     time.Duration
	Interval time.Duration
	Seed     uint64
}

// generate builds a synthetic check history: every service in every region,
// one check per interval, regional latency offsets, occasional spikes and a
// 30 minute degraded window for the EU database four hours ago.
func generate(opts generateOptions) []*domain.Check {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	between := func(lo, hi int64) int64 { return lo + rng.Int64N(hi-lo+1) }

	now := opts.Now.UnixMilli()
	start := opts.Now.Add(-opts.Span).UnixMilli()
	step := opts.Interval.Milliseconds()
	incidentStart := opts.Now.Add(-4 * time.Hour).UnixMilli()
	incidentEnd := incidentStart + (30 * time.Minute).Milliseconds()

	var checks []*domain.Check
	for _, r := range regions {
		for _, s := range services {
			for ts := start; ts <= now; ts += step {
				c := &domain.Check{
					Timestamp:   ts,
					RegionID:    r.ID,
					RegionName:  r.Name,
					ServiceID:   r.ID + "-" + s.ID, // service ids are global
					ServiceName: s.Name,
					Status:      domain.StatusOperational,
					StatusCode:  200,
					LatencyMs:   between(20, 80),
				}

				switch r.ID {
				case "ap-south-1":
					c.LatencyMs += 80
				case "eu-west-2":
					c.LatencyMs += 30
				}

				if r.ID == "eu-west-2" && s.ID == "db-cluster" && ts > incidentStart && ts < incidentEnd {
					c.Status = domain.StatusDegraded
					c.LatencyMs += between(300, 600)
					c.Error = "High CPU Load"
				}

				if rng.Float64() > 0.98 {
					c.LatencyMs += between(100, 300)
				}

				checks = append(checks, c)
			}
		}
	}
	return checks
}
