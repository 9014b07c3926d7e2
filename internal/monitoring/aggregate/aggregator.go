// Package aggregate derives the current system, region and service status
// from stored checks and incidents.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/statuswatch/internal/core/classifier"
	"github.com/vietddude/statuswatch/internal/core/domain"
	"github.com/vietddude/statuswatch/internal/core/incident"
	"github.com/vietddude/statuswatch/internal/infra/storage"
)

// Reader is the storage surface the aggregator needs.
type Reader interface {
	storage.CheckRepository
	storage.IncidentRepository
}

// Config bounds the history and incident lists.
type Config struct {
	HistoryWindow time.Duration
	HistoryLimit  int
	IncidentLimit int
}

// Aggregator serves the read path. It takes no locks and may run alongside an
// ingestion cycle, in which case some services show the new cycle and some
// the previous one.
type Aggregator struct {
	repo Reader
	cfg  Config
	now  func() time.Time
}

// NewAggregator creates an aggregator.
func NewAggregator(repo Reader, cfg Config) *Aggregator {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 2 * time.Hour
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 60
	}
	if cfg.IncidentLimit <= 0 {
		cfg.IncidentLimit = 10
	}
	return &Aggregator{repo: repo, cfg: cfg, now: time.Now}
}

// GetSystemStatus builds the current SystemStatus.
func (a *Aggregator) GetSystemStatus(ctx context.Context) (*SystemStatus, error) {
	now := a.now()

	var (
		latest    []*domain.Check
		history   map[string][]*domain.Check
		incidents []*domain.Incident
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		latest, err = a.repo.GetLatestAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to get latest checks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		since := now.Add(-a.cfg.HistoryWindow).UnixMilli()
		history, err = a.repo.GetHistory(gctx, since, a.cfg.HistoryLimit)
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		incidents, err = a.repo.GetRecent(gctx, a.cfg.IncidentLimit)
		if err != nil {
			return fmt.Errorf("failed to get incidents: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Build(latest, history, incidents, now), nil
}

// Build derives the view from already-loaded rows. latest must hold at most
// one check per service; when it holds more, the newest wins.
func Build(
	latest []*domain.Check,
	history map[string][]*domain.Check,
	incidents []*domain.Incident,
	now time.Time,
) *SystemStatus {
	latest = dedupeLatest(latest)

	var (
		regions     []Region
		regionIndex = make(map[string]int)
		all         = make([]domain.Status, 0, len(latest))
		newest      int64
	)

	for _, c := range latest {
		i, ok := regionIndex[c.RegionID]
		if !ok {
			i = len(regions)
			regionIndex[c.RegionID] = i
			regions = append(regions, Region{ID: c.RegionID, Name: c.RegionName})
		}

		regions[i].Services = append(regions[i].Services, Service{
			ID:          c.ServiceID,
			Name:        c.ServiceName,
			Status:      c.Status,
			StatusCode:  c.StatusCode,
			Latency:     c.LatencyMs,
			LastChecked: millis(c.Timestamp),
			Error:       optional(c.Error),
			History:     historyPoints(history[c.ServiceID]),
		})
		all = append(all, c.Status)
		newest = max(newest, c.Timestamp)
	}

	for i := range regions {
		statuses := make([]domain.Status, len(regions[i].Services))
		for j, s := range regions[i].Services {
			statuses[j] = s.Status
		}
		regions[i].Status = classifier.Rollup(statuses)
	}

	views := make([]Incident, 0, len(incidents))
	for _, inc := range incidents {
		views = append(views, incidentView(inc, now))
	}

	if regions == nil {
		regions = []Region{}
	}
	return &SystemStatus{
		Status:    classifier.Rollup(all),
		Timestamp: millis(newest),
		Regions:   regions,
		Incidents: views,
	}
}

// dedupeLatest keeps the newest check per service, preserving the order of
// first appearance.
func dedupeLatest(checks []*domain.Check) []*domain.Check {
	index := make(map[string]int, len(checks))
	out := make([]*domain.Check, 0, len(checks))
	for _, c := range checks {
		if i, ok := index[c.ServiceID]; ok {
			if c.Newer(out[i]) {
				out[i] = c
			}
			continue
		}
		index[c.ServiceID] = len(out)
		out = append(out, c)
	}
	return out
}

func historyPoints(checks []*domain.Check) []HistoryPoint {
	points := make([]HistoryPoint, 0, len(checks))
	for _, c := range checks {
		points = append(points, HistoryPoint{
			Status:    c.Status,
			Latency:   c.LatencyMs,
			Timestamp: c.Timestamp,
		})
	}
	return points
}

func incidentView(inc *domain.Incident, now time.Time) Incident {
	v := Incident{
		ID:          inc.ID,
		ServiceID:   inc.ServiceID,
		ServiceName: inc.ServiceName,
		RegionID:    inc.RegionID,
		RegionName:  inc.RegionName,
		StartedAt:   millis(inc.StartedAt),
		LastError:   optional(inc.LastError),
		Duration:    incident.FormatDuration(inc.Elapsed(now)),
	}
	if !inc.IsOpen() {
		resolved := millis(inc.ResolvedAt)
		v.ResolvedAt = &resolved
	}
	return v
}
