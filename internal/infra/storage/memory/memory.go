package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/statuswatch/internal/core/domain"
	"github.com/vietddude/statuswatch/internal/infra/storage"
)

// MemoryStorage is a process-local storage.Repository. It is used when no
// database is configured and in tests.
type MemoryStorage struct {
	checks         []*domain.Check
	incidents      []*domain.Incident
	nextCheckID    int64
	nextIncidentID int64
	mu             sync.RWMutex
}

var _ storage.Repository = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Health(ctx context.Context) error {
	return nil
}

// -----------------------------------------------------------------------------
// Checks
// -----------------------------------------------------------------------------

func (s *MemoryStorage) GetLatest(ctx context.Context, serviceID string) (*domain.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Check
	for _, c := range s.checks {
		if c.ServiceID == serviceID && c.Newer(latest) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStorage) GetLatestAll(ctx context.Context) ([]*domain.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]*domain.Check)
	for _, c := range s.checks {
		if c.Newer(latest[c.ServiceID]) {
			latest[c.ServiceID] = c
		}
	}

	result := make([]*domain.Check, 0, len(latest))
	for _, c := range latest {
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.RegionName != b.RegionName {
			return a.RegionName < b.RegionName
		}
		if a.ServiceName != b.ServiceName {
			return a.ServiceName < b.ServiceName
		}
		return a.ServiceID < b.ServiceID
	})
	return result, nil
}

func (s *MemoryStorage) GetHistory(ctx context.Context, since int64, limit int) (map[string][]*domain.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make(map[string][]*domain.Check)
	for _, c := range s.checks {
		if c.Timestamp < since {
			continue
		}
		cp := *c
		history[c.ServiceID] = append(history[c.ServiceID], &cp)
	}

	for id, xs := range history {
		sort.Slice(xs, func(i, j int) bool { return xs[j].Newer(xs[i]) })
		if limit > 0 && len(xs) > limit {
			xs = xs[len(xs)-limit:]
		}
		history[id] = xs
	}
	return history, nil
}

// -----------------------------------------------------------------------------
// Incidents
// -----------------------------------------------------------------------------

func (s *MemoryStorage) GetOpen(ctx context.Context, serviceID string) (*domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inc := s.openLocked(serviceID); inc != nil {
		cp := *inc
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStorage) GetAllOpen(ctx context.Context) ([]*domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Incident
	for _, inc := range s.incidents {
		if inc.IsOpen() {
			cp := *inc
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *MemoryStorage) GetRecent(ctx context.Context, limit int) ([]*domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		cp := *inc
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.IsOpen() != b.IsOpen() {
			return a.IsOpen()
		}
		if a.StartedAt != b.StartedAt {
			return a.StartedAt > b.StartedAt
		}
		return a.ID > b.ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// -----------------------------------------------------------------------------
// Unit of work
// -----------------------------------------------------------------------------

func (s *MemoryStorage) Record(
	ctx context.Context,
	check *domain.Check,
	change domain.IncidentChange,
) (domain.IncidentChange, error) {
	if err := storage.ValidateCheck(check); err != nil {
		return domain.NoChange, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.applyLocked(check, change)

	s.nextCheckID++
	stored := *check
	stored.ID = s.nextCheckID
	s.checks = append(s.checks, &stored)
	check.ID = stored.ID

	return applied, nil
}

func (s *MemoryStorage) applyLocked(check *domain.Check, change domain.IncidentChange) domain.IncidentChange {
	if change.Incident == nil {
		return domain.NoChange
	}
	open := s.openLocked(check.ServiceID)

	switch change.Kind {
	case domain.ChangeOpen:
		if open != nil {
			open.LastError = change.Incident.LastError
			cp := *open
			return domain.IncidentChange{Kind: domain.ChangeRefresh, Incident: &cp}
		}
		s.nextIncidentID++
		inc := *change.Incident
		inc.ID = s.nextIncidentID
		inc.ResolvedAt = 0
		s.incidents = append(s.incidents, &inc)
		cp := inc
		return domain.IncidentChange{Kind: domain.ChangeOpen, Incident: &cp}

	case domain.ChangeRefresh:
		if open == nil {
			return domain.NoChange
		}
		open.LastError = change.Incident.LastError
		cp := *open
		return domain.IncidentChange{Kind: domain.ChangeRefresh, Incident: &cp}

	case domain.ChangeResolve:
		if open == nil {
			return domain.NoChange
		}
		open.ResolvedAt = change.Incident.ResolvedAt
		cp := *open
		return domain.IncidentChange{Kind: domain.ChangeResolve, Incident: &cp}
	}

	return domain.NoChange
}

func (s *MemoryStorage) openLocked(serviceID string) *domain.Incident {
	for _, inc := range s.incidents {
		if inc.ServiceID == serviceID && inc.IsOpen() {
			return inc
		}
	}
	return nil
}
