package storage

import (
	"context"
	"errors"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

var (
	// ErrIncidentNotFound is returned when no incident matches a lookup
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrInvalidCheck is returned when a check is missing required fields
	ErrInvalidCheck = errors.New("invalid check")
)

// CheckRepository handles check reads. Checks are append-only and are written
// through Recorder only.
type CheckRepository interface {
	// GetLatest retrieves the latest check of a service, nil if it has none
	GetLatest(ctx context.Context, serviceID string) (*domain.Check, error)

	// GetLatestAll retrieves the latest check of every service, ordered by
	// region name then service name. Ties on timestamp go to the highest ID.
	GetLatestAll(ctx context.Context) ([]*domain.Check, error)

	// GetHistory retrieves checks with timestamp >= since, at most limit per
	// service (the most recent ones), ascending by timestamp, keyed by service ID
	GetHistory(ctx context.Context, since int64, limit int) (map[string][]*domain.Check, error)
}

// IncidentRepository handles incident reads.
type IncidentRepository interface {
	// GetOpen retrieves the open incident of a service, nil if there is none
	GetOpen(ctx context.Context, serviceID string) (*domain.Incident, error)

	// GetAllOpen retrieves every open incident
	GetAllOpen(ctx context.Context) ([]*domain.Incident, error)

	// GetRecent retrieves up to limit incidents, open ones first, then by
	// start time descending
	GetRecent(ctx context.Context, limit int) ([]*domain.Incident, error)
}

// Recorder persists one observation as a single unit of work.
type Recorder interface {
	// Record appends the check (setting its ID) and applies the incident change
	// atomically. It returns the change that was actually applied:
	//   - ChangeOpen when an incident is already open degrades to ChangeRefresh
	//   - ChangeRefresh / ChangeResolve with no open incident degrade to ChangeNone
	// The returned change carries the persisted incident row.
	Record(ctx context.Context, check *domain.Check, change domain.IncidentChange) (domain.IncidentChange, error)
}

// Repository is the full storage surface used by the engine and the aggregator.
type Repository interface {
	CheckRepository
	IncidentRepository
	Recorder

	// Health checks that the backing store is reachable
	Health(ctx context.Context) error
}

// ValidateCheck checks the fields every stored check must have.
func ValidateCheck(c *domain.Check) error {
	switch {
	case c == nil:
		return ErrInvalidCheck
	case c.ServiceID == "":
		return errors.Join(ErrInvalidCheck, errors.New("empty service id"))
	case !c.Status.Valid():
		return errors.Join(ErrInvalidCheck, domain.ErrUnknownStatus)
	case c.LatencyMs < 0:
		return errors.Join(ErrInvalidCheck, errors.New("negative latency"))
	}
	return nil
}
