package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/statuswatch/internal/core/domain"
	"github.com/vietddude/statuswatch/internal/infra/storage"
)

// UnitOfWork bundles the writes of one observation into a single database
// transaction, so a check is never stored without its incident change.
type UnitOfWork struct {
	tx *sqlx.Tx
}

// NewUnitOfWork creates a new unit of work with an active transaction.
func (db *DB) NewUnitOfWork(ctx context.Context) (*UnitOfWork, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &UnitOfWork{tx: tx}, nil
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("transaction already completed")
	}
	err := u.tx.Commit()
	u.tx = nil
	return err
}

// Rollback rolls back the transaction. Safe to call multiple times.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Already committed or rolled back
	}
	err := u.tx.Rollback()
	u.tx = nil
	return err
}

// InsertCheck appends a check and sets its ID.
func (u *UnitOfWork) InsertCheck(ctx context.Context, c *domain.Check) error {
	status, err := c.Status.MarshalText()
	if err != nil {
		return err
	}

	var id int64
	err = u.tx.QueryRowxContext(ctx, `
		INSERT INTO checks (checked_at, region_id, region_name, service_id, service_name,
			status, status_code, latency_ms, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		c.Timestamp, c.RegionID, c.RegionName, c.ServiceID, c.ServiceName,
		string(status), c.StatusCode, c.LatencyMs, nullString(c.Error),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}
	c.ID = id
	return nil
}

// Reset removes every incident and check so the ledger never refers to
// history that no longer exists. Used by the seeder only.
func (u *UnitOfWork) Reset(ctx context.Context) error {
	if _, err := u.tx.ExecContext(ctx, `DELETE FROM incidents`); err != nil {
		return fmt.Errorf("failed to delete incidents: %w", err)
	}
	if _, err := u.tx.ExecContext(ctx, `DELETE FROM checks`); err != nil {
		return fmt.Errorf("failed to delete checks: %w", err)
	}
	return nil
}

// OpenIncident inserts a new open incident. It returns nil when the service
// already has one.
func (u *UnitOfWork) OpenIncident(ctx context.Context, inc *domain.Incident) (*domain.Incident, error) {
	var row incidentRow
	err := u.tx.GetContext(ctx, &row, `
		INSERT INTO incidents (service_id, service_name, region_id, region_name, started_at, last_error)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (service_id) WHERE resolved_at IS NULL DO NOTHING
		RETURNING `+incidentColumns,
		inc.ServiceID, inc.ServiceName, inc.RegionID, inc.RegionName, inc.StartedAt, nullString(inc.LastError),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open incident: %w", err)
	}
	return row.toDomain(), nil
}

// RefreshIncident updates the last error of the service's open incident. It
// returns nil when no incident is open.
func (u *UnitOfWork) RefreshIncident(ctx context.Context, serviceID, lastError string) (*domain.Incident, error) {
	var row incidentRow
	err := u.tx.GetContext(ctx, &row, `
		UPDATE incidents SET last_error = $2
		WHERE service_id = $1 AND resolved_at IS NULL
		RETURNING `+incidentColumns,
		serviceID, nullString(lastError),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh incident: %w", err)
	}
	return row.toDomain(), nil
}

// ResolveIncident closes the service's open incident. It returns nil when no
// incident is open.
func (u *UnitOfWork) ResolveIncident(ctx context.Context, serviceID string, resolvedAt int64) (*domain.Incident, error) {
	var row incidentRow
	err := u.tx.GetContext(ctx, &row, `
		UPDATE incidents SET resolved_at = $2
		WHERE service_id = $1 AND resolved_at IS NULL
		RETURNING `+incidentColumns,
		serviceID, resolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve incident: %w", err)
	}
	return row.toDomain(), nil
}

// Apply applies an incident change and returns the change actually applied.
func (u *UnitOfWork) Apply(ctx context.Context, serviceID string, change domain.IncidentChange) (domain.IncidentChange, error) {
	if change.Incident == nil {
		return domain.NoChange, nil
	}

	var (
		inc *domain.Incident
		err error
	)
	kind := change.Kind

	switch change.Kind {
	case domain.ChangeOpen:
		inc, err = u.OpenIncident(ctx, change.Incident)
		if err == nil && inc == nil {
			// Already open: keep the existing row, carry the new error text.
			kind = domain.ChangeRefresh
			inc, err = u.RefreshIncident(ctx, serviceID, change.Incident.LastError)
		}
	case domain.ChangeRefresh:
		inc, err = u.RefreshIncident(ctx, serviceID, change.Incident.LastError)
	case domain.ChangeResolve:
		inc, err = u.ResolveIncident(ctx, serviceID, change.Incident.ResolvedAt)
	default:
		return domain.NoChange, nil
	}

	if err != nil {
		return domain.NoChange, err
	}
	if inc == nil {
		return domain.NoChange, nil
	}
	return domain.IncidentChange{Kind: kind, Incident: inc}, nil
}

// Store implements storage.Repository on PostgreSQL.
type Store struct {
	*CheckRepo
	*IncidentRepo
	db *DB
}

// NewStore creates the PostgreSQL-backed repository.
func NewStore(db *DB) *Store {
	return &Store{
		CheckRepo:    NewCheckRepo(db),
		IncidentRepo: NewIncidentRepo(db),
		db:           db,
	}
}

// Health checks if the database is reachable.
func (s *Store) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

// Record stores the check and applies the incident change in one transaction.
func (s *Store) Record(
	ctx context.Context,
	check *domain.Check,
	change domain.IncidentChange,
) (domain.IncidentChange, error) {
	if err := storage.ValidateCheck(check); err != nil {
		return domain.NoChange, err
	}
	defer observe("record", time.Now())

	uow, err := s.db.NewUnitOfWork(ctx)
	if err != nil {
		return domain.NoChange, err
	}
	defer func() { _ = uow.Rollback() }()

	applied, err := uow.Apply(ctx, check.ServiceID, change)
	if err != nil {
		return domain.NoChange, err
	}
	if err := uow.InsertCheck(ctx, check); err != nil {
		return domain.NoChange, err
	}
	if err := uow.Commit(); err != nil {
		check.ID = 0
		return domain.NoChange, fmt.Errorf("failed to commit: %w", err)
	}
	return applied, nil
}

var _ storage.Repository = (*Store)(nil)
