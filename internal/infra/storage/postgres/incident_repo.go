package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

// IncidentRepo implements storage.IncidentRepository using PostgreSQL.
type IncidentRepo struct {
	db *DB
}

// NewIncidentRepo creates a new PostgreSQL incident repository.
func NewIncidentRepo(db *DB) *IncidentRepo {
	return &IncidentRepo{db: db}
}

// GetOpen retrieves the open incident of a service.
func (r *IncidentRepo) GetOpen(ctx context.Context, serviceID string) (*domain.Incident, error) {
	defer observe("get_open_incident", time.Now())

	var row incidentRow
	err := r.db.GetContext(ctx, &row, `
		SELECT `+incidentColumns+`
		FROM incidents
		WHERE service_id = $1 AND resolved_at IS NULL`, serviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open incident: %w", err)
	}
	return row.toDomain(), nil
}

// GetAllOpen retrieves every open incident.
func (r *IncidentRepo) GetAllOpen(ctx context.Context) ([]*domain.Incident, error) {
	defer observe("get_all_open_incidents", time.Now())

	var rows []incidentRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+incidentColumns+`
		FROM incidents
		WHERE resolved_at IS NULL
		ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get open incidents: %w", err)
	}
	return toIncidents(rows), nil
}

// GetRecent retrieves recent incidents, open ones first.
func (r *IncidentRepo) GetRecent(ctx context.Context, limit int) ([]*domain.Incident, error) {
	defer observe("get_recent_incidents", time.Now())

	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		ORDER BY (resolved_at IS NULL) DESC, started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []incidentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get recent incidents: %w", err)
	}
	return toIncidents(rows), nil
}

func toIncidents(rows []incidentRow) []*domain.Incident {
	incidents := make([]*domain.Incident, 0, len(rows))
	for _, row := range rows {
		incidents = append(incidents, row.toDomain())
	}
	return incidents
}
