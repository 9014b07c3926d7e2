package postgres

import (
	"database/sql"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

type checkRow struct {
	ID          int64          `db:"id"`
	CheckedAt   int64          `db:"checked_at"`
	RegionID    string         `db:"region_id"`
	RegionName  string         `db:"region_name"`
	ServiceID   string         `db:"service_id"`
	ServiceName string         `db:"service_name"`
	Status      string         `db:"status"`
	StatusCode  int            `db:"status_code"`
	LatencyMs   int64          `db:"latency_ms"`
	Error       sql.NullString `db:"error"`
}

func (r checkRow) toDomain() (*domain.Check, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	return &domain.Check{
		ID:          r.ID,
		Timestamp:   r.CheckedAt,
		RegionID:    r.RegionID,
		RegionName:  r.RegionName,
		ServiceID:   r.ServiceID,
		ServiceName: r.ServiceName,
		Status:      status,
		StatusCode:  r.StatusCode,
		LatencyMs:   r.LatencyMs,
		Error:       r.Error.String,
	}, nil
}

type incidentRow struct {
	ID          int64          `db:"id"`
	ServiceID   string         `db:"service_id"`
	ServiceName string         `db:"service_name"`
	RegionID    string         `db:"region_id"`
	RegionName  string         `db:"region_name"`
	StartedAt   int64          `db:"started_at"`
	ResolvedAt  sql.NullInt64  `db:"resolved_at"`
	LastError   sql.NullString `db:"last_error"`
}

func (r incidentRow) toDomain() *domain.Incident {
	return &domain.Incident{
		ID:          r.ID,
		ServiceID:   r.ServiceID,
		ServiceName: r.ServiceName,
		RegionID:    r.RegionID,
		RegionName:  r.RegionName,
		StartedAt:   r.StartedAt,
		ResolvedAt:  r.ResolvedAt.Int64,
		LastError:   r.LastError.String,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const checkColumns = `id, checked_at, region_id, region_name, service_id, service_name,
	status, status_code, latency_ms, error`

const incidentColumns = `id, service_id, service_name, region_id, region_name,
	started_at, resolved_at, last_error`
