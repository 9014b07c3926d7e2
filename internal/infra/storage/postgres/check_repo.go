package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/statuswatch/internal/core/domain"
)

// CheckRepo implements storage.CheckRepository using PostgreSQL.
type CheckRepo struct {
	db *DB
}

// NewCheckRepo creates a new PostgreSQL check repository.
func NewCheckRepo(db *DB) *CheckRepo {
	return &CheckRepo{db: db}
}

// GetLatest retrieves the latest check of a service.
func (r *CheckRepo) GetLatest(ctx context.Context, serviceID string) (*domain.Check, error) {
	defer observe("get_latest_check", time.Now())

	var row checkRow
	err := r.db.GetContext(ctx, &row, `
		SELECT `+checkColumns+`
		FROM checks
		WHERE service_id = $1
		ORDER BY checked_at DESC, id DESC
		LIMIT 1`, serviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest check: %w", err)
	}
	return row.toDomain()
}

// GetLatestAll retrieves the latest check of every service in one query.
func (r *CheckRepo) GetLatestAll(ctx context.Context) ([]*domain.Check, error) {
	defer observe("get_latest_all_checks", time.Now())

	var rows []checkRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM (
			SELECT DISTINCT ON (service_id) `+checkColumns+`
			FROM checks
			ORDER BY service_id, checked_at DESC, id DESC
		) latest
		ORDER BY region_name, service_name, service_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest checks: %w", err)
	}

	checks := make([]*domain.Check, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode check %d: %w", row.ID, err)
		}
		checks = append(checks, c)
	}
	return checks, nil
}

// GetHistory retrieves the most recent checks per service since the given time.
func (r *CheckRepo) GetHistory(
	ctx context.Context,
	since int64,
	limit int,
) (map[string][]*domain.Check, error) {
	defer observe("get_check_history", time.Now())

	var rows []checkRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+checkColumns+` FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY service_id ORDER BY checked_at DESC, id DESC
			) AS rn
			FROM checks
			WHERE checked_at >= $1
		) ranked
		WHERE $2 <= 0 OR rn <= $2
		ORDER BY service_id, checked_at ASC, id ASC`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get check history: %w", err)
	}

	history := make(map[string][]*domain.Check)
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode check %d: %w", row.ID, err)
		}
		history[c.ServiceID] = append(history[c.ServiceID], c)
	}
	return history, nil
}
