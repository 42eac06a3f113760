// Package repository provides data access for daily call analytics rollups.
package repository

import (
	"context"
	"errors"
	"time"

	"dialer_backend/internal/analytics/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides data access for the call_analytics rollup table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// IncrementParams is one additive delta for a tenant's daily rollup.
type IncrementParams struct {
	TenantID        uuid.UUID
	Day             time.Time
	CallsMade       int
	CallsConnected  int
	CallsCompleted  int
	CallsFailed     int
	MeetingsBooked  int
	DurationSeconds int
}

// Increment applies an additive delta to the tenant's rollup row for the
// day, creating the row on first touch. Deltas are additive so concurrent
// workers never lose updates.
func (r *Repository) Increment(ctx context.Context, params IncrementParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO call_analytics (tenant_id, day, calls_made, calls_connected,
			calls_completed, calls_failed, meetings_booked, total_duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, day) DO UPDATE SET
			calls_made = call_analytics.calls_made + EXCLUDED.calls_made,
			calls_connected = call_analytics.calls_connected + EXCLUDED.calls_connected,
			calls_completed = call_analytics.calls_completed + EXCLUDED.calls_completed,
			calls_failed = call_analytics.calls_failed + EXCLUDED.calls_failed,
			meetings_booked = call_analytics.meetings_booked + EXCLUDED.meetings_booked,
			total_duration_seconds = call_analytics.total_duration_seconds + EXCLUDED.total_duration_seconds,
			updated_at = NOW()
	`, params.TenantID, params.Day.Format("2006-01-02"), params.CallsMade,
		params.CallsConnected, params.CallsCompleted, params.CallsFailed,
		params.MeetingsBooked, params.DurationSeconds)
	return err
}

// TenantTimezone returns the tenant's configured timezone. Tenants
// without a dialer settings row default to UTC.
func (r *Repository) TenantTimezone(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var timezone string
	err := r.pool.QueryRow(ctx, `
		SELECT timezone FROM dialer_settings WHERE tenant_id = $1
	`, tenantID).Scan(&timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return "UTC", nil
	}
	return timezone, err
}

// Range returns the tenant's daily rollups between from and to inclusive,
// oldest first. Days without activity have no row.
func (r *Repository) Range(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.DailyStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, calls_made, calls_connected, calls_completed, calls_failed,
			meetings_booked, total_duration_seconds
		FROM call_analytics
		WHERE tenant_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day ASC
	`, tenantID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.DailyStats
	for rows.Next() {
		var day domain.DailyStats
		if err := rows.Scan(&day.Day, &day.CallsMade, &day.CallsConnected,
			&day.CallsCompleted, &day.CallsFailed, &day.MeetingsBooked,
			&day.TotalDurationSeconds); err != nil {
			return nil, err
		}
		stats = append(stats, day)
	}
	return stats, rows.Err()
}
