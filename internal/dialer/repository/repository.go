// Package repository provides data access for per-tenant dialer settings
// and batch lead selection.
package repository

import (
	"context"
	"errors"

	leaddomain "dialer_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings are one tenant's dialer knobs. Rows are per tenant so limits
// are configuration, not code constants.
type Settings struct {
	TenantID           uuid.UUID
	Enabled            bool
	Timezone           string
	DailyCallLimit     int
	BatchSize          int
	PacingSeconds      int
	WorkingHoursStart  int
	WorkingHoursEnd    int
	ExcludedWeekdays   []int
	MaxAttemptsPerLead int
}

// DefaultSettings apply to tenants without a settings row.
func DefaultSettings(tenantID uuid.UUID) Settings {
	return Settings{
		TenantID:           tenantID,
		Enabled:            false,
		Timezone:           "UTC",
		DailyCallLimit:     100,
		BatchSize:          10,
		PacingSeconds:      30,
		WorkingHoursStart:  9,
		WorkingHoursEnd:    18,
		ExcludedWeekdays:   []int{0, 6},
		MaxAttemptsPerLead: 3,
	}
}

// Repository provides data access for dialer runs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new dialer repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSettings returns the tenant's dialer settings, falling back to the
// disabled defaults when no row exists.
func (r *Repository) GetSettings(ctx context.Context, tenantID uuid.UUID) (Settings, error) {
	settings := Settings{TenantID: tenantID}
	err := r.pool.QueryRow(ctx, `
		SELECT enabled, timezone, daily_call_limit, batch_size, pacing_seconds,
			working_hours_start, working_hours_end, excluded_weekdays,
			max_attempts_per_lead
		FROM dialer_settings
		WHERE tenant_id = $1
	`, tenantID).Scan(&settings.Enabled, &settings.Timezone, &settings.DailyCallLimit,
		&settings.BatchSize, &settings.PacingSeconds, &settings.WorkingHoursStart,
		&settings.WorkingHoursEnd, &settings.ExcludedWeekdays, &settings.MaxAttemptsPerLead)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSettings(tenantID), nil
	}
	return settings, err
}

// ListEnabledTenants returns every tenant with dialing switched on.
func (r *Repository) ListEnabledTenants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tenant_id FROM dialer_settings WHERE enabled = true
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []uuid.UUID
	for rows.Next() {
		var tenantID uuid.UUID
		if err := rows.Scan(&tenantID); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenantID)
	}
	return tenants, rows.Err()
}

// SelectCallableLeads picks the batch for one run: callable statuses,
// oldest first, excluding leads that already hit the attempt cap. The cap
// counts historical call records, so unreachable numbers age out.
func (r *Repository) SelectCallableLeads(ctx context.Context, tenantID uuid.UUID, limit, maxAttempts int) ([]leaddomain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contact_name, business_name, phone
		FROM leads
		WHERE tenant_id = $1
			AND status = ANY($2)
			AND phone <> ''
			AND (SELECT COUNT(*) FROM calls WHERE calls.lead_id = leads.id) < $3
		ORDER BY created_at ASC
		LIMIT $4
	`, tenantID, leaddomain.CallableStatuses(), maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []leaddomain.Lead
	for rows.Next() {
		lead := leaddomain.Lead{TenantID: tenantID}
		if err := rows.Scan(&lead.ID, &lead.ContactName, &lead.BusinessName, &lead.Phone); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
