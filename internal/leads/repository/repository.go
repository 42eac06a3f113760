// Package repository provides data access for leads.
package repository

import (
	"context"
	"errors"
	"time"

	"dialer_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLeadNotFound = errors.New("lead not found")

const leadColumns = `
	id, tenant_id, business_name, contact_name, phone, phone_match_key,
	email, address, city, industry, score, status, notes,
	last_contacted_at, created_at, updated_at`

// Repository provides data access for lead records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new leads repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateParams holds the fields for a new lead.
type CreateParams struct {
	TenantID      uuid.UUID
	BusinessName  string
	ContactName   string
	Phone         string
	PhoneMatchKey string
	Email         string
	Address       string
	City          string
	Industry      string
}

// Create inserts a new lead with status "new" and score "cold".
func (r *Repository) Create(ctx context.Context, params CreateParams) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (tenant_id, business_name, contact_name, phone, phone_match_key,
			email, address, city, industry, score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+leadColumns+`
	`, params.TenantID, params.BusinessName, params.ContactName, params.Phone,
		params.PhoneMatchKey, params.Email, params.Address, params.City,
		params.Industry, domain.ScoreCold, domain.StatusNew,
	).Scan(scanTargets(&lead)...)
	return lead, err
}

// GetByID retrieves a lead scoped to a tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID).Scan(scanTargets(&lead)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrLeadNotFound
	}
	return lead, err
}

// FindByMatchKey looks up a lead by its phone match key. The oldest match
// wins so repeated calls from the same number converge on one lead.
func (r *Repository) FindByMatchKey(ctx context.Context, tenantID uuid.UUID, matchKey string) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND phone_match_key = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, tenantID, matchKey).Scan(scanTargets(&lead)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrLeadNotFound
	}
	return lead, err
}

// ListFilter narrows the lead listing.
type ListFilter struct {
	Status string
	Score  string
	Limit  int
	Offset int
}

// List returns leads for a tenant, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]domain.Lead, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR score = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, tenantID, filter.Status, filter.Score, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(scanTargets(&lead)...); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// CallOutcomeParams holds the lead mutation derived from a finished call.
type CallOutcomeParams struct {
	Status          string
	Score           string
	Note            string
	LastContactedAt time.Time
}

// ApplyCallOutcome updates status, score and last contact time, and appends
// the note to the existing notes log. Notes are never overwritten.
func (r *Repository) ApplyCallOutcome(ctx context.Context, tenantID, leadID uuid.UUID, params CallOutcomeParams) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3,
			score = $4,
			notes = CASE WHEN notes = '' THEN $5 ELSE notes || E'\n\n' || $5 END,
			last_contacted_at = $6,
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID, params.Status, params.Score, params.Note, params.LastContactedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// SetStatus updates only the lead status (used by call dispositions).
func (r *Repository) SetStatus(ctx context.Context, tenantID, leadID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// MarkContacted stamps last_contacted_at without touching status or score.
func (r *Repository) MarkContacted(ctx context.Context, tenantID, leadID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET last_contacted_at = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID, at)
	return err
}

func scanTargets(lead *domain.Lead) []any {
	return []any{
		&lead.ID, &lead.TenantID, &lead.BusinessName, &lead.ContactName,
		&lead.Phone, &lead.PhoneMatchKey, &lead.Email, &lead.Address,
		&lead.City, &lead.Industry, &lead.Score, &lead.Status, &lead.Notes,
		&lead.LastContactedAt, &lead.CreatedAt, &lead.UpdatedAt,
	}
}
