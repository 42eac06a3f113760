// Package repository provides data access for call records.
package repository

import (
	"context"
	"errors"
	"time"

	"dialer_backend/internal/calls/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCallNotFound         = errors.New("call record not found")
	ErrAlreadyDispositioned = errors.New("call already dispositioned")
)

const callColumns = `
	id, tenant_id, provider_call_id, lead_id, campaign_id, direction, status,
	from_number, to_number, duration_seconds, transcript, summary, sentiment,
	meeting_booked, recording_url, recording_key, disposition, dispositioned_at,
	started_at, ended_at, created_at, updated_at`

// Repository provides data access for call records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new calls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateParams holds the fields for a freshly initiated call.
type CreateParams struct {
	TenantID       uuid.UUID
	ProviderCallID string
	LeadID         *uuid.UUID
	CampaignID     string
	Direction      string
	Status         string
	FromNumber     string
	ToNumber       string
}

// Create inserts the record for a call this service initiated.
func (r *Repository) Create(ctx context.Context, params CreateParams) (domain.Call, error) {
	var call domain.Call
	err := r.pool.QueryRow(ctx, `
		INSERT INTO calls (tenant_id, provider_call_id, lead_id, campaign_id,
			direction, status, from_number, to_number, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING `+callColumns+`
	`, params.TenantID, params.ProviderCallID, params.LeadID, params.CampaignID,
		params.Direction, params.Status, params.FromNumber, params.ToNumber,
	).Scan(scanTargets(&call)...)
	return call, err
}

// UpsertParams carries the fields reconciled from a provider event. The
// upsert is idempotent: replaying the same event leaves the row unchanged.
type UpsertParams struct {
	TenantID        uuid.UUID
	ProviderCallID  string
	LeadID          *uuid.UUID
	CampaignID      string
	Direction       string
	Status          string
	FromNumber      string
	ToNumber        string
	DurationSeconds int
	Transcript      string
	Summary         string
	Sentiment       string
	MeetingBooked   bool
	RecordingURL    string
	EndedAt         *time.Time
}

// UpsertFromEvent writes a provider event into the call record keyed by the
// provider call id. Status never moves backwards: a terminal status sticks,
// and a connected call is not demoted by a late ringing signal. Enrichment
// fields only grow (longest duration, non-empty text wins).
func (r *Repository) UpsertFromEvent(ctx context.Context, params UpsertParams) (domain.Call, error) {
	var call domain.Call
	err := r.pool.QueryRow(ctx, `
		INSERT INTO calls (tenant_id, provider_call_id, lead_id, campaign_id,
			direction, status, from_number, to_number, duration_seconds,
			transcript, summary, sentiment, meeting_booked, recording_url,
			started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), $15)
		ON CONFLICT (provider_call_id) DO UPDATE SET
			lead_id = COALESCE(calls.lead_id, EXCLUDED.lead_id),
			campaign_id = CASE WHEN calls.campaign_id = '' THEN EXCLUDED.campaign_id ELSE calls.campaign_id END,
			status = CASE
				WHEN calls.status IN ('completed', 'no_answer', 'voicemail', 'failed') THEN calls.status
				WHEN calls.status = 'in_progress' AND EXCLUDED.status IN ('pending', 'ringing') THEN calls.status
				ELSE EXCLUDED.status
			END,
			from_number = CASE WHEN calls.from_number = '' THEN EXCLUDED.from_number ELSE calls.from_number END,
			to_number = CASE WHEN calls.to_number = '' THEN EXCLUDED.to_number ELSE calls.to_number END,
			duration_seconds = GREATEST(calls.duration_seconds, EXCLUDED.duration_seconds),
			transcript = CASE WHEN EXCLUDED.transcript <> '' THEN EXCLUDED.transcript ELSE calls.transcript END,
			summary = CASE WHEN EXCLUDED.summary <> '' THEN EXCLUDED.summary ELSE calls.summary END,
			sentiment = CASE WHEN EXCLUDED.sentiment <> '' THEN EXCLUDED.sentiment ELSE calls.sentiment END,
			meeting_booked = calls.meeting_booked OR EXCLUDED.meeting_booked,
			recording_url = CASE WHEN EXCLUDED.recording_url <> '' THEN EXCLUDED.recording_url ELSE calls.recording_url END,
			ended_at = COALESCE(calls.ended_at, EXCLUDED.ended_at),
			updated_at = NOW()
		RETURNING `+callColumns+`
	`, params.TenantID, params.ProviderCallID, params.LeadID, params.CampaignID,
		params.Direction, params.Status, params.FromNumber, params.ToNumber,
		params.DurationSeconds, params.Transcript, params.Summary, params.Sentiment,
		params.MeetingBooked, params.RecordingURL, params.EndedAt,
	).Scan(scanTargets(&call)...)
	return call, err
}

// ClaimAnalytics atomically claims the single analytics increment for a
// terminal call. The first caller gets true; replays get false.
func (r *Repository) ClaimAnalytics(ctx context.Context, providerCallID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calls
		SET analytics_recorded = true, updated_at = NOW()
		WHERE provider_call_id = $1
			AND analytics_recorded = false
			AND status IN ('completed', 'no_answer', 'voicemail', 'failed')
	`, providerCallID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a call by record id, scoped to a tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, callID uuid.UUID) (domain.Call, error) {
	var call domain.Call
	err := r.pool.QueryRow(ctx, `
		SELECT `+callColumns+`
		FROM calls
		WHERE id = $1 AND tenant_id = $2
	`, callID, tenantID).Scan(scanTargets(&call)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Call{}, ErrCallNotFound
	}
	return call, err
}

// GetByProviderID retrieves a call by provider call id, scoped to a tenant.
func (r *Repository) GetByProviderID(ctx context.Context, tenantID uuid.UUID, providerCallID string) (domain.Call, error) {
	var call domain.Call
	err := r.pool.QueryRow(ctx, `
		SELECT `+callColumns+`
		FROM calls
		WHERE provider_call_id = $1 AND tenant_id = $2
	`, providerCallID, tenantID).Scan(scanTargets(&call)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Call{}, ErrCallNotFound
	}
	return call, err
}

// MarkEnded completes a live call. Returns false when the call was already
// terminal so callers can treat a repeated hangup as a no-op.
func (r *Repository) MarkEnded(ctx context.Context, tenantID uuid.UUID, providerCallID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calls
		SET status = 'completed', ended_at = NOW(), updated_at = NOW()
		WHERE provider_call_id = $1 AND tenant_id = $2
			AND status NOT IN ('completed', 'no_answer', 'voicemail', 'failed')
	`, providerCallID, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetDisposition records the agent's outcome exactly once. The
// dispositioned_at guard makes a second disposition fail with
// ErrAlreadyDispositioned instead of silently overwriting the first.
func (r *Repository) SetDisposition(ctx context.Context, tenantID uuid.UUID, providerCallID, disposition, status string, meetingBooked bool) (domain.Call, error) {
	var call domain.Call
	err := r.pool.QueryRow(ctx, `
		UPDATE calls
		SET disposition = $3,
			dispositioned_at = NOW(),
			status = $4,
			meeting_booked = meeting_booked OR $5,
			ended_at = COALESCE(ended_at, NOW()),
			updated_at = NOW()
		WHERE provider_call_id = $1 AND tenant_id = $2 AND dispositioned_at IS NULL
		RETURNING `+callColumns+`
	`, providerCallID, tenantID, disposition, status, meetingBooked).Scan(scanTargets(&call)...)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish missing from already-dispositioned.
		if _, getErr := r.GetByProviderID(ctx, tenantID, providerCallID); getErr == nil {
			return domain.Call{}, ErrAlreadyDispositioned
		}
		return domain.Call{}, ErrCallNotFound
	}
	return call, err
}

// SetRecordingKey stores the archived recording's object key.
func (r *Repository) SetRecordingKey(ctx context.Context, providerCallID, recordingKey string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE calls
		SET recording_key = $2, updated_at = NOW()
		WHERE provider_call_id = $1
	`, providerCallID, recordingKey)
	return err
}

// SweepStale fails calls stuck in a live status beyond the bound. Returns
// the provider call ids that were failed.
func (r *Repository) SweepStale(ctx context.Context, bound time.Duration) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE calls
		SET status = 'failed', ended_at = NOW(), updated_at = NOW()
		WHERE status IN ('pending', 'ringing', 'in_progress')
			AND created_at < NOW() - $1::interval
		RETURNING provider_call_id
	`, bound.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swept []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		swept = append(swept, id)
	}
	return swept, rows.Err()
}

// CountOutboundSince counts the tenant's outbound calls created at or after
// the given instant. Used for the dialer's daily limit.
func (r *Repository) CountOutboundSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM calls
		WHERE tenant_id = $1 AND direction = 'outbound' AND created_at >= $2
	`, tenantID, since).Scan(&count)
	return count, err
}

func scanTargets(call *domain.Call) []any {
	return []any{
		&call.ID, &call.TenantID, &call.ProviderCallID, &call.LeadID,
		&call.CampaignID, &call.Direction, &call.Status, &call.FromNumber,
		&call.ToNumber, &call.DurationSeconds, &call.Transcript, &call.Summary,
		&call.Sentiment, &call.MeetingBooked, &call.RecordingURL,
		&call.RecordingKey, &call.Disposition, &call.DispositionedAt,
		&call.StartedAt, &call.EndedAt, &call.CreatedAt, &call.UpdatedAt,
	}
}
