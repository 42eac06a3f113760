package webhook

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTenantNotResolved means no tenant owns the event's agent or number.
var ErrTenantNotResolved = errors.New("tenant not resolved")

// Repository resolves which tenant owns a provider agent or phone number.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ResolveTenant looks up the tenant owning the agent id, falling back to
// the provider phone number. Returns ErrTenantNotResolved when neither
// matches: the event belongs to nobody we know.
func (r *Repository) ResolveTenant(ctx context.Context, agentID, number string) (uuid.UUID, error) {
	var tenantID uuid.UUID
	if agentID != "" {
		err := r.pool.QueryRow(ctx, `
			SELECT tenant_id FROM tenant_agents WHERE provider_agent_id = $1
		`, agentID).Scan(&tenantID)
		if err == nil {
			return tenantID, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
	}

	if number != "" {
		err := r.pool.QueryRow(ctx, `
			SELECT tenant_id FROM tenant_agents WHERE provider_number = $1
		`, number).Scan(&tenantID)
		if err == nil {
			return tenantID, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
	}

	return uuid.Nil, ErrTenantNotResolved
}
