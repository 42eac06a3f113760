package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads tenant notification settings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new notification repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NotificationEmail returns the tenant's notification address, empty when
// the tenant has none configured.
func (r *Repository) NotificationEmail(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(notification_email, '') FROM tenants WHERE id = $1
	`, tenantID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return email, err
}
