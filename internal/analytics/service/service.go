// Package service implements the analytics rollup logic.
package service

import (
	"context"
	"time"

	"dialer_backend/internal/analytics/domain"
	"dialer_backend/internal/analytics/repository"
	"dialer_backend/internal/voice"
	"dialer_backend/platform/apperr"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the analytics persistence interface. Satisfied by
// *repository.Repository.
type Store interface {
	Increment(ctx context.Context, params repository.IncrementParams) error
	Range(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.DailyStats, error)
	TenantTimezone(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// Service aggregates call outcomes into daily per-tenant rollups.
type Service struct {
	store Store
	log   *logger.Logger

	now func() time.Time
}

// NewService creates a new analytics service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Outcome describes one terminal call for rollup purposes.
type Outcome struct {
	TenantID        uuid.UUID
	Status          string
	DurationSeconds int
	MeetingBooked   bool
}

// RecordOutcome folds a terminal call into today's rollup. "Today" is the
// tenant's local calendar date, the same day boundary the dialer uses for
// its volume limit. Callers must guard against double counting; the
// increment itself is blind.
func (s *Service) RecordOutcome(ctx context.Context, outcome Outcome) error {
	params := repository.IncrementParams{
		TenantID:        outcome.TenantID,
		Day:             s.now().In(s.tenantLocation(ctx, outcome.TenantID)),
		CallsMade:       1,
		DurationSeconds: outcome.DurationSeconds,
	}
	if outcome.DurationSeconds > domain.ConnectedThresholdSeconds {
		params.CallsConnected = 1
	}
	switch outcome.Status {
	case voice.StatusCompleted:
		params.CallsCompleted = 1
	case voice.StatusFailed:
		params.CallsFailed = 1
	}
	if outcome.MeetingBooked {
		params.MeetingsBooked = 1
	}
	return s.store.Increment(ctx, params)
}

// tenantLocation loads the tenant's configured timezone, falling back to
// UTC when the tenant has none or the name does not parse.
func (s *Service) tenantLocation(ctx context.Context, tenantID uuid.UUID) *time.Location {
	timezone, err := s.store.TenantTimezone(ctx, tenantID)
	if err != nil {
		s.log.Warn("failed to load tenant timezone, using UTC", "error", err, "tenantId", tenantID)
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		s.log.Warn("invalid tenant timezone, using UTC", "tenantId", tenantID, "timezone", timezone)
		return time.UTC
	}
	return loc
}

// Daily returns the tenant's rollups for the range. Zero from/to default
// to the trailing 30 days ending today.
func (s *Service) Daily(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.DailyStats, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if from.After(to) {
		return nil, apperr.Validation("from must not be after to")
	}
	return s.store.Range(ctx, tenantID, from, to)
}
