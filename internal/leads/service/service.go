// Package service implements lead resolution and read operations.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dialer_backend/internal/leads/domain"
	"dialer_backend/internal/leads/repository"
	"dialer_backend/platform/apperr"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the lead persistence interface. Satisfied by *repository.Repository.
type Store interface {
	Create(ctx context.Context, params repository.CreateParams) (domain.Lead, error)
	GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error)
	FindByMatchKey(ctx context.Context, tenantID uuid.UUID, matchKey string) (domain.Lead, error)
	List(ctx context.Context, tenantID uuid.UUID, filter repository.ListFilter) ([]domain.Lead, error)
	ApplyCallOutcome(ctx context.Context, tenantID, leadID uuid.UUID, params repository.CallOutcomeParams) error
	SetStatus(ctx context.Context, tenantID, leadID uuid.UUID, status string) error
	MarkContacted(ctx context.Context, tenantID, leadID uuid.UUID, at time.Time) error
}

// Identity is the fragment of caller identity extracted from a call event.
type Identity struct {
	ContactName  string
	BusinessName string
	Phone        string
	Email        string
	Address      string
	City         string
	Industry     string
}

// HasSignal reports whether the identity carries enough to create a lead.
func (i Identity) HasSignal() bool {
	return i.ContactName != "" || i.BusinessName != "" || i.Phone != ""
}

// Service resolves and reads leads.
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService creates a new leads service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// ResolveOrCreate finds the lead matching the caller's phone number, or
// creates a new one. Matching uses the digits-only key so formatting
// differences never produce duplicates. When no phone is present a new
// lead is always created rather than guessing a match.
func (s *Service) ResolveOrCreate(ctx context.Context, tenantID uuid.UUID, identity Identity) (domain.Lead, bool, error) {
	normalized := phone.NormalizeE164(identity.Phone)
	matchKey := phone.MatchKey(normalized)

	if matchKey != "" {
		lead, err := s.store.FindByMatchKey(ctx, tenantID, matchKey)
		if err == nil {
			return lead, false, nil
		}
		if !errors.Is(err, repository.ErrLeadNotFound) {
			return domain.Lead{}, false, err
		}
	}

	lead, err := s.store.Create(ctx, repository.CreateParams{
		TenantID:      tenantID,
		BusinessName:  strings.TrimSpace(identity.BusinessName),
		ContactName:   strings.TrimSpace(identity.ContactName),
		Phone:         normalized,
		PhoneMatchKey: matchKey,
		Email:         strings.TrimSpace(identity.Email),
		Address:       strings.TrimSpace(identity.Address),
		City:          strings.TrimSpace(identity.City),
		Industry:      strings.TrimSpace(identity.Industry),
	})
	if err != nil {
		return domain.Lead{}, false, err
	}

	s.log.Info("lead created from call", "leadId", lead.ID, "tenantId", tenantID)
	return lead, true, nil
}

// Get returns a single lead.
func (s *Service) Get(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, tenantID, leadID)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, err
}

// GetByID returns a lead without wrapping the not-found error; used by
// internal callers that handle the sentinel themselves.
func (s *Service) GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	return s.store.GetByID(ctx, tenantID, leadID)
}

// List returns leads matching the filter.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter repository.ListFilter) ([]domain.Lead, error) {
	if filter.Status != "" && !domain.IsKnownStatus(filter.Status) {
		return nil, apperr.Validation("unknown lead status")
	}
	if filter.Score != "" && !domain.IsKnownScore(filter.Score) {
		return nil, apperr.Validation("unknown lead score")
	}
	return s.store.List(ctx, tenantID, filter)
}

// ApplyCallOutcome persists the post-call mutation on a lead.
func (s *Service) ApplyCallOutcome(ctx context.Context, tenantID, leadID uuid.UUID, params repository.CallOutcomeParams) error {
	return s.store.ApplyCallOutcome(ctx, tenantID, leadID, params)
}

// MarkContacted stamps lastContactedAt when a call is placed to the lead.
func (s *Service) MarkContacted(ctx context.Context, tenantID, leadID uuid.UUID, at time.Time) error {
	return s.store.MarkContacted(ctx, tenantID, leadID, at)
}

// SetStatus updates the lead status from a manual disposition.
func (s *Service) SetStatus(ctx context.Context, tenantID, leadID uuid.UUID, status string) error {
	if !domain.IsKnownStatus(status) {
		return apperr.Validation("unknown lead status")
	}
	err := s.store.SetStatus(ctx, tenantID, leadID, status)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}
