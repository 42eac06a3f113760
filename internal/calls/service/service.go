// Package service implements the call lifecycle controller.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dialer_backend/internal/calls/domain"
	"dialer_backend/internal/calls/repository"
	"dialer_backend/internal/events"
	leaddomain "dialer_backend/internal/leads/domain"
	"dialer_backend/internal/voice"
	"dialer_backend/platform/apperr"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the call persistence interface. Satisfied by *repository.Repository.
type Store interface {
	Create(ctx context.Context, params repository.CreateParams) (domain.Call, error)
	GetByID(ctx context.Context, tenantID, callID uuid.UUID) (domain.Call, error)
	GetByProviderID(ctx context.Context, tenantID uuid.UUID, providerCallID string) (domain.Call, error)
	MarkEnded(ctx context.Context, tenantID uuid.UUID, providerCallID string) (bool, error)
	SetDisposition(ctx context.Context, tenantID uuid.UUID, providerCallID, disposition, status string, meetingBooked bool) (domain.Call, error)
	SweepStale(ctx context.Context, bound time.Duration) ([]string, error)
	CountOutboundSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error)
}

// Provider is the voice provider interface. Satisfied by *voice.Client.
type Provider interface {
	IsConfigured() bool
	Initiate(ctx context.Context, params voice.InitiateParams) (voice.InitiateResult, error)
	GetCall(ctx context.Context, providerCallID string) (voice.CallInfo, error)
}

// LeadReader supplies the lead fields needed to place a call.
type LeadReader interface {
	GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (leaddomain.Lead, error)
	SetStatus(ctx context.Context, tenantID, leadID uuid.UUID, status string) error
	MarkContacted(ctx context.Context, tenantID, leadID uuid.UUID, at time.Time) error
}

// Service coordinates call initiation, hangup, disposition and reads.
type Service struct {
	store    Store
	provider Provider
	leads    LeadReader
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new call lifecycle service.
func NewService(store Store, provider Provider, leads LeadReader, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		leads:    leads,
		eventBus: eventBus,
		log:      log,
	}
}

// StartParams describes a call to place. Either LeadID or ToNumber must be
// set; when both are present the explicit number wins.
type StartParams struct {
	LeadID     *uuid.UUID
	ToNumber   string
	CampaignID string
}

// Start places an outbound call and records it with a pending status. A
// missing provider configuration is reported as a distinct unavailable
// error rather than a generic failure.
func (s *Service) Start(ctx context.Context, tenantID uuid.UUID, params StartParams) (domain.Call, error) {
	if !s.provider.IsConfigured() {
		return domain.Call{}, apperr.Unavailable("voice provider not configured")
	}

	toNumber := phone.NormalizeE164(params.ToNumber)
	variables := map[string]string{}
	if params.LeadID != nil {
		lead, err := s.leads.GetByID(ctx, tenantID, *params.LeadID)
		if err != nil {
			return domain.Call{}, apperr.NotFound("lead not found")
		}
		if toNumber == "" {
			toNumber = phone.NormalizeE164(lead.Phone)
		}
		if lead.ContactName != "" {
			variables["contact_name"] = lead.ContactName
		}
		if lead.BusinessName != "" {
			variables["business_name"] = lead.BusinessName
		}
	}
	if toNumber == "" {
		return domain.Call{}, apperr.Validation("destination number is required")
	}

	leadID := ""
	if params.LeadID != nil {
		leadID = params.LeadID.String()
	}

	result, err := s.provider.Initiate(ctx, voice.InitiateParams{
		ToNumber:   toNumber,
		LeadID:     leadID,
		CampaignID: params.CampaignID,
		TenantID:   tenantID.String(),
		Variables:  variables,
	})
	if err != nil {
		if errors.Is(err, voice.ErrNotConfigured) {
			return domain.Call{}, apperr.Unavailable("voice provider not configured")
		}
		return domain.Call{}, apperr.Wrap(apperr.KindInternal, "failed to start call", err)
	}

	call, err := s.store.Create(ctx, repository.CreateParams{
		TenantID:       tenantID,
		ProviderCallID: result.ProviderCallID,
		LeadID:         params.LeadID,
		CampaignID:     params.CampaignID,
		Direction:      domain.DirectionOutbound,
		Status:         result.Status,
		ToNumber:       toNumber,
	})
	if err != nil {
		return domain.Call{}, err
	}

	if params.LeadID != nil {
		if err := s.leads.MarkContacted(ctx, tenantID, *params.LeadID, time.Now().UTC()); err != nil {
			s.log.Error("failed to stamp lead contact time", "error", err, "leadId", *params.LeadID)
		}
	}

	s.log.CallEvent("started", call.ProviderCallID, tenantID.String(), call.Status)
	return call, nil
}

// GetResult is a call read with its source annotated: "store" when served
// from the local record, "provider" when it fell back to the provider API.
type GetResult struct {
	Call   domain.Call
	Source string
}

// Get returns call state, store-first with a provider fallback. A call
// unknown to both sides is a 404: it was never started here.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, idOrProviderID string) (GetResult, error) {
	call, err := s.lookup(ctx, tenantID, idOrProviderID)
	if err == nil {
		return GetResult{Call: call, Source: "store"}, nil
	}
	if !errors.Is(err, repository.ErrCallNotFound) {
		return GetResult{}, err
	}

	if !s.provider.IsConfigured() {
		return GetResult{}, apperr.NotFound("call not found")
	}

	info, err := s.provider.GetCall(ctx, idOrProviderID)
	if err != nil {
		if errors.Is(err, voice.ErrCallNotFound) || errors.Is(err, voice.ErrNotConfigured) {
			return GetResult{}, apperr.NotFound("call not found")
		}
		return GetResult{}, apperr.Wrap(apperr.KindInternal, "provider lookup failed", err)
	}

	return GetResult{
		Call: domain.Call{
			TenantID:        tenantID,
			ProviderCallID:  info.ProviderCallID,
			Status:          info.Status,
			DurationSeconds: info.DurationSeconds,
			Transcript:      info.Transcript,
			RecordingURL:    info.RecordingURL,
		},
		Source: "provider",
	}, nil
}

// End hangs up a live call. Repeating a hangup is a no-op returning the
// final record.
func (s *Service) End(ctx context.Context, tenantID uuid.UUID, idOrProviderID string) (domain.Call, error) {
	call, err := s.lookup(ctx, tenantID, idOrProviderID)
	if err != nil {
		if errors.Is(err, repository.ErrCallNotFound) {
			return domain.Call{}, apperr.NotFound("call not found")
		}
		return domain.Call{}, err
	}

	// Duplicate or straggler hangup; the record is already terminal. The
	// MarkEnded SQL guard covers concurrent writers.
	if !call.State().CanAdvance(domain.StateEnded) {
		return call, nil
	}

	ended, err := s.store.MarkEnded(ctx, tenantID, call.ProviderCallID)
	if err != nil {
		return domain.Call{}, err
	}
	if ended {
		s.log.CallEvent("ended", call.ProviderCallID, tenantID.String(), voice.StatusCompleted)
	}

	return s.store.GetByProviderID(ctx, tenantID, call.ProviderCallID)
}

// Disposition records the agent's outcome for a call and applies the
// implied lead status exactly once. A repeated disposition succeeds
// without mutating the lead again.
func (s *Service) Disposition(ctx context.Context, tenantID uuid.UUID, idOrProviderID, outcome string) (domain.Call, error) {
	mapped, ok := dispositionOutcomes[outcome]
	if !ok {
		return domain.Call{}, apperr.Validation("unknown disposition outcome, expected one of: " + strings.Join(DispositionLabels(), ", "))
	}

	call, err := s.lookup(ctx, tenantID, idOrProviderID)
	if err != nil {
		if errors.Is(err, repository.ErrCallNotFound) {
			return domain.Call{}, apperr.NotFound("call not found")
		}
		return domain.Call{}, err
	}

	// Already dispositioned: return the final record without touching the
	// store or the lead. The dispositioned_at SQL guard covers concurrent
	// writers.
	if !call.State().CanAdvance(domain.StateDispositioned) {
		return call, nil
	}

	updated, err := s.store.SetDisposition(ctx, tenantID, call.ProviderCallID, outcome, mapped.CallStatus, mapped.MeetingBooked)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyDispositioned) {
			return s.store.GetByProviderID(ctx, tenantID, call.ProviderCallID)
		}
		if errors.Is(err, repository.ErrCallNotFound) {
			return domain.Call{}, apperr.NotFound("call not found")
		}
		return domain.Call{}, err
	}

	if updated.LeadID != nil {
		if err := s.leads.SetStatus(ctx, tenantID, *updated.LeadID, mapped.LeadStatus); err != nil {
			s.log.Error("failed to apply disposition to lead", "error", err, "leadId", *updated.LeadID)
		}
		if mapped.MeetingBooked {
			s.eventBus.Publish(ctx, events.MeetingBooked{
				BaseEvent:      events.NewBaseEvent(),
				TenantID:       tenantID,
				LeadID:         *updated.LeadID,
				ProviderCallID: updated.ProviderCallID,
				Summary:        updated.Summary,
			})
		}
	}

	s.log.CallEvent("dispositioned", updated.ProviderCallID, tenantID.String(), updated.Status)
	return updated, nil
}

// SweepStale fails live calls older than the bound. Calls can be stranded
// mid-flight when the provider never delivers a terminal event.
func (s *Service) SweepStale(ctx context.Context, bound time.Duration) (int, error) {
	swept, err := s.store.SweepStale(ctx, bound)
	if err != nil {
		return 0, err
	}
	for _, providerCallID := range swept {
		s.log.CallEvent("swept_stale", providerCallID, "", voice.StatusFailed)
	}
	return len(swept), nil
}

// lookup resolves a path id that may be a record uuid or a provider call id.
func (s *Service) lookup(ctx context.Context, tenantID uuid.UUID, idOrProviderID string) (domain.Call, error) {
	if callID, err := uuid.Parse(idOrProviderID); err == nil {
		return s.store.GetByID(ctx, tenantID, callID)
	}
	return s.store.GetByProviderID(ctx, tenantID, idOrProviderID)
}
