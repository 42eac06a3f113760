package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	analyticsservice "dialer_backend/internal/analytics/service"
	callsdomain "dialer_backend/internal/calls/domain"
	callsrepo "dialer_backend/internal/calls/repository"
	"dialer_backend/internal/events"
	leaddomain "dialer_backend/internal/leads/domain"
	leadrepo "dialer_backend/internal/leads/repository"
	"dialer_backend/internal/leads/scoring"
	leadservice "dialer_backend/internal/leads/service"
	"dialer_backend/internal/voice"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/phone"

	"github.com/google/uuid"
)

// CallStore is the call persistence the reconciler needs. Satisfied by
// *callsrepo.Repository.
type CallStore interface {
	UpsertFromEvent(ctx context.Context, params callsrepo.UpsertParams) (callsdomain.Call, error)
	ClaimAnalytics(ctx context.Context, providerCallID string) (bool, error)
}

// LeadResolver finds-or-creates and mutates leads. Satisfied by
// *leadservice.Service.
type LeadResolver interface {
	GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (leaddomain.Lead, error)
	ResolveOrCreate(ctx context.Context, tenantID uuid.UUID, identity leadservice.Identity) (leaddomain.Lead, bool, error)
	ApplyCallOutcome(ctx context.Context, tenantID, leadID uuid.UUID, params leadrepo.CallOutcomeParams) error
}

// AnalyticsRecorder folds terminal calls into the daily rollup.
// Satisfied by *analyticsservice.Service.
type AnalyticsRecorder interface {
	RecordOutcome(ctx context.Context, outcome analyticsservice.Outcome) error
}

// TenantDirectory resolves event ownership. Satisfied by *Repository.
type TenantDirectory interface {
	ResolveTenant(ctx context.Context, agentID, number string) (uuid.UUID, error)
}

// ArchiveEnqueuer schedules recording downloads. Nil disables archiving.
type ArchiveEnqueuer interface {
	EnqueueRecordingArchive(ctx context.Context, providerCallID, recordingURL string) error
}

// Service is the webhook reconciler: it turns provider events into lead,
// call and analytics writes. Every step is idempotent so redelivered or
// out-of-order events converge on the same end state.
type Service struct {
	calls     CallStore
	leads     LeadResolver
	analytics AnalyticsRecorder
	tenants   TenantDirectory
	archiver  ArchiveEnqueuer
	eventBus  events.Bus
	log       *logger.Logger
}

// NewService creates a new webhook reconciler.
func NewService(calls CallStore, leads LeadResolver, analytics AnalyticsRecorder, tenants TenantDirectory, archiver ArchiveEnqueuer, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		calls:     calls,
		leads:     leads,
		analytics: analytics,
		tenants:   tenants,
		archiver:  archiver,
		eventBus:  eventBus,
		log:       log,
	}
}

// Process reconciles one provider event. An unresolvable tenant is
// dropped after logging, not returned as an error: the provider retrying
// a permanently orphaned event is wasted work.
func (s *Service) Process(ctx context.Context, event ProviderEvent) error {
	if event.Call.CallID == "" {
		s.log.WebhookDropped(event.Event, "", "missing call id")
		return nil
	}

	switch event.Event {
	case EventCallStarted:
		return s.processStarted(ctx, event)
	case EventCallEnded, EventCallAnalyzed:
		return s.processTerminal(ctx, event)
	case EventFunctionCall:
		// Acknowledged, no CRM mutation.
		return nil
	default:
		s.log.WebhookDropped(event.Event, event.Call.CallID, "unknown event type")
		return nil
	}
}

// processStarted records a placeholder call. Lead state is never touched
// here; only terminal events qualify a lead.
func (s *Service) processStarted(ctx context.Context, event ProviderEvent) error {
	tenantID, ok := s.resolveTenant(ctx, event)
	if !ok {
		return nil
	}

	_, err := s.calls.UpsertFromEvent(ctx, s.upsertParams(event, tenantID, nil))
	if err != nil {
		return fmt.Errorf("upsert started call: %w", err)
	}
	s.log.CallEvent("webhook_started", event.Call.CallID, tenantID.String(), voice.MapStatus(event.Call.CallStatus))
	return nil
}

// processTerminal runs the full pipeline: tenant, lead, scoring, call
// upsert, analytics, events.
func (s *Service) processTerminal(ctx context.Context, event ProviderEvent) error {
	tenantID, ok := s.resolveTenant(ctx, event)
	if !ok {
		return nil
	}

	lead, err := s.resolveLead(ctx, tenantID, event)
	if err != nil {
		return err
	}

	var leadID *uuid.UUID
	if lead != nil {
		leadID = &lead.ID
	}

	call, err := s.calls.UpsertFromEvent(ctx, s.upsertParams(event, tenantID, leadID))
	if err != nil {
		return fmt.Errorf("upsert terminal call: %w", err)
	}

	signals := s.extractSignals(event)
	score := scoring.InferScore(signals)
	status := scoring.InferStatus(signals)

	if lead != nil && !noteAlreadyRecorded(lead.Notes, event) {
		outcome := leadrepo.CallOutcomeParams{
			Status:          status,
			Score:           score,
			Note:            buildLeadNote(event, signals),
			LastContactedAt: time.Now().UTC(),
		}
		if err := s.leads.ApplyCallOutcome(ctx, tenantID, lead.ID, outcome); err != nil {
			return fmt.Errorf("apply call outcome: %w", err)
		}
	}

	if voice.IsTerminal(call.Status) {
		first, err := s.calls.ClaimAnalytics(ctx, call.ProviderCallID)
		if err != nil {
			return fmt.Errorf("claim analytics: %w", err)
		}
		if first {
			s.recordAnalytics(ctx, tenantID, call, status)
			s.publishEvents(ctx, tenantID, call, lead, score, status, signals)
			s.enqueueArchive(ctx, call)
		}
	}

	s.log.CallEvent("webhook_reconciled", call.ProviderCallID, tenantID.String(), call.Status)
	return nil
}

// resolveTenant fails closed: events nobody owns are dropped and logged.
func (s *Service) resolveTenant(ctx context.Context, event ProviderEvent) (uuid.UUID, bool) {
	if raw := event.Call.Meta("tenant_id"); raw != "" {
		if tenantID, err := uuid.Parse(raw); err == nil {
			return tenantID, true
		}
		s.log.WebhookDropped(event.Event, event.Call.CallID, "malformed tenant metadata")
		return uuid.Nil, false
	}

	// The tenant-owned number is the destination on inbound calls and
	// the origin on outbound calls.
	ownNumber := event.Call.FromNumber
	if event.Call.Direction == "inbound" {
		ownNumber = event.Call.ToNumber
	}

	tenantID, err := s.tenants.ResolveTenant(ctx, event.Call.AgentID, ownNumber)
	if err != nil {
		if errors.Is(err, ErrTenantNotResolved) {
			s.log.WebhookDropped(event.Event, event.Call.CallID, "tenant not resolved")
			return uuid.Nil, false
		}
		s.log.Error("tenant resolution failed", "error", err, "providerCallId", event.Call.CallID)
		return uuid.Nil, false
	}
	return tenantID, true
}

// resolveLead prefers the explicit lead id metadata, else matches or
// creates by the caller's identity. A nil lead means the event carried no
// identity signal at all.
func (s *Service) resolveLead(ctx context.Context, tenantID uuid.UUID, event ProviderEvent) (*leaddomain.Lead, error) {
	if raw := event.Call.Meta("lead_id"); raw != "" {
		if leadID, err := uuid.Parse(raw); err == nil {
			lead, err := s.leads.GetByID(ctx, tenantID, leadID)
			if err == nil {
				return &lead, nil
			}
			s.log.Warn("lead metadata points at unknown lead", "leadId", leadID, "providerCallId", event.Call.CallID)
		}
	}

	identity := leadservice.Identity{
		ContactName:  event.Call.Variable("caller_name"),
		BusinessName: event.Call.Variable("business_name"),
		Phone:        event.Call.CallerNumber(),
		Email:        event.Call.Variable("email"),
		Address:      event.Call.Variable("address"),
		City:         event.Call.Variable("city"),
		Industry:     event.Call.Variable("industry"),
	}
	if !identity.HasSignal() {
		return nil, nil
	}

	lead, _, err := s.leads.ResolveOrCreate(ctx, tenantID, identity)
	if err != nil {
		return nil, fmt.Errorf("resolve lead: %w", err)
	}
	return &lead, nil
}

func (s *Service) upsertParams(event ProviderEvent, tenantID uuid.UUID, leadID *uuid.UUID) callsrepo.UpsertParams {
	direction := event.Call.Direction
	if direction == "" {
		direction = callsdomain.DirectionOutbound
	}

	params := callsrepo.UpsertParams{
		TenantID:        tenantID,
		ProviderCallID:  event.Call.CallID,
		LeadID:          leadID,
		CampaignID:      event.Call.Meta("campaign_id"),
		Direction:       direction,
		Status:          voice.MapStatus(event.Call.CallStatus),
		FromNumber:      event.Call.FromNumber,
		ToNumber:        event.Call.ToNumber,
		DurationSeconds: event.Call.DurationSeconds(),
		Transcript:      event.Call.Transcript,
		RecordingURL:    event.Call.RecordingURL,
		EndedAt:         event.Call.EndedAt(),
	}
	if analysis := event.Call.CallAnalysis; analysis != nil {
		params.Summary = analysis.CallSummary
		params.Sentiment = strings.ToLower(analysis.UserSentiment)
		params.MeetingBooked = scoring.InferStatus(s.extractSignals(event)) == leaddomain.StatusMeetingScheduled
	}
	return params
}

func (s *Service) extractSignals(event ProviderEvent) scoring.Signals {
	signals := scoring.Signals{
		CallerName:   event.Call.Variable("caller_name"),
		BusinessName: event.Call.Variable("business_name"),
		Phone:        event.Call.CallerNumber(),
		Email:        event.Call.Variable("email"),
		Urgency:      event.Call.Variable("urgency"),
	}
	if analysis := event.Call.CallAnalysis; analysis != nil {
		signals.Sentiment = strings.ToLower(analysis.UserSentiment)
		signals.CallSuccessful = analysis.CallSuccessful
		signals.Summary = analysis.CallSummary
	}
	return signals
}

func (s *Service) recordAnalytics(ctx context.Context, tenantID uuid.UUID, call callsdomain.Call, leadStatus string) {
	err := s.analytics.RecordOutcome(ctx, analyticsservice.Outcome{
		TenantID:        tenantID,
		Status:          call.Status,
		DurationSeconds: call.DurationSeconds,
		MeetingBooked:   call.MeetingBooked || leadStatus == leaddomain.StatusMeetingScheduled,
	})
	if err != nil {
		s.log.Error("failed to record analytics", "error", err, "providerCallId", call.ProviderCallID)
	}
}

func (s *Service) publishEvents(ctx context.Context, tenantID uuid.UUID, call callsdomain.Call, lead *leaddomain.Lead, score, status string, signals scoring.Signals) {
	s.eventBus.Publish(ctx, events.CallEnded{
		BaseEvent:       events.NewBaseEvent(),
		TenantID:        tenantID,
		ProviderCallID:  call.ProviderCallID,
		LeadID:          call.LeadID,
		Status:          call.Status,
		DurationSeconds: call.DurationSeconds,
	})

	if lead == nil {
		return
	}
	s.eventBus.Publish(ctx, events.LeadQualified{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		LeadID:    lead.ID,
		Score:     score,
		Status:    status,
		Summary:   signals.Summary,
	})
	if status == leaddomain.StatusMeetingScheduled {
		s.eventBus.Publish(ctx, events.MeetingBooked{
			BaseEvent:      events.NewBaseEvent(),
			TenantID:       tenantID,
			LeadID:         lead.ID,
			ProviderCallID: call.ProviderCallID,
			Summary:        signals.Summary,
		})
	}
}

func (s *Service) enqueueArchive(ctx context.Context, call callsdomain.Call) {
	if s.archiver == nil || call.RecordingURL == "" {
		return
	}
	if err := s.archiver.EnqueueRecordingArchive(ctx, call.ProviderCallID, call.RecordingURL); err != nil {
		s.log.Error("failed to enqueue recording archive", "error", err, "providerCallId", call.ProviderCallID)
	}
}

// noteAlreadyRecorded reports whether the lead's notes log already carries
// this event's note. The call id marks a prior delivery; an analysis
// summary missing from the log means the analyzed event still brings new
// detail even when the ended event was noted before.
func noteAlreadyRecorded(notes string, event ProviderEvent) bool {
	if !strings.Contains(notes, "Call "+event.Call.CallID) {
		return false
	}
	if analysis := event.Call.CallAnalysis; analysis != nil && analysis.CallSummary != "" {
		return strings.Contains(notes, analysis.CallSummary)
	}
	return true
}

// buildLeadNote renders the appended lead note for a reconciled call.
func buildLeadNote(event ProviderEvent, signals scoring.Signals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Call %s", time.Now().UTC().Format("2006-01-02 15:04"), event.Call.CallID)
	if caller := event.Call.CallerNumber(); caller != "" {
		fmt.Fprintf(&b, " from %s", phone.NormalizeE164(caller))
	}
	if signals.CallerName != "" {
		fmt.Fprintf(&b, " (%s)", signals.CallerName)
	}
	if signals.Urgency != "" {
		fmt.Fprintf(&b, "\nUrgency: %s", signals.Urgency)
	}
	if signals.Summary != "" {
		fmt.Fprintf(&b, "\nSummary: %s", signals.Summary)
	}
	if signals.Sentiment != "" {
		fmt.Fprintf(&b, "\nSentiment: %s", signals.Sentiment)
	}
	if event.Call.RecordingURL != "" {
		fmt.Fprintf(&b, "\nRecording: %s", event.Call.RecordingURL)
	}
	return b.String()
}
