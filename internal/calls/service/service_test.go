package service

import (
	"context"
	"testing"
	"time"

	"dialer_backend/internal/calls/domain"
	"dialer_backend/internal/calls/repository"
	internalevents "dialer_backend/internal/events"
	leaddomain "dialer_backend/internal/leads/domain"
	"dialer_backend/internal/voice"
	"dialer_backend/platform/apperr"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	calls               map[string]domain.Call
	markEndedCalls      int
	setDispositionCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(map[string]domain.Call)}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateParams) (domain.Call, error) {
	call := domain.Call{
		ID:             uuid.New(),
		TenantID:       params.TenantID,
		ProviderCallID: params.ProviderCallID,
		LeadID:         params.LeadID,
		CampaignID:     params.CampaignID,
		Direction:      params.Direction,
		Status:         params.Status,
		ToNumber:       params.ToNumber,
		CreatedAt:      time.Now(),
	}
	f.calls[call.ProviderCallID] = call
	return call, nil
}

func (f *fakeStore) GetByID(_ context.Context, tenantID, callID uuid.UUID) (domain.Call, error) {
	for _, call := range f.calls {
		if call.ID == callID && call.TenantID == tenantID {
			return call, nil
		}
	}
	return domain.Call{}, repository.ErrCallNotFound
}

func (f *fakeStore) GetByProviderID(_ context.Context, tenantID uuid.UUID, providerCallID string) (domain.Call, error) {
	call, ok := f.calls[providerCallID]
	if !ok || call.TenantID != tenantID {
		return domain.Call{}, repository.ErrCallNotFound
	}
	return call, nil
}

func (f *fakeStore) MarkEnded(_ context.Context, tenantID uuid.UUID, providerCallID string) (bool, error) {
	f.markEndedCalls++
	call, ok := f.calls[providerCallID]
	if !ok || call.TenantID != tenantID {
		return false, nil
	}
	if voice.IsTerminal(call.Status) {
		return false, nil
	}
	call.Status = voice.StatusCompleted
	now := time.Now()
	call.EndedAt = &now
	f.calls[providerCallID] = call
	return true, nil
}

func (f *fakeStore) SetDisposition(_ context.Context, tenantID uuid.UUID, providerCallID, disposition, status string, meetingBooked bool) (domain.Call, error) {
	f.setDispositionCalls++
	call, ok := f.calls[providerCallID]
	if !ok || call.TenantID != tenantID {
		return domain.Call{}, repository.ErrCallNotFound
	}
	if call.DispositionedAt != nil {
		return domain.Call{}, repository.ErrAlreadyDispositioned
	}
	now := time.Now()
	call.Disposition = disposition
	call.DispositionedAt = &now
	call.Status = status
	call.MeetingBooked = call.MeetingBooked || meetingBooked
	f.calls[providerCallID] = call
	return call, nil
}

func (f *fakeStore) SweepStale(_ context.Context, bound time.Duration) ([]string, error) {
	var swept []string
	for id, call := range f.calls {
		if voice.IsTerminal(call.Status) {
			continue
		}
		if time.Since(call.CreatedAt) > bound {
			call.Status = voice.StatusFailed
			f.calls[id] = call
			swept = append(swept, id)
		}
	}
	return swept, nil
}

func (f *fakeStore) CountOutboundSince(_ context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	count := 0
	for _, call := range f.calls {
		if call.TenantID == tenantID && call.Direction == domain.DirectionOutbound && !call.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type fakeProvider struct {
	configured bool
	nextCallID string
	getInfo    *voice.CallInfo
	initiated  int
}

func (f *fakeProvider) IsConfigured() bool { return f.configured }

func (f *fakeProvider) Initiate(_ context.Context, _ voice.InitiateParams) (voice.InitiateResult, error) {
	if !f.configured {
		return voice.InitiateResult{}, voice.ErrNotConfigured
	}
	f.initiated++
	return voice.InitiateResult{ProviderCallID: f.nextCallID, Status: voice.StatusPending}, nil
}

func (f *fakeProvider) GetCall(_ context.Context, providerCallID string) (voice.CallInfo, error) {
	if f.getInfo != nil && f.getInfo.ProviderCallID == providerCallID {
		return *f.getInfo, nil
	}
	return voice.CallInfo{}, voice.ErrCallNotFound
}

type fakeLeads struct {
	leads         map[uuid.UUID]leaddomain.Lead
	statusUpdates []string
}

func newFakeLeads() *fakeLeads {
	return &fakeLeads{leads: make(map[uuid.UUID]leaddomain.Lead)}
}

func (f *fakeLeads) GetByID(_ context.Context, _, leadID uuid.UUID) (leaddomain.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok {
		return leaddomain.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeLeads) SetStatus(_ context.Context, _, _ uuid.UUID, status string) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeLeads) MarkContacted(_ context.Context, _, _ uuid.UUID, _ time.Time) error {
	return nil
}

func newTestService(store Store, provider Provider, leads LeadReader) *Service {
	log := logger.New("development")
	return NewService(store, provider, leads, internalevents.NewInMemoryBus(log), log)
}

func TestStartUnconfiguredProviderIsUnavailable(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProvider{configured: false}, newFakeLeads())

	_, err := svc.Start(context.Background(), uuid.New(), StartParams{ToNumber: "+14155552671"})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestStartUsesLeadPhone(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{configured: true, nextCallID: "call_1"}
	leads := newFakeLeads()
	tenantID := uuid.New()
	leadID := uuid.New()
	leads.leads[leadID] = leaddomain.Lead{ID: leadID, TenantID: tenantID, Phone: "+14155552671"}

	svc := newTestService(store, provider, leads)

	call, err := svc.Start(context.Background(), tenantID, StartParams{LeadID: &leadID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.ToNumber != "+14155552671" {
		t.Fatalf("expected lead phone as destination, got %s", call.ToNumber)
	}
	if call.Status != voice.StatusPending {
		t.Fatalf("expected pending status, got %s", call.Status)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{configured: true, nextCallID: "call_1"}
	leads := newFakeLeads()
	tenantID := uuid.New()
	svc := newTestService(store, provider, leads)

	call, err := svc.Start(context.Background(), tenantID, StartParams{ToNumber: "+14155552671"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := svc.End(context.Background(), tenantID, call.ProviderCallID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.End(context.Background(), tenantID, call.ProviderCallID)
	if err != nil {
		t.Fatalf("repeated hangup must succeed, got %v", err)
	}
	if first.Status != voice.StatusCompleted || second.Status != voice.StatusCompleted {
		t.Fatalf("expected completed status, got %s then %s", first.Status, second.Status)
	}
	if store.markEndedCalls != 1 {
		t.Fatalf("terminal call must not reach the store again, got %d MarkEnded calls", store.markEndedCalls)
	}
}

func TestDispositionReplaySkipsStore(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{configured: true, nextCallID: "call_1"}
	tenantID := uuid.New()
	svc := newTestService(store, provider, newFakeLeads())

	call, err := svc.Start(context.Background(), tenantID, StartParams{ToNumber: "+14155552671"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Disposition(context.Background(), tenantID, call.ProviderCallID, "no_answer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	replayed, err := svc.Disposition(context.Background(), tenantID, call.ProviderCallID, "meeting_booked")
	if err != nil {
		t.Fatalf("repeated disposition must succeed, got %v", err)
	}
	if store.setDispositionCalls != 1 {
		t.Fatalf("dispositioned call must not reach the store again, got %d SetDisposition calls", store.setDispositionCalls)
	}
	if replayed.Disposition != "no_answer" {
		t.Fatalf("replay must return the recorded disposition, got %s", replayed.Disposition)
	}
}

func TestDispositionMutatesLeadOnce(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{configured: true, nextCallID: "call_1"}
	leads := newFakeLeads()
	tenantID := uuid.New()
	leadID := uuid.New()
	leads.leads[leadID] = leaddomain.Lead{ID: leadID, TenantID: tenantID, Phone: "+14155552671"}
	svc := newTestService(store, provider, leads)

	call, err := svc.Start(context.Background(), tenantID, StartParams{LeadID: &leadID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Disposition(context.Background(), tenantID, call.ProviderCallID, "meeting_booked")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.MeetingBooked {
		t.Fatal("expected meeting_booked to be set")
	}

	// Replay: must succeed without a second lead mutation.
	if _, err := svc.Disposition(context.Background(), tenantID, call.ProviderCallID, "meeting_booked"); err != nil {
		t.Fatalf("repeated disposition must succeed, got %v", err)
	}
	if len(leads.statusUpdates) != 1 {
		t.Fatalf("expected exactly 1 lead status update, got %d", len(leads.statusUpdates))
	}
	if leads.statusUpdates[0] != leaddomain.StatusMeetingScheduled {
		t.Fatalf("expected meeting_scheduled, got %s", leads.statusUpdates[0])
	}
}

func TestDispositionRejectsUnknownOutcome(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProvider{configured: true}, newFakeLeads())

	_, err := svc.Disposition(context.Background(), uuid.New(), "call_1", "gibberish")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetFallsBackToProvider(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{
		configured: true,
		getInfo: &voice.CallInfo{
			ProviderCallID:  "call_remote",
			Status:          voice.StatusInProgress,
			DurationSeconds: 12,
		},
	}
	svc := newTestService(store, provider, newFakeLeads())

	result, err := svc.Get(context.Background(), uuid.New(), "call_remote")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != "provider" {
		t.Fatalf("expected provider source, got %s", result.Source)
	}
	if result.Call.Status != voice.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", result.Call.Status)
	}
}

func TestGetUnknownEverywhereIs404(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProvider{configured: true}, newFakeLeads())

	_, err := svc.Get(context.Background(), uuid.New(), "call_nowhere")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
