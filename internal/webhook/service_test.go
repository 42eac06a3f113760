package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	analyticsservice "dialer_backend/internal/analytics/service"
	callsdomain "dialer_backend/internal/calls/domain"
	callsrepo "dialer_backend/internal/calls/repository"
	"dialer_backend/internal/events"
	leaddomain "dialer_backend/internal/leads/domain"
	leadrepo "dialer_backend/internal/leads/repository"
	leadservice "dialer_backend/internal/leads/service"
	"dialer_backend/internal/voice"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeCallStore struct {
	calls   map[string]callsdomain.Call
	claimed map[string]bool
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{
		calls:   make(map[string]callsdomain.Call),
		claimed: make(map[string]bool),
	}
}

func (f *fakeCallStore) UpsertFromEvent(_ context.Context, params callsrepo.UpsertParams) (callsdomain.Call, error) {
	call, exists := f.calls[params.ProviderCallID]
	if !exists {
		call = callsdomain.Call{
			ID:             uuid.New(),
			TenantID:       params.TenantID,
			ProviderCallID: params.ProviderCallID,
			Direction:      params.Direction,
		}
	}
	if call.LeadID == nil {
		call.LeadID = params.LeadID
	}
	if !voice.IsTerminal(call.Status) {
		call.Status = params.Status
	}
	if params.DurationSeconds > call.DurationSeconds {
		call.DurationSeconds = params.DurationSeconds
	}
	if params.Transcript != "" {
		call.Transcript = params.Transcript
	}
	call.MeetingBooked = call.MeetingBooked || params.MeetingBooked
	f.calls[params.ProviderCallID] = call
	return call, nil
}

func (f *fakeCallStore) ClaimAnalytics(_ context.Context, providerCallID string) (bool, error) {
	call, ok := f.calls[providerCallID]
	if !ok || !voice.IsTerminal(call.Status) || f.claimed[providerCallID] {
		return false, nil
	}
	f.claimed[providerCallID] = true
	return true, nil
}

type fakeLeadResolver struct {
	lead     leaddomain.Lead
	outcomes []leadrepo.CallOutcomeParams
	resolved int
}

func (f *fakeLeadResolver) GetByID(_ context.Context, _, leadID uuid.UUID) (leaddomain.Lead, error) {
	if f.lead.ID == leadID {
		return f.lead, nil
	}
	return leaddomain.Lead{}, leadrepo.ErrLeadNotFound
}

func (f *fakeLeadResolver) ResolveOrCreate(_ context.Context, _ uuid.UUID, _ leadservice.Identity) (leaddomain.Lead, bool, error) {
	f.resolved++
	return f.lead, false, nil
}

func (f *fakeLeadResolver) ApplyCallOutcome(_ context.Context, _, _ uuid.UUID, params leadrepo.CallOutcomeParams) error {
	f.outcomes = append(f.outcomes, params)
	if f.lead.Notes == "" {
		f.lead.Notes = params.Note
	} else {
		f.lead.Notes = f.lead.Notes + "\n\n" + params.Note
	}
	return nil
}

type fakeAnalytics struct {
	outcomes []analyticsservice.Outcome
}

func (f *fakeAnalytics) RecordOutcome(_ context.Context, outcome analyticsservice.Outcome) error {
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

type fakeTenants struct {
	byAgent map[string]uuid.UUID
}

func (f *fakeTenants) ResolveTenant(_ context.Context, agentID, _ string) (uuid.UUID, error) {
	if tenantID, ok := f.byAgent[agentID]; ok {
		return tenantID, nil
	}
	return uuid.Nil, ErrTenantNotResolved
}

type testEnv struct {
	service   *Service
	calls     *fakeCallStore
	leads     *fakeLeadResolver
	analytics *fakeAnalytics
	tenantID  uuid.UUID
}

func newTestEnv() *testEnv {
	log := logger.New("development")
	tenantID := uuid.New()
	calls := newFakeCallStore()
	leads := &fakeLeadResolver{lead: leaddomain.Lead{ID: uuid.New(), TenantID: tenantID, Phone: "+15551234567"}}
	analytics := &fakeAnalytics{}
	tenants := &fakeTenants{byAgent: map[string]uuid.UUID{"agent_1": tenantID}}
	svc := NewService(calls, leads, analytics, tenants, nil, events.NewInMemoryBus(log), log)
	return &testEnv{service: svc, calls: calls, leads: leads, analytics: analytics, tenantID: tenantID}
}

func terminalEvent(callID string) ProviderEvent {
	return ProviderEvent{
		Event: EventCallAnalyzed,
		Call: ProviderCall{
			CallID:     callID,
			AgentID:    "agent_1",
			Direction:  "outbound",
			CallStatus: "ended",
			FromNumber: "+15550001111",
			ToNumber:   "+15551234567",
			DurationMS: 95000,
			Transcript: "hello",
			CallAnalysis: &CallAnalysis{
				CallSummary:    "Customer wants a quote.",
				UserSentiment:  "Positive",
				CallSuccessful: true,
			},
		},
	}
}

func TestDuplicateTerminalEventIncrementsAnalyticsOnce(t *testing.T) {
	env := newTestEnv()
	event := terminalEvent("call_1")

	if err := env.service.Process(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.service.Process(context.Background(), event); err != nil {
		t.Fatalf("replay must succeed, got %v", err)
	}

	if len(env.analytics.outcomes) != 1 {
		t.Fatalf("expected exactly 1 analytics increment, got %d", len(env.analytics.outcomes))
	}
	if len(env.calls.calls) != 1 {
		t.Fatalf("expected exactly 1 call record, got %d", len(env.calls.calls))
	}
}

func TestReplayedTerminalEventAppendsNoteOnce(t *testing.T) {
	env := newTestEnv()
	event := terminalEvent("call_1")

	if err := env.service.Process(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.service.Process(context.Background(), event); err != nil {
		t.Fatalf("replay must succeed, got %v", err)
	}

	if len(env.leads.outcomes) != 1 {
		t.Fatalf("expected exactly 1 lead outcome, got %d", len(env.leads.outcomes))
	}
}

func TestAnalyzedEventEnrichesNotedCall(t *testing.T) {
	env := newTestEnv()
	ended := terminalEvent("call_1")
	ended.Event = EventCallEnded
	ended.Call.CallAnalysis = nil

	if err := env.service.Process(context.Background(), ended); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The analyzed event carries a summary the ended note lacked.
	if err := env.service.Process(context.Background(), terminalEvent("call_1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.leads.outcomes) != 2 {
		t.Fatalf("analysis must enrich the lead once, got %d outcomes", len(env.leads.outcomes))
	}

	// A replay of the analyzed event brings nothing new.
	if err := env.service.Process(context.Background(), terminalEvent("call_1")); err != nil {
		t.Fatalf("replay must succeed, got %v", err)
	}
	if len(env.leads.outcomes) != 2 {
		t.Fatalf("replayed analysis must not touch the lead, got %d outcomes", len(env.leads.outcomes))
	}
}

func TestUnresolvableTenantDroppedWithoutError(t *testing.T) {
	env := newTestEnv()
	event := terminalEvent("call_orphan")
	event.Call.AgentID = "agent_nobody_owns"

	if err := env.service.Process(context.Background(), event); err != nil {
		t.Fatalf("orphaned event must not error, got %v", err)
	}
	if len(env.calls.calls) != 0 {
		t.Fatal("orphaned event must not create a call record")
	}
	if len(env.analytics.outcomes) != 0 {
		t.Fatal("orphaned event must not touch analytics")
	}
}

func TestStartedEventDoesNotTouchLead(t *testing.T) {
	env := newTestEnv()
	event := ProviderEvent{
		Event: EventCallStarted,
		Call: ProviderCall{
			CallID:     "call_live",
			AgentID:    "agent_1",
			Direction:  "outbound",
			CallStatus: "ongoing",
			ToNumber:   "+15551234567",
		},
	}

	if err := env.service.Process(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.leads.outcomes) != 0 || env.leads.resolved != 0 {
		t.Fatal("started event must not mutate or resolve leads")
	}
	call := env.calls.calls["call_live"]
	if call.Status != voice.StatusInProgress {
		t.Fatalf("expected in_progress placeholder, got %s", call.Status)
	}
}

func TestTerminalEventQualifiesLead(t *testing.T) {
	env := newTestEnv()

	if err := env.service.Process(context.Background(), terminalEvent("call_1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(env.leads.outcomes) != 1 {
		t.Fatalf("expected 1 lead outcome, got %d", len(env.leads.outcomes))
	}
	outcome := env.leads.outcomes[0]
	if outcome.Score != leaddomain.ScoreHot {
		t.Fatalf("positive successful call must score hot, got %s", outcome.Score)
	}
	if outcome.Status != leaddomain.StatusInterested {
		t.Fatalf("expected interested, got %s", outcome.Status)
	}
	if outcome.Note == "" {
		t.Fatal("expected a structured note appended")
	}

	got := env.analytics.outcomes[0]
	if got.DurationSeconds != 95 {
		t.Fatalf("expected 95s duration, got %d", got.DurationSeconds)
	}
}

func TestMeetingLanguageBooksRegardlessOfSentiment(t *testing.T) {
	env := newTestEnv()
	event := terminalEvent("call_1")
	event.Call.CallAnalysis.CallSummary = "An appointment has been scheduled for Friday."
	event.Call.CallAnalysis.UserSentiment = "Negative"
	event.Call.CallAnalysis.CallSuccessful = false

	if err := env.service.Process(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env.leads.outcomes[0].Status != leaddomain.StatusMeetingScheduled {
		t.Fatalf("expected meeting_scheduled, got %s", env.leads.outcomes[0].Status)
	}
	if !env.analytics.outcomes[0].MeetingBooked {
		t.Fatal("expected analytics meeting increment")
	}
}

func TestFunctionCallEventIsAcknowledgedOnly(t *testing.T) {
	env := newTestEnv()
	event := terminalEvent("call_1")
	event.Event = EventFunctionCall

	if err := env.service.Process(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.calls.calls) != 0 || len(env.leads.outcomes) != 0 {
		t.Fatal("function_call must not mutate anything")
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"call_ended"}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature("secret", payload, signature) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature("secret", payload, "deadbeef") {
		t.Fatal("expected bogus signature to fail")
	}
	if VerifySignature("secret", payload, "") {
		t.Fatal("expected empty signature to fail")
	}
}
