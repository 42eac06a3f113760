package service

import (
	"context"
	"errors"
	"testing"
	"time"

	callsdomain "dialer_backend/internal/calls/domain"
	callservice "dialer_backend/internal/calls/service"
	"dialer_backend/internal/dialer/repository"
	leaddomain "dialer_backend/internal/leads/domain"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	settings repository.Settings
	leads    []leaddomain.Lead
	batchCap int
}

func (f *fakeStore) GetSettings(_ context.Context, _ uuid.UUID) (repository.Settings, error) {
	return f.settings, nil
}

func (f *fakeStore) ListEnabledTenants(_ context.Context) ([]uuid.UUID, error) {
	return []uuid.UUID{f.settings.TenantID}, nil
}

func (f *fakeStore) SelectCallableLeads(_ context.Context, _ uuid.UUID, limit, _ int) ([]leaddomain.Lead, error) {
	f.batchCap = limit
	if limit < len(f.leads) {
		return f.leads[:limit], nil
	}
	return f.leads, nil
}

type fakeStarter struct {
	started []uuid.UUID
	failFor map[uuid.UUID]bool
	onStart func()
}

func (f *fakeStarter) Start(_ context.Context, tenantID uuid.UUID, params callservice.StartParams) (callsdomain.Call, error) {
	if f.onStart != nil {
		f.onStart()
	}
	if f.failFor[*params.LeadID] {
		return callsdomain.Call{}, errors.New("provider exploded")
	}
	f.started = append(f.started, *params.LeadID)
	return callsdomain.Call{ID: uuid.New(), TenantID: tenantID, ProviderCallID: uuid.NewString()}, nil
}

type fakeCounter struct {
	count int
}

func (f *fakeCounter) CountOutboundSince(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	return f.count, nil
}

func enabledSettings(tenantID uuid.UUID) repository.Settings {
	settings := repository.DefaultSettings(tenantID)
	settings.Enabled = true
	settings.PacingSeconds = 0
	return settings
}

func someLeads(n int) []leaddomain.Lead {
	leads := make([]leaddomain.Lead, n)
	for i := range leads {
		leads[i] = leaddomain.Lead{ID: uuid.New(), Phone: "+14155552671"}
	}
	return leads
}

func newTestService(store *fakeStore, starter *fakeStarter, counter *fakeCounter, at time.Time) *Service {
	svc := NewService(store, starter, counter, logger.New("development"))
	svc.now = func() time.Time { return at }
	svc.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return svc
}

// Tuesday 11:00 UTC, inside the default 9-18 window.
var insideWindow = time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)

func TestRunOutsideWorkingHours(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{settings: enabledSettings(tenantID), leads: someLeads(3)}
	starter := &fakeStarter{}

	// Tuesday 07:00, before the window opens.
	at := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newTestService(store, starter, &fakeCounter{}, at)

	summary, err := svc.Run(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Status != StatusSkippedWindow {
		t.Fatalf("expected %s, got %s", StatusSkippedWindow, summary.Status)
	}
	if len(starter.started) != 0 {
		t.Fatalf("expected zero dispatches, got %d", len(starter.started))
	}
}

func TestRunOnExcludedWeekday(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{settings: enabledSettings(tenantID), leads: someLeads(3)}
	starter := &fakeStarter{}

	// Saturday noon. Weekends are excluded by default.
	at := time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, starter, &fakeCounter{}, at)

	summary, err := svc.Run(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Status != StatusSkippedWindow || len(starter.started) != 0 {
		t.Fatalf("expected window skip with zero dispatches, got %+v", summary)
	}
}

func TestRunAtDailyLimit(t *testing.T) {
	tenantID := uuid.New()
	settings := enabledSettings(tenantID)
	settings.DailyCallLimit = 50
	store := &fakeStore{settings: settings, leads: someLeads(3)}
	starter := &fakeStarter{}
	svc := newTestService(store, starter, &fakeCounter{count: 50}, insideWindow)

	summary, err := svc.Run(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Status != StatusSkippedLimit {
		t.Fatalf("expected %s, got %s", StatusSkippedLimit, summary.Status)
	}
	if summary.TotalToday != 50 || len(starter.started) != 0 {
		t.Fatalf("expected zero dispatches at the limit, got %+v", summary)
	}
}

func TestRunClampsBatchToRemainingBudget(t *testing.T) {
	tenantID := uuid.New()
	settings := enabledSettings(tenantID)
	settings.DailyCallLimit = 100
	settings.BatchSize = 10
	store := &fakeStore{settings: settings, leads: someLeads(10)}
	starter := &fakeStarter{}
	svc := newTestService(store, starter, &fakeCounter{count: 97}, insideWindow)

	summary, err := svc.Run(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.batchCap != 3 {
		t.Fatalf("expected batch clamped to 3, got %d", store.batchCap)
	}
	if summary.CallsMade != 3 {
		t.Fatalf("expected 3 dispatches, got %d", summary.CallsMade)
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{settings: enabledSettings(tenantID), leads: someLeads(3)}
	starter := &fakeStarter{failFor: map[uuid.UUID]bool{store.leads[1].ID: true}}
	svc := newTestService(store, starter, &fakeCounter{}, insideWindow)

	summary, err := svc.Run(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", summary.Status)
	}
	if summary.CallsMade != 2 || summary.CallsFailed != 1 {
		t.Fatalf("expected 2 made 1 failed, got %+v", summary)
	}
	if starter.started[0] != store.leads[0].ID || starter.started[1] != store.leads[2].ID {
		t.Fatal("expected dispatch to skip only the failing lead, in order")
	}
}

func TestRunStopsBetweenDispatchesOnCancel(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{settings: enabledSettings(tenantID), leads: someLeads(5)}

	ctx, cancel := context.WithCancel(context.Background())
	starter := &fakeStarter{onStart: cancel}
	svc := newTestService(store, starter, &fakeCounter{}, insideWindow)

	summary, err := svc.Run(ctx, tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", summary.Status)
	}
	if len(starter.started) != 1 {
		t.Fatalf("cancel must stop between dispatches, got %d dispatches", len(starter.started))
	}
}

func TestRunDisabledTenant(t *testing.T) {
	tenantID := uuid.New()
	settings := repository.DefaultSettings(tenantID)
	store := &fakeStore{settings: settings, leads: someLeads(3)}
	starter := &fakeStarter{}
	svc := newTestService(store, starter, &fakeCounter{}, insideWindow)

	summary, err := svc.Run(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Status != StatusSkippedOff || len(starter.started) != 0 {
		t.Fatalf("expected disabled skip, got %+v", summary)
	}
}
