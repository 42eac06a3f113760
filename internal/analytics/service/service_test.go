package service

import (
	"context"
	"testing"
	"time"

	"dialer_backend/internal/analytics/domain"
	"dialer_backend/internal/analytics/repository"
	"dialer_backend/internal/voice"
	"dialer_backend/platform/apperr"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	increments []repository.IncrementParams
	timezone   string
}

func (f *fakeStore) Increment(_ context.Context, params repository.IncrementParams) error {
	f.increments = append(f.increments, params)
	return nil
}

func (f *fakeStore) Range(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.DailyStats, error) {
	return nil, nil
}

func (f *fakeStore) TenantTimezone(_ context.Context, _ uuid.UUID) (string, error) {
	if f.timezone == "" {
		return "UTC", nil
	}
	return f.timezone, nil
}

func TestRecordOutcomeCompletedLongCall(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, logger.New("development"))

	err := svc.RecordOutcome(context.Background(), Outcome{
		TenantID:        uuid.New(),
		Status:          voice.StatusCompleted,
		DurationSeconds: 95,
		MeetingBooked:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.increments[0]
	if got.CallsMade != 1 || got.CallsConnected != 1 || got.CallsCompleted != 1 {
		t.Fatalf("expected made/connected/completed all 1, got %+v", got)
	}
	if got.CallsFailed != 0 {
		t.Fatalf("completed call must not count as failed, got %+v", got)
	}
	if got.MeetingsBooked != 1 || got.DurationSeconds != 95 {
		t.Fatalf("expected meeting and duration recorded, got %+v", got)
	}
}

func TestRecordOutcomeShortCallNotConnected(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, logger.New("development"))

	err := svc.RecordOutcome(context.Background(), Outcome{
		TenantID:        uuid.New(),
		Status:          voice.StatusNoAnswer,
		DurationSeconds: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.increments[0]
	if got.CallsConnected != 0 {
		t.Fatalf("4s call must not count as connected, got %+v", got)
	}
	if got.CallsCompleted != 0 || got.CallsFailed != 0 {
		t.Fatalf("no_answer is neither completed nor failed, got %+v", got)
	}
}

func TestRecordOutcomeBucketsByTenantLocalDay(t *testing.T) {
	store := &fakeStore{timezone: "America/Los_Angeles"}
	svc := NewService(store, logger.New("development"))
	// 03:00 UTC on Sep 1 is still Aug 31 on the US west coast.
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)
	}

	err := svc.RecordOutcome(context.Background(), Outcome{
		TenantID: uuid.New(),
		Status:   voice.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if day := store.increments[0].Day.Format("2006-01-02"); day != "2026-08-31" {
		t.Fatalf("expected tenant-local day 2026-08-31, got %s", day)
	}
}

func TestDailyRejectsInvertedRange(t *testing.T) {
	svc := NewService(&fakeStore{}, logger.New("development"))

	from := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Daily(context.Background(), uuid.New(), from, to)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
