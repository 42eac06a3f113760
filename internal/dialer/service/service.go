// Package service implements the auto-dialer scheduler.
package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	callsdomain "dialer_backend/internal/calls/domain"
	callservice "dialer_backend/internal/calls/service"
	"dialer_backend/internal/dialer/repository"
	leaddomain "dialer_backend/internal/leads/domain"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Run statuses reported in the summary.
const (
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
	StatusSkippedWindow  = "skipped:outside_window"
	StatusSkippedLimit   = "skipped:limit_reached"
	StatusSkippedOff     = "skipped:disabled"
	StatusSkippedNoLeads = "skipped:no_callable_leads"
)

// Store supplies settings and lead batches. Satisfied by
// *repository.Repository.
type Store interface {
	GetSettings(ctx context.Context, tenantID uuid.UUID) (repository.Settings, error)
	ListEnabledTenants(ctx context.Context) ([]uuid.UUID, error)
	SelectCallableLeads(ctx context.Context, tenantID uuid.UUID, limit, maxAttempts int) ([]leaddomain.Lead, error)
}

// CallStarter dispatches one outbound call. Satisfied by
// *callservice.Service.
type CallStarter interface {
	Start(ctx context.Context, tenantID uuid.UUID, params callservice.StartParams) (callsdomain.Call, error)
}

// CallCounter reports today's outbound volume. Satisfied by the calls
// repository.
type CallCounter interface {
	CountOutboundSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error)
}

// RunSummary is the outcome of one scheduler invocation for one tenant.
type RunSummary struct {
	Status      string `json:"status"`
	CallsMade   int    `json:"callsMade"`
	CallsFailed int    `json:"callsFailed"`
	TotalToday  int    `json:"totalToday"`
}

// Service is the auto-dialer scheduler. Dispatch within a tenant is
// strictly sequential with a pacing delay; tenants run in parallel.
type Service struct {
	store   Store
	calls   CallStarter
	counter CallCounter
	log     *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewService creates a new dialer service.
func NewService(store Store, calls CallStarter, counter CallCounter, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		calls:   calls,
		counter: counter,
		log:     log,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Run executes one scheduler pass for the tenant: window gate, volume
// gate, selection, then sequential paced dispatch. A per-call failure is
// recorded and the batch continues; only store failures abort the run.
func (s *Service) Run(ctx context.Context, tenantID uuid.UUID) (RunSummary, error) {
	settings, err := s.store.GetSettings(ctx, tenantID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load dialer settings: %w", err)
	}
	if !settings.Enabled {
		return RunSummary{Status: StatusSkippedOff}, nil
	}

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		s.log.Warn("invalid dialer timezone, using UTC", "tenantId", tenantID, "timezone", settings.Timezone)
		loc = time.UTC
	}
	localNow := s.now().In(loc)

	if !inWorkingWindow(localNow, settings) {
		return RunSummary{Status: StatusSkippedWindow}, nil
	}

	startOfDay := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc)
	totalToday, err := s.counter.CountOutboundSince(ctx, tenantID, startOfDay)
	if err != nil {
		return RunSummary{}, fmt.Errorf("count today's calls: %w", err)
	}
	if totalToday >= settings.DailyCallLimit {
		return RunSummary{Status: StatusSkippedLimit, TotalToday: totalToday}, nil
	}

	budget := settings.BatchSize
	if remaining := settings.DailyCallLimit - totalToday; remaining < budget {
		budget = remaining
	}

	leads, err := s.store.SelectCallableLeads(ctx, tenantID, budget, settings.MaxAttemptsPerLead)
	if err != nil {
		return RunSummary{}, fmt.Errorf("select callable leads: %w", err)
	}
	if len(leads) == 0 {
		return RunSummary{Status: StatusSkippedNoLeads, TotalToday: totalToday}, nil
	}

	summary := RunSummary{Status: StatusCompleted, TotalToday: totalToday}
	pacing := time.Duration(settings.PacingSeconds) * time.Second

	for i, lead := range leads {
		// Cancellation is honored between dispatches, never mid-dispatch.
		if ctx.Err() != nil {
			summary.Status = StatusCancelled
			break
		}

		leadID := lead.ID
		_, err := s.calls.Start(ctx, tenantID, callservice.StartParams{LeadID: &leadID})
		if err != nil {
			summary.CallsFailed++
			s.log.Error("dialer dispatch failed", "error", err, "tenantId", tenantID, "leadId", leadID)
		} else {
			summary.CallsMade++
			summary.TotalToday++
		}

		if i < len(leads)-1 {
			if err := s.sleep(ctx, pacing); err != nil {
				summary.Status = StatusCancelled
				break
			}
		}
	}

	s.log.Info("dialer run finished", "tenantId", tenantID, "status", summary.Status,
		"callsMade", summary.CallsMade, "callsFailed", summary.CallsFailed, "totalToday", summary.TotalToday)
	return summary, nil
}

// RunAll runs the scheduler for every enabled tenant in parallel.
func (s *Service) RunAll(ctx context.Context) (map[uuid.UUID]RunSummary, error) {
	tenants, err := s.store.ListEnabledTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled tenants: %w", err)
	}

	summaries := make([]RunSummary, len(tenants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, tenantID := range tenants {
		g.Go(func() error {
			summary, err := s.Run(gctx, tenantID)
			if err != nil {
				s.log.Error("dialer run failed", "error", err, "tenantId", tenantID)
				return nil
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]RunSummary, len(tenants))
	for i, tenantID := range tenants {
		result[tenantID] = summaries[i]
	}
	return result, nil
}

func inWorkingWindow(localNow time.Time, settings repository.Settings) bool {
	if slices.Contains(settings.ExcludedWeekdays, int(localNow.Weekday())) {
		return false
	}
	hour := localNow.Hour()
	return hour >= settings.WorkingHoursStart && hour < settings.WorkingHoursEnd
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
