package scheduler

import (
	"context"
	"time"

	callservice "dialer_backend/internal/calls/service"
	"dialer_backend/platform/config"
	"dialer_backend/platform/logger"
)

const (
	defaultStaleSweepInterval = 10 * time.Minute
	defaultStaleCallBound     = 2 * time.Hour
)

// StaleCallSweeper periodically fails calls stuck in a live status. A
// call whose terminal webhook never arrived would otherwise stay open
// forever.
type StaleCallSweeper struct {
	calls    *callservice.Service
	log      *logger.Logger
	interval time.Duration
	bound    time.Duration
}

func NewStaleCallSweeper(calls *callservice.Service, cfg config.DialerConfig, log *logger.Logger) *StaleCallSweeper {
	interval := cfg.GetStaleCallSweepInterval()
	if interval <= 0 {
		interval = defaultStaleSweepInterval
	}
	bound := cfg.GetStaleCallBound()
	if bound <= 0 {
		bound = defaultStaleCallBound
	}

	return &StaleCallSweeper{
		calls:    calls,
		log:      log,
		interval: interval,
		bound:    bound,
	}
}

func (s *StaleCallSweeper) Run(ctx context.Context) {
	if s == nil || s.calls == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StaleCallSweeper) sweep(ctx context.Context) {
	swept, err := s.calls.SweepStale(ctx, s.bound)
	if err != nil {
		s.log.Warn("stale call sweep failed", "error", err)
		return
	}

	if swept > 0 {
		s.log.Info("stale call sweep failed stuck calls", "swept", swept)
	}
}
