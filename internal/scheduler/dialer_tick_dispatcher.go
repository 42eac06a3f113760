package scheduler

import (
	"context"
	"time"

	dialerrepo "dialer_backend/internal/dialer/repository"
	"dialer_backend/platform/config"
	"dialer_backend/platform/logger"
)

const defaultDialerTickInterval = time.Minute

// DialerTickDispatcher periodically enqueues one dialer run task per
// enabled tenant. The runs themselves execute on the worker so a slow
// tenant never delays the tick.
type DialerTickDispatcher struct {
	client   *Client
	repo     *dialerrepo.Repository
	log      *logger.Logger
	interval time.Duration
}

func NewDialerTickDispatcher(client *Client, repo *dialerrepo.Repository, cfg config.DialerConfig, log *logger.Logger) *DialerTickDispatcher {
	interval := cfg.GetDialerTickInterval()
	if interval <= 0 {
		interval = defaultDialerTickInterval
	}

	return &DialerTickDispatcher{
		client:   client,
		repo:     repo,
		log:      log,
		interval: interval,
	}
}

func (d *DialerTickDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tenants, err := d.repo.ListEnabledTenants(ctx)
		if err != nil {
			d.log.Warn("dialer tick tenant listing failed", "error", err)
			continue
		}

		for _, tenantID := range tenants {
			if err := d.client.EnqueueDialerRun(ctx, tenantID); err != nil {
				d.log.Warn("dialer tick enqueue failed", "error", err, "tenantId", tenantID)
			}
		}
	}
}
