// The dialer worker runs the asynq consumer plus the periodic loops: the
// dialer tick dispatcher and the stale call sweeper. It shares the domain
// modules with the API binary but registers no HTTP routes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dialer_backend/internal/analytics"
	"dialer_backend/internal/calls"
	"dialer_backend/internal/dialer"
	"dialer_backend/internal/events"
	"dialer_backend/internal/leads"
	"dialer_backend/internal/notification"
	"dialer_backend/internal/scheduler"
	"dialer_backend/internal/storage"
	"dialer_backend/internal/voice"
	"dialer_backend/internal/webhook"
	"dialer_backend/platform/config"
	"dialer_backend/platform/db"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting dialer worker", "env", cfg.Env, "queue", cfg.GetAsynqQueue())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The API binary owns migrations; the worker only needs a pool.
	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	schedClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer schedClient.Close()

	voiceClient := voice.NewClient(cfg, log)
	if !cfg.IsVoiceProviderEnabled() {
		log.Warn("voice provider not configured; dialer runs will fail to dispatch")
	}

	// ========================================================================
	// Domain Modules
	// ========================================================================

	leadsModule := leads.NewModule(pool, val, log)
	callsModule := calls.NewModule(pool, voiceClient, leadsModule.Service(), eventBus, val, log)
	analyticsModule := analytics.NewModule(pool, val, log)
	webhookModule := webhook.NewModule(pool, webhook.Deps{
		Calls:     callsModule.Repository(),
		Leads:     leadsModule.Service(),
		Analytics: analyticsModule.Service(),
		EventBus:  eventBus,
		Archiver:  schedClient,
	}, cfg, log)
	dialerModule := dialer.NewModule(pool, callsModule.Service(), callsModule.Repository(), cfg, log)

	if cfg.IsSMTPEnabled() {
		notificationService := notification.NewService(
			notification.NewSMTPSender(cfg),
			notification.NewRepository(pool),
			leadsModule.Service(),
			log,
		)
		notificationService.Subscribe(eventBus)
		log.Info("email notifications enabled", "from", cfg.GetSMTPFromAddress())
	} else {
		log.Warn("SMTP not configured; email notifications disabled")
	}

	// Recording archival needs object storage; without it the task handler
	// is disabled and recording URLs stay provider-hosted.
	var archiver scheduler.RecordingArchiver
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure recordings bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		archiver = storage.NewRecordingArchiver(storageSvc, callsModule.Repository(), log)
		log.Info("recording archiver initialized", "bucket", cfg.GetMinioBucketRecordings())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; recording archival disabled")
	}

	// ========================================================================
	// Worker Layer
	// ========================================================================

	worker, err := scheduler.NewWorker(cfg, webhookModule.Service(), dialerModule.Service(), archiver, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	dispatcher := scheduler.NewDialerTickDispatcher(schedClient, dialerModule.Repository(), cfg, log)
	sweeper := scheduler.NewStaleCallSweeper(callsModule.Service(), cfg, log)

	go dispatcher.Run(ctx)
	go sweeper.Run(ctx)

	// Blocks until the context is cancelled and the asynq server drains.
	worker.Run(ctx)
	log.Info("dialer worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
