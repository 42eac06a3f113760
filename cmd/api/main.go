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
	apphttp "dialer_backend/internal/http"
	"dialer_backend/internal/http/router"
	"dialer_backend/internal/leads"
	"dialer_backend/internal/notification"
	"dialer_backend/internal/scheduler"
	"dialer_backend/internal/voice"
	"dialer_backend/internal/webhook"
	"dialer_backend/migrations"
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

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Voice provider client. Unconfigured is allowed: inbound webhooks and
	// read endpoints keep working, only outbound dialing is refused.
	voiceClient := voice.NewClient(cfg, log)
	if !cfg.IsVoiceProviderEnabled() {
		log.Warn("voice provider not configured; outbound calls disabled")
	}

	// Task queue client for handing webhook reconciliation and recording
	// archival to the worker. Without Redis the API reconciles inline.
	var enqueuer webhook.ReconcileEnqueuer
	var archiveEnqueuer webhook.ArchiveEnqueuer
	if cfg.GetRedisURL() != "" {
		schedClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer schedClient.Close()
		enqueuer = schedClient
		archiveEnqueuer = schedClient
		log.Info("task queue client initialized", "queue", cfg.GetAsynqQueue())
	} else {
		log.Warn("REDIS_URL not configured; webhooks reconcile inline and recordings are not archived")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, val, log)
	callsModule := calls.NewModule(pool, voiceClient, leadsModule.Service(), eventBus, val, log)
	analyticsModule := analytics.NewModule(pool, val, log)
	webhookModule := webhook.NewModule(pool, webhook.Deps{
		Calls:     callsModule.Repository(),
		Leads:     leadsModule.Service(),
		Analytics: analyticsModule.Service(),
		EventBus:  eventBus,
		Enqueuer:  enqueuer,
		Archiver:  archiveEnqueuer,
	}, cfg, log)
	dialerModule := dialer.NewModule(pool, callsModule.Service(), callsModule.Repository(), cfg, log)

	// Notification module subscribes to domain events (not HTTP-facing)
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

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			callsModule,
			analyticsModule,
			webhookModule,
			dialerModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
