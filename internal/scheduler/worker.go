package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	dialerservice "dialer_backend/internal/dialer/service"
	"dialer_backend/internal/webhook"
	"dialer_backend/platform/config"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// RecordingArchiver downloads and stores one call recording. Satisfied
// by *storage.RecordingArchiver; nil disables the task.
type RecordingArchiver interface {
	Archive(ctx context.Context, providerCallID, recordingURL string) error
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	reconciler *webhook.Service
	dialer     *dialerservice.Service
	archiver   RecordingArchiver
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reconciler *webhook.Service, dialer *dialerservice.Service, archiver RecordingArchiver, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueue()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		reconciler: reconciler,
		dialer:     dialer,
		archiver:   archiver,
		log:        log,
	}

	mux.HandleFunc(TaskWebhookReconcile, w.handleWebhookReconcile)
	mux.HandleFunc(TaskDialerRun, w.handleDialerRun)
	mux.HandleFunc(TaskRecordingArchive, w.handleRecordingArchive)

	return w, nil
}

func (w *Worker) handleWebhookReconcile(ctx context.Context, task *asynq.Task) error {
	if w.reconciler == nil {
		return nil
	}

	var event webhook.ProviderEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		// A payload that never parses will never parse; do not retry.
		w.log.Error("webhook task payload malformed", "error", err)
		return nil
	}

	return w.reconciler.Process(ctx, event)
}

func (w *Worker) handleDialerRun(ctx context.Context, task *asynq.Task) error {
	if w.dialer == nil {
		return nil
	}

	payload, err := ParseDialerRunPayload(task)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	_, err = w.dialer.Run(ctx, tenantID)
	return err
}

func (w *Worker) handleRecordingArchive(ctx context.Context, task *asynq.Task) error {
	if w.archiver == nil {
		return nil
	}

	payload, err := ParseRecordingArchivePayload(task)
	if err != nil {
		return err
	}

	return w.archiver.Archive(ctx, payload.ProviderCallID, payload.RecordingURL)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
