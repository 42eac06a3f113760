// Package webhook reconciles voice provider events into lead, call and
// analytics state.
package webhook

import (
	"dialer_backend/internal/events"
	apphttp "dialer_backend/internal/http"
	"dialer_backend/platform/config"
	"dialer_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	service *Service
	handler *Handler
	config  config.WebhookConfig
}

// Deps are the collaborating services the reconciler writes through.
type Deps struct {
	Calls     CallStore
	Leads     LeadResolver
	Analytics AnalyticsRecorder
	EventBus  events.Bus
	Enqueuer  ReconcileEnqueuer
	Archiver  ArchiveEnqueuer
}

// NewModule creates and initializes the webhook module.
func NewModule(pool *pgxpool.Pool, deps Deps, cfg config.WebhookConfig, log *logger.Logger) *Module {
	svc := NewService(deps.Calls, deps.Leads, deps.Analytics, NewRepository(pool), deps.Archiver, deps.EventBus, log)

	return &Module{
		service: svc,
		handler: NewHandler(svc, deps.Enqueuer, log),
		config:  cfg,
	}
}

// Service exposes the reconciler for the worker binary.
func (m *Module) Service() *Service {
	return m.service
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the public webhook endpoint. It sits outside the
// auth group: the provider cannot present a JWT. Rate limiting and the
// optional HMAC signature stand in for authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook")
	group.Use(ctx.WebhookRateLimiter.RateLimit())
	group.Use(SignatureMiddleware(m.config.GetWebhookSigningSecret()))
	group.POST("/voice", m.handler.HandleVoiceEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
