// Package calls provides the call lifecycle bounded context module.
package calls

import (
	"dialer_backend/internal/calls/handler"
	"dialer_backend/internal/calls/repository"
	"dialer_backend/internal/calls/service"
	"dialer_backend/internal/events"
	apphttp "dialer_backend/internal/http"
	"dialer_backend/internal/voice"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	repository *repository.Repository
	service    *service.Service
	handler    *handler.Handler
}

// NewModule creates and initializes the calls module with all its dependencies.
func NewModule(pool *pgxpool.Pool, provider *voice.Client, leads service.LeadReader, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewRepository(pool)
	svc := service.NewService(repo, provider, leads, eventBus, log)

	return &Module{
		repository: repo,
		service:    svc,
		handler:    handler.NewHandler(svc, val),
	}
}

// Service exposes the call service for other modules (dialer, scheduler).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the call store for the webhook reconciler.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// RegisterRoutes mounts call routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/calls")
	group.POST("", m.handler.HandleStart)
	group.GET("/:callId", m.handler.HandleGet)
	group.POST("/:callId/end", m.handler.HandleEnd)
	group.POST("/:callId/disposition", m.handler.HandleDisposition)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
