// Package leads provides the leads bounded context module.
package leads

import (
	apphttp "dialer_backend/internal/http"
	"dialer_backend/internal/leads/handler"
	"dialer_backend/internal/leads/repository"
	"dialer_backend/internal/leads/service"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewRepository(pool)
	svc := service.NewService(repo, log)

	return &Module{
		service: svc,
		handler: handler.NewHandler(svc, val),
	}
}

// Service exposes the lead service for other modules (webhook reconciler, calls).
func (m *Module) Service() *service.Service {
	return m.service
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	group.GET("", m.handler.HandleList)
	group.GET("/:leadId", m.handler.HandleGet)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
