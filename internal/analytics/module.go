// Package analytics provides the call analytics bounded context module.
package analytics

import (
	"dialer_backend/internal/analytics/handler"
	"dialer_backend/internal/analytics/repository"
	"dialer_backend/internal/analytics/service"
	apphttp "dialer_backend/internal/http"
	"dialer_backend/platform/logger"
	"dialer_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the analytics bounded context module implementing http.Module.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

// NewModule creates and initializes the analytics module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.NewService(repository.NewRepository(pool), log)

	return &Module{
		service: svc,
		handler: handler.NewHandler(svc, val),
	}
}

// Service exposes the analytics service for the webhook reconciler.
func (m *Module) Service() *service.Service {
	return m.service
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// RegisterRoutes mounts analytics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/analytics")
	group.GET("/daily", m.handler.HandleDaily)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
