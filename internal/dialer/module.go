// Package dialer provides the auto-dialer bounded context module.
package dialer

import (
	"dialer_backend/internal/dialer/handler"
	"dialer_backend/internal/dialer/repository"
	"dialer_backend/internal/dialer/service"
	apphttp "dialer_backend/internal/http"
	"dialer_backend/platform/config"
	"dialer_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the dialer bounded context module implementing http.Module.
type Module struct {
	repository *repository.Repository
	service    *service.Service
	handler    *handler.Handler
}

// NewModule creates and initializes the dialer module.
func NewModule(pool *pgxpool.Pool, calls service.CallStarter, counter service.CallCounter, cfg config.DialerConfig, log *logger.Logger) *Module {
	repo := repository.NewRepository(pool)
	svc := service.NewService(repo, calls, counter, log)

	return &Module{
		repository: repo,
		service:    svc,
		handler:    handler.NewHandler(svc, cfg.GetCronSecret(), log),
	}
}

// Service exposes the scheduler for the worker binary's tick loop.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the settings store for the tick dispatcher.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dialer"
}

// RegisterRoutes mounts the cron trigger outside the auth group; the
// handler enforces the cron secret itself.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/dialer")
	group.POST("/trigger", m.handler.HandleTrigger)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
