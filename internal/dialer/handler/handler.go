// Package handler exposes the cron-triggered dialer endpoint.
package handler

import (
	"crypto/subtle"
	"net/http"

	"dialer_backend/internal/dialer/service"
	"dialer_backend/platform/httpkit"
	"dialer_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles dialer trigger requests.
type Handler struct {
	service    *service.Service
	cronSecret string
	log        *logger.Logger
}

// NewHandler creates a new dialer handler.
func NewHandler(svc *service.Service, cronSecret string, log *logger.Logger) *Handler {
	return &Handler{service: svc, cronSecret: cronSecret, log: log}
}

// HandleTrigger runs the scheduler. With a tenantId query it runs one
// tenant and returns its summary; without, it runs every enabled tenant.
// Protected by the X-Cron-Secret header, not a JWT: the caller is a cron
// job, not a user.
// POST /api/v1/dialer/trigger
func (h *Handler) HandleTrigger(c *gin.Context) {
	if h.cronSecret == "" {
		httpkit.Error(c, http.StatusServiceUnavailable, "dialer trigger not configured", nil)
		return
	}
	provided := c.GetHeader("X-Cron-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.cronSecret)) != 1 {
		httpkit.Error(c, http.StatusUnauthorized, "invalid cron secret", nil)
		return
	}

	if raw := c.Query("tenantId"); raw != "" {
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid tenant ID", nil)
			return
		}
		summary, err := h.service.Run(c.Request.Context(), tenantID)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, summary)
		return
	}

	summaries, err := h.service.RunAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summaries)
}
