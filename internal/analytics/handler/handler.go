// Package handler exposes the analytics read API.
package handler

import (
	"net/http"
	"time"

	"dialer_backend/internal/analytics/service"
	"dialer_backend/internal/analytics/transport"
	"dialer_backend/platform/httpkit"
	"dialer_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles analytics HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// NewHandler creates a new analytics handler.
func NewHandler(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleDaily returns the tenant's daily rollups for a date range.
// GET /api/v1/analytics/daily
func (h *Handler) HandleDaily(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var query transport.DailyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	var from, to time.Time
	if query.From != "" {
		from, _ = time.Parse("2006-01-02", query.From)
	}
	if query.To != "" {
		to, _ = time.Parse("2006-01-02", query.To)
	}

	stats, err := h.service.Daily(c.Request.Context(), tenantID, from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.DailyStatsResponse, len(stats))
	for i, day := range stats {
		result[i] = transport.ToDailyStatsResponse(day)
	}
	httpkit.OK(c, result)
}
