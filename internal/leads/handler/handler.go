// Package handler exposes the leads read API.
package handler

import (
	"net/http"

	"dialer_backend/internal/leads/repository"
	"dialer_backend/internal/leads/service"
	"dialer_backend/internal/leads/transport"
	"dialer_backend/platform/httpkit"
	"dialer_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles lead HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// NewHandler creates a new leads handler.
func NewHandler(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleList returns leads for the tenant.
// GET /api/v1/leads
func (h *Handler) HandleList(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	leads, err := h.service.List(c.Request.Context(), tenantID, repository.ListFilter{
		Status: query.Status,
		Score:  query.Score,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		result[i] = transport.ToLeadResponse(lead)
	}
	httpkit.OK(c, result)
}

// HandleGet returns a single lead.
// GET /api/v1/leads/:leadId
func (h *Handler) HandleGet(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return
	}

	lead, err := h.service.Get(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}
