// Package handler exposes the call lifecycle API.
package handler

import (
	"net/http"

	"dialer_backend/internal/calls/service"
	"dialer_backend/internal/calls/transport"
	"dialer_backend/platform/httpkit"
	"dialer_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles call HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// NewHandler creates a new calls handler.
func NewHandler(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleStart places an outbound call.
// POST /api/v1/calls
func (h *Handler) HandleStart(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}
	if req.LeadID == nil && req.ToNumber == "" {
		httpkit.Error(c, http.StatusBadRequest, "either leadId or toNumber is required", nil)
		return
	}

	call, err := h.service.Start(c.Request.Context(), tenantID, service.StartParams{
		LeadID:     req.LeadID,
		ToNumber:   req.ToNumber,
		CampaignID: req.CampaignID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToCallResponse(call))
}

// HandleGet returns call state, falling back to the provider when the
// record is unknown locally.
// GET /api/v1/calls/:callId
func (h *Handler) HandleGet(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.service.Get(c.Request.Context(), tenantID, c.Param("callId"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToGetResponse(result))
}

// HandleEnd hangs up a live call. Repeats are no-ops.
// POST /api/v1/calls/:callId/end
func (h *Handler) HandleEnd(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	call, err := h.service.End(c.Request.Context(), tenantID, c.Param("callId"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToCallResponse(call))
}

// HandleDisposition records the agent's outcome for a call.
// POST /api/v1/calls/:callId/disposition
func (h *Handler) HandleDisposition(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.DispositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	call, err := h.service.Disposition(c.Request.Context(), tenantID, c.Param("callId"), req.Outcome)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToCallResponse(call))
}
