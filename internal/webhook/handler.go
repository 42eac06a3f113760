package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"dialer_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// ReconcileEnqueuer hands the raw event to the worker queue. Nil falls
// back to synchronous processing, for deployments without redis.
type ReconcileEnqueuer interface {
	EnqueueWebhookReconcile(ctx context.Context, payload []byte) error
}

// Handler accepts provider webhook deliveries. It queues and acks: the
// provider gets a fast 200 regardless of downstream store latency, and
// redeliveries are harmless because the reconciler is idempotent.
type Handler struct {
	service  *Service
	enqueuer ReconcileEnqueuer
	log      *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, enqueuer ReconcileEnqueuer, log *logger.Logger) *Handler {
	return &Handler{service: service, enqueuer: enqueuer, log: log}
}

// HandleVoiceEvent receives one provider event.
// POST /api/v1/webhook/voice
func (h *Handler) HandleVoiceEvent(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	var event ProviderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
		return
	}

	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueWebhookReconcile(c.Request.Context(), body); err == nil {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		h.log.Error("webhook enqueue failed, processing inline", "providerCallId", event.Call.CallID)
	}

	// No queue available: reconcile inline. Dropped events still ack;
	// a store failure returns 500 so the provider retries.
	if err := h.service.Process(c.Request.Context(), event); err != nil {
		h.log.Error("webhook reconcile failed", "error", err, "providerCallId", event.Call.CallID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
