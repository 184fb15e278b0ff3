package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentapp "github.com/marketplace/backend/internal/application/payment"
)

// SignatureHeader carries the provider's webhook signature
const SignatureHeader = "X-Provider-Signature"

// WebhookHandler receives payment provider webhook deliveries
type WebhookHandler struct {
	BaseHandler
	webhookService *paymentapp.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *paymentapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// HandlePaymentWebhook ingests one provider delivery. A 2xx acknowledges the
// delivery; the provider retries anything else, so transient failures must
// map to 5xx and dispositioned events (applied, stale, skipped, duplicate)
// to 200.
// POST /webhooks/payment
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	result, err := h.webhookService.Ingest(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers all webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/payment", h.HandlePaymentWebhook)
}
