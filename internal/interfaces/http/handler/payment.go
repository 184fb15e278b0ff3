package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	paymentapp "github.com/marketplace/backend/internal/application/payment"
)

// PaymentHandler handles payment intent API endpoints
type PaymentHandler struct {
	BaseHandler
	intentService *paymentapp.IntentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(intentService *paymentapp.IntentService) *PaymentHandler {
	return &PaymentHandler{intentService: intentService}
}

// CreateIntent starts a payment attempt for the caller's order. The charged
// amount comes from the stored order; the request body carries no amount.
// POST /orders/:id/payment-intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	callerID, err := getCallerID(c)
	if err != nil {
		h.Unauthorized(c, "Caller identity is required")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	payment, err := h.intentService.CreateIntent(c.Request.Context(), orderID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, payment)
}

// GetPayment retrieves one of the caller's payment attempts
// GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	callerID, err := getCallerID(c)
	if err != nil {
		h.Unauthorized(c, "Caller identity is required")
		return
	}
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.intentService.GetPayment(c.Request.Context(), paymentID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// ListOrderPayments retrieves all payment attempts for the caller's order
// GET /orders/:id/payments
func (h *PaymentHandler) ListOrderPayments(c *gin.Context) {
	callerID, err := getCallerID(c)
	if err != nil {
		h.Unauthorized(c, "Caller identity is required")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	payments, err := h.intentService.ListOrderPayments(c.Request.Context(), orderID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders/:id/payment-intent", h.CreateIntent)
	rg.GET("/orders/:id/payments", h.ListOrderPayments)
	rg.GET("/payments/:id", h.GetPayment)
}
