package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/marketplace/backend/internal/application/ledger"
)

// PayoutHandler handles seller ledger and payout API endpoints
type PayoutHandler struct {
	BaseHandler
	payoutService *ledgerapp.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(payoutService *ledgerapp.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// GetBalance returns the seller's ledger position grouped by status
// GET /sellers/:id/balance
func (h *PayoutHandler) GetBalance(c *gin.Context) {
	sellerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid seller ID")
		return
	}

	balance, err := h.payoutService.Balance(c.Request.Context(), sellerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// ListRecords returns a page of the seller's ledger entries
// GET /sellers/:id/payouts
func (h *PayoutHandler) ListRecords(c *gin.Context) {
	sellerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid seller ID")
		return
	}

	var filter ledgerapp.RecordListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	records, err := h.payoutService.ListSellerRecords(c.Request.Context(), sellerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// PayOut pays every cleared ledger entry for the seller
// POST /sellers/:id/payouts
func (h *PayoutHandler) PayOut(c *gin.Context) {
	sellerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid seller ID")
		return
	}

	var req ledgerapp.PayoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	payout, err := h.payoutService.PayOutSeller(c.Request.Context(), sellerID, req.Method)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, payout)
}

// RegisterRoutes registers all payout routes
func (h *PayoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sellers := rg.Group("/sellers")
	{
		sellers.GET("/:id/balance", h.GetBalance)
		sellers.GET("/:id/payouts", h.ListRecords)
		sellers.POST("/:id/payouts", h.PayOut)
	}
}
