package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/marketplace/backend/internal/application/ordering"
	"github.com/marketplace/backend/internal/domain/ordering"
)

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	checkoutService *orderapp.CheckoutService
	orderService    *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkoutService *orderapp.CheckoutService, orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
	}
}

// Checkout places an order from the caller's cart
// POST /orders/from-cart
func (h *OrderHandler) Checkout(c *gin.Context) {
	guard, err := getCheckoutGuard(c)
	if err != nil {
		h.Unauthorized(c, "Caller identity is required")
		return
	}

	var req orderapp.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), guard, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetOrder retrieves one of the caller's orders
// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
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

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// ListOrders retrieves a page of the caller's orders
// GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	callerID, err := getCallerID(c)
	if err != nil {
		h.Unauthorized(c, "Caller identity is required")
		return
	}

	var filter orderapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.orderService.ListBuyerOrders(c.Request.Context(), callerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// TransitionOrder moves an order along its lifecycle
// POST /orders/:id/transition
func (h *OrderHandler) TransitionOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req orderapp.TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	target := ordering.OrderStatus(req.Status)
	if !target.IsValid() {
		h.BadRequest(c, "Unknown order status")
		return
	}

	order, err := h.orderService.TransitionOrder(c.Request.Context(), orderID, target)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// CancelOrder cancels one of the caller's orders
// POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
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

	var req orderapp.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, callerID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("/from-cart", h.Checkout)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/transition", h.TransitionOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}
