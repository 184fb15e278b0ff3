package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/ordering"
)

// ==================== Checkout DTOs ====================

// CheckoutItemInput represents one cart line in a checkout request.
// ExpectedUnitPrice is the price the buyer saw; when set, checkout fails if
// the catalog price has since risen above it.
type CheckoutItemInput struct {
	ProductID         uuid.UUID        `json:"product_id" binding:"required"`
	Quantity          int              `json:"quantity" binding:"required,min=1"`
	ExpectedUnitPrice *decimal.Decimal `json:"expected_unit_price,omitempty"`
}

// ShippingAddressInput represents the shipping address in a checkout request
type ShippingAddressInput struct {
	Name       string `json:"name" binding:"required,min=1,max=200"`
	Phone      string `json:"phone" binding:"required,min=1,max=50"`
	Line1      string `json:"line1" binding:"required,min=1,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,min=1,max=100"`
	Region     string `json:"region" binding:"required,min=1,max=100"`
	PostalCode string `json:"postal_code" binding:"required,min=1,max=20"`
	Country    string `json:"country" binding:"required,len=2"`
}

// CheckoutRequest represents a request to place an order
type CheckoutRequest struct {
	Items           []CheckoutItemInput  `json:"items" binding:"required,min=1"`
	ShippingAddress ShippingAddressInput `json:"shipping_address" binding:"required"`
	PaymentMethod   string               `json:"payment_method" binding:"max=50"`
	Notes           string               `json:"notes" binding:"max=1000"`
}

// ==================== Order DTOs ====================

// TransitionOrderRequest represents a request to move an order along its lifecycle
type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// OrderListFilter represents filter options for order lists
type OrderListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order line item in API responses
type OrderItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	SellerID           uuid.UUID       `json:"seller_id"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description,omitempty"`
	Category           string          `json:"category,omitempty"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	BuyerID         uuid.UUID           `json:"buyer_id"`
	Status          string              `json:"status"`
	Items           []OrderItemResponse `json:"items"`
	ItemCount       int                 `json:"item_count"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	Currency        string              `json:"currency"`
	ShippingAddress ShippingAddressInput `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	PaymentStatus   string              `json:"payment_status"`
	Notes           string              `json:"notes,omitempty"`
	PlacedAt        time.Time           `json:"placed_at"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Version         int                 `json:"version"`
}

// ToOrderItemResponse converts a domain order item to a response DTO
func ToOrderItemResponse(item *ordering.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:                 item.ID,
		ProductID:          item.ProductID,
		SellerID:           item.SellerID,
		ProductName:        item.ProductNameSnapshot,
		ProductDescription: item.ProductDescriptionSnapshot,
		Category:           item.CategorySnapshot,
		Quantity:           item.Quantity,
		UnitPrice:          item.UnitPriceSnapshot,
		Subtotal:           item.Subtotal,
	}
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(order *ordering.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = ToOrderItemResponse(&order.Items[i])
	}

	return OrderResponse{
		ID:           order.ID,
		BuyerID:      order.BuyerID,
		Status:       string(order.Status),
		Items:        items,
		ItemCount:    order.ItemCount(),
		TotalAmount:  order.TotalAmount,
		ShippingCost: order.ShippingCost,
		TaxAmount:    order.TaxAmount,
		Currency:     string(order.Currency),
		ShippingAddress: ShippingAddressInput{
			Name:       order.ShippingAddress.Name,
			Phone:      order.ShippingAddress.Phone,
			Line1:      order.ShippingAddress.Line1,
			Line2:      order.ShippingAddress.Line2,
			City:       order.ShippingAddress.City,
			Region:     order.ShippingAddress.Region,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: string(order.PaymentStatus),
		Notes:         order.Notes,
		PlacedAt:      order.PlacedAt,
		ConfirmedAt:   order.ConfirmedAt,
		ShippedAt:     order.ShippedAt,
		DeliveredAt:   order.DeliveredAt,
		CancelledAt:   order.CancelledAt,
		CancelReason:  order.CancelReason,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Version:       order.Version,
	}
}

// ToOrderResponses converts a slice of domain orders
func ToOrderResponses(orders []*ordering.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = ToOrderResponse(order)
	}
	return responses
}
