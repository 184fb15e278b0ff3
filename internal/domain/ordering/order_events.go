package ordering

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced    = "OrderPlaced"
	EventTypeOrderConfirmed = "OrderConfirmed"
	EventTypeOrderCancelled = "OrderCancelled"
)

// OrderItemInfo represents item information carried by order events
type OrderItemInfo struct {
	ItemID      uuid.UUID       `json:"item_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

func itemInfos(order *Order) []OrderItemInfo {
	items := make([]OrderItemInfo, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemInfo{
			ItemID:      item.ID,
			ProductID:   item.ProductID,
			SellerID:    item.SellerID,
			ProductName: item.ProductNameSnapshot,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPriceSnapshot,
			Subtotal:    item.Subtotal,
		}
	}
	return items
}

// OrderPlacedEvent is raised when a new order is assembled at checkout
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItemInfo `json:"items"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(order *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		BuyerID:         order.BuyerID,
		TotalAmount:     order.TotalAmount,
		Items:           itemInfos(order),
	}
}

// OrderConfirmedEvent is raised when payment completes and the order is
// confirmed. It feeds the best-effort buyer notification.
type OrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItemInfo `json:"items"`
}

// NewOrderConfirmedEvent creates a new OrderConfirmedEvent
func NewOrderConfirmedEvent(order *Order) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderConfirmed, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		BuyerID:         order.BuyerID,
		TotalAmount:     order.TotalAmount,
		Items:           itemInfos(order),
	}
}

// OrderCancelledEvent is raised when an order reaches CANCELLED
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	BuyerID uuid.UUID `json:"buyer_id"`
	Reason  string    `json:"reason"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		BuyerID:         order.BuyerID,
		Reason:          order.CancelReason,
	}
}
