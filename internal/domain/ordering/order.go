package ordering

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the status of a marketplace order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// The happy path is strictly linear; no edge skips are permitted.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusProcessing || target == OrderStatusCancelled
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	case OrderStatusDelivered:
		return target == OrderStatusRefunded
	case OrderStatusCancelled, OrderStatusRefunded:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true if the status is a terminal state
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// PaymentStatus is the order's view of its payment state. Values mirror the
// payment aggregate's status enumeration; the webhook path keeps them in sync.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// Metadata is an opaque key/value bag persisted as a JSON column
type Metadata map[string]string

// Value implements driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	return string(data), err
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}
	return json.Unmarshal(data, m)
}

// OrderItem represents a line item in an order.
// The snapshot fields freeze the catalog state at purchase time so later
// catalog edits never alter historical orders.
type OrderItem struct {
	ID                         uuid.UUID
	OrderID                    uuid.UUID
	ProductID                  uuid.UUID
	SellerID                   uuid.UUID
	ProductNameSnapshot        string
	ProductDescriptionSnapshot string
	CategorySnapshot           string
	Quantity                   int
	UnitPriceSnapshot          decimal.Decimal
	Subtotal                   decimal.Decimal
	CreatedAt                  time.Time
}

// NewOrderItem creates a new order item with snapshot pricing
func NewOrderItem(orderID, productID, sellerID uuid.UUID, name, description, category string, quantity int, unitPrice valueobject.Money) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	qty := decimal.NewFromInt(int64(quantity))
	return &OrderItem{
		ID:                         uuid.New(),
		OrderID:                    orderID,
		ProductID:                  productID,
		SellerID:                   sellerID,
		ProductNameSnapshot:        name,
		ProductDescriptionSnapshot: description,
		CategorySnapshot:           category,
		Quantity:                   quantity,
		UnitPriceSnapshot:          unitPrice.Amount(),
		Subtotal:                   unitPrice.Amount().Mul(qty),
		CreatedAt:                  time.Now(),
	}, nil
}

// SubtotalMoney returns the item subtotal as Money
func (i *OrderItem) SubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.Subtotal)
}

// Order represents a marketplace order aggregate root.
// It holds the buyer's immutable line-item snapshots and drives the order
// lifecycle from checkout to delivery.
type Order struct {
	shared.BaseAggregateRoot
	BuyerID         uuid.UUID
	Status          OrderStatus
	Items           []OrderItem `gorm:"foreignKey:OrderID"`
	TotalAmount     decimal.Decimal
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	Currency        valueobject.Currency
	ShippingAddress valueobject.ShippingAddress `gorm:"type:json"`
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	Notes           string
	Metadata        Metadata `gorm:"type:json"`
	PlacedAt        time.Time
	ConfirmedAt     *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// TableName pins the table name used by the persistence layer
func (Order) TableName() string {
	return "orders"
}

// TableName pins the table name used by the persistence layer
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrder creates a new order in PENDING status
func NewOrder(buyerID uuid.UUID, address valueobject.ShippingAddress, currency valueobject.Currency) (*Order, error) {
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if err := address.Validate(); err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %q", currency))
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuyerID:           buyerID,
		Status:            OrderStatusPending,
		Items:             make([]OrderItem, 0),
		TotalAmount:       decimal.Zero,
		ShippingCost:      decimal.Zero,
		TaxAmount:         decimal.Zero,
		Currency:          currency,
		ShippingAddress:   address,
		PaymentStatus:     PaymentStatusPending,
		PlacedAt:          time.Now(),
	}

	return order, nil
}

// AddItem adds a snapshot line item to the order.
// Only allowed while the order is still PENDING and unpaid.
func (o *Order) AddItem(productID, sellerID uuid.UUID, name, description, category string, quantity int, unitPrice valueobject.Money) (*OrderItem, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-pending order")
	}
	if o.PaymentStatus != PaymentStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items after payment has started")
	}

	for _, item := range o.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order")
		}
	}

	item, err := NewOrderItem(o.ID, productID, sellerID, name, description, category, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.Touch()

	return item, nil
}

// SetCharges sets the shipping and tax amounts and recalculates the total.
// Only allowed before the order is finalized at checkout.
func (o *Order) SetCharges(shippingCost, taxAmount decimal.Decimal) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot change charges on a non-pending order")
	}
	if shippingCost.IsNegative() || taxAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Shipping and tax cannot be negative")
	}

	o.ShippingCost = shippingCost
	o.TaxAmount = taxAmount
	o.recalculateTotal()
	o.Touch()

	return nil
}

// SetNotes sets the buyer-facing order notes
func (o *Order) SetNotes(notes string) {
	o.Notes = notes
	o.Touch()
}

// SetPaymentMethod records the payment method chosen at checkout
func (o *Order) SetPaymentMethod(method string) {
	o.PaymentMethod = method
	o.Touch()
}

// Finalize validates the assembled order before it is persisted
func (o *Order) Finalize() error {
	if len(o.Items) == 0 {
		return shared.ErrEmptyCart
	}
	if !o.CheckTotalInvariant() {
		return shared.NewDomainError("INVALID_AMOUNT", "Order total does not equal items plus charges")
	}
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// Transition applies a status change along the allowed edges of the state
// machine. Any other edge fails with an invalid transition error and leaves
// the order untouched.
func (o *Order) Transition(target OrderStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}

	now := time.Now()
	o.Status = target
	o.UpdatedAt = now

	switch target {
	case OrderStatusConfirmed:
		o.ConfirmedAt = &now
		o.AddDomainEvent(NewOrderConfirmedEvent(o))
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
		o.AddDomainEvent(NewOrderCancelledEvent(o))
	}

	return nil
}

// Cancel cancels the order with a reason
func (o *Order) Cancel(reason string) error {
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if err := o.Transition(OrderStatusCancelled); err != nil {
		return err
	}
	o.CancelReason = reason
	return nil
}

// ApplyPaymentOutcome is the derived transition invoked by the webhook path.
// A COMPLETED payment confirms a pending order. A FAILED payment leaves the
// order in PENDING so the buyer can retry. A CANCELLED payment is a terminal
// provider signal and cancels the order.
func (o *Order) ApplyPaymentOutcome(ps PaymentStatus) error {
	if !ps.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment status %q", ps))
	}

	o.PaymentStatus = ps
	o.Touch()

	switch ps {
	case PaymentStatusCompleted:
		if o.Status == OrderStatusPending {
			return o.Transition(OrderStatusConfirmed)
		}
	case PaymentStatusCancelled:
		if !o.Status.IsTerminal() {
			return o.Cancel("payment cancelled by provider")
		}
	case PaymentStatusRefunded:
		if o.Status == OrderStatusDelivered {
			return o.Transition(OrderStatusRefunded)
		}
	case PaymentStatusFailed:
		// Order stays PENDING; the buyer may create a new payment attempt.
	}

	return nil
}

// recalculateTotal recomputes TotalAmount from items plus charges
func (o *Order) recalculateTotal() {
	itemsTotal := decimal.Zero
	for _, item := range o.Items {
		itemsTotal = itemsTotal.Add(item.Subtotal)
	}
	o.TotalAmount = itemsTotal.Add(o.ShippingCost).Add(o.TaxAmount)
}

// CheckTotalInvariant verifies totalAmount == sum(item.subtotal) + shipping + tax
func (o *Order) CheckTotalInvariant() bool {
	itemsTotal := decimal.Zero
	for _, item := range o.Items {
		itemsTotal = itemsTotal.Add(item.Subtotal)
	}
	return o.TotalAmount.Equal(itemsTotal.Add(o.ShippingCost).Add(o.TaxAmount))
}

// TotalMoney returns the order total as Money
func (o *Order) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.TotalAmount, o.Currency)
	return m
}

// ItemCount returns the number of line items in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// SellerIDs returns the distinct seller IDs across all items
func (o *Order) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	var ids []uuid.UUID
	for _, item := range o.Items {
		if _, ok := seen[item.SellerID]; !ok {
			seen[item.SellerID] = struct{}{}
			ids = append(ids, item.SellerID)
		}
	}
	return ids
}

// IsPending returns true if the order is awaiting payment
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsConfirmed returns true if the order has been confirmed
func (o *Order) IsConfirmed() bool {
	return o.Status == OrderStatusConfirmed
}

// IsCancelled returns true if the order has been cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}
