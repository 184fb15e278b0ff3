package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentCompleted = "PaymentCompleted"
	EventTypePaymentFailed    = "PaymentFailed"
	EventTypePaymentRefunded  = "PaymentRefunded"
)

// PaymentCompletedEvent is raised when a payment reaches COMPLETED
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		Amount:          p.Amount,
	}
}

// PaymentFailedEvent is raised when a payment reaches FAILED
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID `json:"payment_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Reason    string    `json:"reason"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(p *Payment) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		Reason:          p.FailureReason,
	}
}

// PaymentRefundedEvent is raised when a payment reaches REFUNDED
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentRefundedEvent creates a new PaymentRefundedEvent
func NewPaymentRefundedEvent(p *Payment) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRefunded, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		Amount:          p.Amount,
	}
}
