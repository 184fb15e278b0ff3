package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// Status represents the lifecycle status of a payment attempt
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// IsValid checks if the status is a valid payment Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted,
		StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses a provider will not move past,
// except that COMPLETED may still advance to REFUNDED.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsSuccess returns true if the payment captured funds
func (s Status) IsSuccess() bool {
	return s == StatusCompleted || s == StatusRefunded
}

// Rank orders statuses along the provider timeline. Webhook events carrying a
// status that does not out-rank the stored one are stale and must be ignored.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed, StatusCancelled:
		return 2
	case StatusRefunded:
		return 3
	}
	return -1
}

// CanTransitionTo checks if the status can move forward to the target.
// Transitions never go backwards along the rank, and the only edge out of a
// rank-2 state is COMPLETED to REFUNDED.
func (s Status) CanTransitionTo(target Status) bool {
	if !target.IsValid() || s == target {
		return false
	}
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusCompleted ||
			target == StatusFailed || target == StatusCancelled
	case StatusProcessing:
		return target == StatusCompleted || target == StatusFailed || target == StatusCancelled
	case StatusCompleted:
		return target == StatusRefunded
	case StatusFailed, StatusCancelled, StatusRefunded:
		return false
	}
	return false
}

// Payment represents a single payment attempt against an order.
// One order may accumulate several attempts; at most one of them completes.
type Payment struct {
	shared.BaseAggregateRoot
	OrderID          uuid.UUID `gorm:"not null;index;uniqueIndex:uq_payments_order_open,where:status IN ('PENDING','PROCESSING')"`
	BuyerID          uuid.UUID
	Amount           decimal.Decimal
	Currency         valueobject.Currency
	Status           Status
	Provider         string
	ProviderIntentID string `gorm:"uniqueIndex"`
	ClientSecret     string
	FailureReason    string
	CompletedAt      *time.Time
	RefundedAt       *time.Time
}

// TableName pins the table name used by the persistence layer
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a new payment attempt in PENDING status
func NewPayment(orderID, buyerID uuid.UUID, amount decimal.Decimal, currency valueobject.Currency, provider string) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %q", currency))
	}
	if provider == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Payment provider cannot be empty")
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		BuyerID:           buyerID,
		Amount:            amount,
		Currency:          currency,
		Status:            StatusPending,
		Provider:          provider,
	}, nil
}

// AttachIntent records the provider-side intent created for this attempt
func (p *Payment) AttachIntent(intentID, clientSecret string) error {
	if intentID == "" {
		return shared.NewDomainError("INVALID_INTENT", "Provider intent ID cannot be empty")
	}
	if p.ProviderIntentID != "" && p.ProviderIntentID != intentID {
		return shared.NewDomainError("INVALID_INTENT", "Payment already bound to a different intent")
	}

	p.ProviderIntentID = intentID
	p.ClientSecret = clientSecret
	p.Touch()
	return nil
}

// ApplyProviderStatus advances the payment toward the given status.
// Returns (false, nil) when the incoming status is stale, meaning it does not
// out-rank the stored one; callers treat that as an ignorable duplicate.
func (p *Payment) ApplyProviderStatus(target Status, reason string, observedAt time.Time) (bool, error) {
	if !target.IsValid() {
		return false, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment status %q", target))
	}
	if target.Rank() <= p.Status.Rank() {
		return false, nil
	}
	if !p.Status.CanTransitionTo(target) {
		return false, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition payment from %s to %s", p.Status, target))
	}

	p.Status = target
	p.Touch()

	switch target {
	case StatusCompleted:
		at := observedAt
		if at.IsZero() {
			at = time.Now()
		}
		p.CompletedAt = &at
		p.AddDomainEvent(NewPaymentCompletedEvent(p))
	case StatusFailed:
		p.FailureReason = reason
		p.AddDomainEvent(NewPaymentFailedEvent(p))
	case StatusCancelled:
		p.FailureReason = reason
	case StatusRefunded:
		at := observedAt
		if at.IsZero() {
			at = time.Now()
		}
		p.RefundedAt = &at
		p.AddDomainEvent(NewPaymentRefundedEvent(p))
	}

	return true, nil
}

// VerifyAmount checks the provider-reported amount against the stored one
func (p *Payment) VerifyAmount(reported decimal.Decimal, currency valueobject.Currency) error {
	if !p.Amount.Equal(reported) || p.Currency != currency {
		return shared.ErrAmountMismatch
	}
	return nil
}

// IsCompleted returns true if the payment captured funds
func (p *Payment) IsCompleted() bool {
	return p.Status == StatusCompleted
}
