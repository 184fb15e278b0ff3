package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// RecordStatus represents the settlement status of a financial record
type RecordStatus string

const (
	// RecordStatusPending means funds are captured but not yet cleared for payout
	RecordStatusPending RecordStatus = "PENDING"
	// RecordStatusCleared means the clearing period elapsed and the record is payable
	RecordStatusCleared RecordStatus = "CLEARED"
	// RecordStatusPaid means the net amount was included in a seller payout
	RecordStatusPaid RecordStatus = "PAID"
	// RecordStatusReversed means the underlying payment was refunded before payout
	RecordStatusReversed RecordStatus = "REVERSED"
)

// IsValid checks if the status is a valid RecordStatus
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusPending, RecordStatusCleared, RecordStatusPaid, RecordStatusReversed:
		return true
	}
	return false
}

// String returns the string representation of RecordStatus
func (s RecordStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s RecordStatus) CanTransitionTo(target RecordStatus) bool {
	switch s {
	case RecordStatusPending:
		return target == RecordStatusCleared || target == RecordStatusReversed
	case RecordStatusCleared:
		return target == RecordStatusPaid || target == RecordStatusReversed
	case RecordStatusPaid, RecordStatusReversed:
		return false // Terminal states
	}
	return false
}

// FinancialRecord is one seller-facing ledger entry, created per order item
// when its payment completes. GrossAmount is the item subtotal; PlatformFee
// and ProcessingFee are deducted from it; NetAmount is what the seller is
// owed. The unique constraint on OrderItemID makes posting idempotent.
type FinancialRecord struct {
	shared.BaseAggregateRoot
	OrderID       uuid.UUID `gorm:"not null;index"`
	OrderItemID   uuid.UUID `gorm:"not null;uniqueIndex"`
	SellerID      uuid.UUID `gorm:"not null;index"`
	PaymentID     uuid.UUID `gorm:"not null"`
	GrossAmount   decimal.Decimal
	PlatformFee   decimal.Decimal
	ProcessingFee decimal.Decimal
	NetAmount     decimal.Decimal
	Currency      valueobject.Currency
	Status        RecordStatus
	ClearedAt     *time.Time
	PaidAt        *time.Time
	PayoutID      *uuid.UUID `gorm:"index"`
	PayoutMethod  string
	ReversedAt    *time.Time
}

// TableName pins the table name used by the persistence layer
func (FinancialRecord) TableName() string {
	return "financial_records"
}

// NewFinancialRecord creates a PENDING ledger entry for an order item
func NewFinancialRecord(orderID, orderItemID, sellerID, paymentID uuid.UUID, gross decimal.Decimal, currency valueobject.Currency, fees FeeSchedule) (*FinancialRecord, error) {
	if orderID == uuid.Nil || orderItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECORD", "Order and item IDs cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECORD", "Seller ID cannot be empty")
	}
	if paymentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECORD", "Payment ID cannot be empty")
	}
	if gross.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Gross amount cannot be negative")
	}

	platformFee, processingFee, net := fees.Split(gross)

	return &FinancialRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		OrderItemID:       orderItemID,
		SellerID:          sellerID,
		PaymentID:         paymentID,
		GrossAmount:       gross,
		PlatformFee:       platformFee,
		ProcessingFee:     processingFee,
		NetAmount:         net,
		Currency:          currency,
		Status:            RecordStatusPending,
	}, nil
}

// transition applies a status change along the allowed edges
func (r *FinancialRecord) transition(target RecordStatus) error {
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition record from %s to %s", r.Status, target))
	}
	r.Status = target
	r.Touch()
	return nil
}

// Clear marks the record payable after the clearing period
func (r *FinancialRecord) Clear() error {
	if err := r.transition(RecordStatusCleared); err != nil {
		return err
	}
	now := time.Now()
	r.ClearedAt = &now
	return nil
}

// MarkPaid associates the record with a payout and closes it
func (r *FinancialRecord) MarkPaid(payoutID uuid.UUID, method string) error {
	if payoutID == uuid.Nil {
		return shared.NewDomainError("INVALID_PAYOUT", "Payout ID cannot be empty")
	}
	if err := r.transition(RecordStatusPaid); err != nil {
		return err
	}
	now := time.Now()
	r.PaidAt = &now
	r.PayoutID = &payoutID
	r.PayoutMethod = method
	return nil
}

// Reverse cancels the record when the underlying payment is refunded
// before the seller was paid
func (r *FinancialRecord) Reverse() error {
	if err := r.transition(RecordStatusReversed); err != nil {
		return err
	}
	now := time.Now()
	r.ReversedAt = &now
	return nil
}

// CheckSplitInvariant verifies gross == platformFee + processingFee + net
func (r *FinancialRecord) CheckSplitInvariant() bool {
	return r.GrossAmount.Equal(r.PlatformFee.Add(r.ProcessingFee).Add(r.NetAmount))
}
