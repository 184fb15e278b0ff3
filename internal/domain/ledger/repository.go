package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// SellerBalance summarizes a seller's ledger position by status
type SellerBalance struct {
	SellerID    uuid.UUID       `json:"seller_id"`
	PendingNet  decimal.Decimal `json:"pending_net"`
	ClearedNet  decimal.Decimal `json:"cleared_net"`
	PaidNet     decimal.Decimal `json:"paid_net"`
	TotalFees   decimal.Decimal `json:"total_fees"`
	RecordCount int64           `json:"record_count"`
}

// Repository defines the persistence port for financial records
type Repository interface {
	// SaveAll inserts ledger records in bulk. Records whose OrderItemID
	// already exists are skipped, which makes posting idempotent under
	// webhook redelivery.
	SaveAll(ctx context.Context, records []*FinancialRecord) error

	// Save persists a single record
	Save(ctx context.Context, record *FinancialRecord) error

	// FindByID retrieves a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialRecord, error)

	// FindByOrder retrieves all records posted for an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*FinancialRecord, error)

	// FindBySeller retrieves a page of a seller's records, optionally
	// filtered by status (empty status means all)
	FindBySeller(ctx context.Context, sellerID uuid.UUID, status RecordStatus, filter shared.Filter) ([]*FinancialRecord, error)

	// FindClearedBySellerForUpdate retrieves a seller's CLEARED records with
	// row locks held, so a concurrent payout run cannot pay them twice
	FindClearedBySellerForUpdate(ctx context.Context, sellerID uuid.UUID) ([]*FinancialRecord, error)

	// FindPendingCreatedBefore retrieves PENDING records posted before the
	// cutoff, the candidates for a clearing run
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*FinancialRecord, error)

	// BalanceBySeller aggregates a seller's net amounts by status
	BalanceBySeller(ctx context.Context, sellerID uuid.UUID) (*SellerBalance, error)
}
