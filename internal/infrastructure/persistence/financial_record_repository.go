package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
)

// GormFinancialRecordRepository implements ledger.Repository using GORM
type GormFinancialRecordRepository struct {
	db *gorm.DB
}

// NewGormFinancialRecordRepository creates a new GormFinancialRecordRepository
func NewGormFinancialRecordRepository(db *gorm.DB) *GormFinancialRecordRepository {
	return &GormFinancialRecordRepository{db: db}
}

func (r *GormFinancialRecordRepository) conn(ctx context.Context) *gorm.DB {
	return connFromContext(ctx, r.db).WithContext(ctx)
}

// SaveAll inserts ledger records in bulk. Records whose order_item_id already
// exists are skipped, so reposting the same order is a no-op.
func (r *GormFinancialRecordRepository) SaveAll(ctx context.Context, records []*ledger.FinancialRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_item_id"}},
			DoNothing: true,
		}).
		Create(records).Error
}

// Save persists a single record
func (r *GormFinancialRecordRepository) Save(ctx context.Context, record *ledger.FinancialRecord) error {
	return r.conn(ctx).Save(record).Error
}

// FindByID finds a record by its ID
func (r *GormFinancialRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FinancialRecord, error) {
	var record ledger.FinancialRecord
	if err := r.conn(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByOrder finds all records posted for an order
func (r *GormFinancialRecordRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*ledger.FinancialRecord, error) {
	var records []*ledger.FinancialRecord
	if err := r.conn(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindBySeller finds a seller's records, optionally filtered by status
func (r *GormFinancialRecordRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, status ledger.RecordStatus, filter shared.Filter) ([]*ledger.FinancialRecord, error) {
	query := r.conn(ctx).Model(&ledger.FinancialRecord{}).Where("seller_id = ?", sellerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var records []*ledger.FinancialRecord
	if err := r.applyFilter(query, filter).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindClearedBySellerForUpdate finds a seller's CLEARED records holding row
// locks, so concurrent payout runs cannot pay the same record twice
func (r *GormFinancialRecordRepository) FindClearedBySellerForUpdate(ctx context.Context, sellerID uuid.UUID) ([]*ledger.FinancialRecord, error) {
	var records []*ledger.FinancialRecord
	if err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_id = ? AND status = ?", sellerID, ledger.RecordStatusCleared).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindPendingCreatedBefore finds PENDING records posted before the cutoff
func (r *GormFinancialRecordRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*ledger.FinancialRecord, error) {
	var records []*ledger.FinancialRecord
	if err := r.conn(ctx).
		Where("status = ? AND created_at < ?", ledger.RecordStatusPending, cutoff).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// BalanceBySeller aggregates a seller's net amounts by status.
// Reversed records are excluded from the sums but counted.
func (r *GormFinancialRecordRepository) BalanceBySeller(ctx context.Context, sellerID uuid.UUID) (*ledger.SellerBalance, error) {
	var row struct {
		PendingNet  decimal.Decimal
		ClearedNet  decimal.Decimal
		PaidNet     decimal.Decimal
		TotalFees   decimal.Decimal
		RecordCount int64
	}

	err := r.conn(ctx).
		Model(&ledger.FinancialRecord{}).
		Select(`
			COALESCE(SUM(CASE WHEN status = ? THEN net_amount ELSE 0 END), 0) AS pending_net,
			COALESCE(SUM(CASE WHEN status = ? THEN net_amount ELSE 0 END), 0) AS cleared_net,
			COALESCE(SUM(CASE WHEN status = ? THEN net_amount ELSE 0 END), 0) AS paid_net,
			COALESCE(SUM(CASE WHEN status <> ? THEN platform_fee + processing_fee ELSE 0 END), 0) AS total_fees,
			COUNT(*) AS record_count`,
			ledger.RecordStatusPending, ledger.RecordStatusCleared,
			ledger.RecordStatusPaid, ledger.RecordStatusReversed).
		Where("seller_id = ?", sellerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &ledger.SellerBalance{
		SellerID:    sellerID,
		PendingNet:  row.PendingNet,
		ClearedNet:  row.ClearedNet,
		PaidNet:     row.PaidNet,
		TotalFees:   row.TotalFees,
		RecordCount: row.RecordCount,
	}, nil
}

// applyFilter applies pagination and ordering to the query
func (r *GormFinancialRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, FinancialRecordSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormFinancialRecordRepository implements Repository
var _ ledger.Repository = (*GormFinancialRecordRepository)(nil)
