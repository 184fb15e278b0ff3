package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
)

// GormStockRepository implements catalog.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) conn(ctx context.Context) *gorm.DB {
	return connFromContext(ctx, r.db).WithContext(ctx)
}

// Save persists a stock item
func (r *GormStockRepository) Save(ctx context.Context, item *catalog.StockItem) error {
	return r.conn(ctx).Save(item).Error
}

// FindByProductID finds the stock item for a product
func (r *GormStockRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*catalog.StockItem, error) {
	var item catalog.StockItem
	if err := r.conn(ctx).
		First(&item, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByProductIDsForUpdate finds stock items for the given products holding
// row locks. Rows are locked in product ID order so concurrent checkouts
// touching the same products cannot deadlock.
func (r *GormStockRepository) FindByProductIDsForUpdate(ctx context.Context, productIDs []uuid.UUID) ([]*catalog.StockItem, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(productIDs))
	copy(ids, productIDs)
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	var items []*catalog.StockItem
	if err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id IN ?", ids).
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Ensure GormStockRepository implements StockRepository
var _ catalog.StockRepository = (*GormStockRepository)(nil)
