package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared"
)

// GormOrderRepository implements ordering.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) conn(ctx context.Context) *gorm.DB {
	return connFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds an order by its ID with items preloaded
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	if err := r.conn(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate finds an order by ID holding a row lock until the
// surrounding transaction ends
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	if err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByBuyer finds a buyer's orders with filtering
func (r *GormOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*ordering.Order, error) {
	var orders []*ordering.Order
	query := r.applyFilter(
		r.conn(ctx).Model(&ordering.Order{}).
			Preload("Items").
			Where("buyer_id = ?", buyerID),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByBuyer counts a buyer's orders
func (r *GormOrderRepository) CountByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&ordering.Order{}).
		Where("buyer_id = ?", buyerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByStatus finds orders by status with filtering
func (r *GormOrderRepository) FindByStatus(ctx context.Context, status ordering.OrderStatus, filter shared.Filter) ([]*ordering.Order, error) {
	var orders []*ordering.Order
	query := r.applyFilter(
		r.conn(ctx).Model(&ordering.Order{}).
			Preload("Items").
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		return r.saveItems(tx, order)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var current struct{ Version int }
		if err := tx.Model(&ordering.Order{}).
			Select("version").
			Where("id = ?", order.ID).
			Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if current.Version != order.Version {
			return shared.ErrConcurrencyConflict
		}

		order.Version++
		order.UpdatedAt = time.Now()

		result := tx.Model(&ordering.Order{}).
			Where("id = ? AND version = ?", order.ID, current.Version).
			Updates(map[string]interface{}{
				"status":           order.Status,
				"total_amount":     order.TotalAmount,
				"shipping_cost":    order.ShippingCost,
				"tax_amount":       order.TaxAmount,
				"currency":         order.Currency,
				"shipping_address": order.ShippingAddress,
				"payment_method":   order.PaymentMethod,
				"payment_status":   order.PaymentStatus,
				"notes":            order.Notes,
				"metadata":         order.Metadata,
				"confirmed_at":     order.ConfirmedAt,
				"shipped_at":       order.ShippedAt,
				"delivered_at":     order.DeliveredAt,
				"cancelled_at":     order.CancelledAt,
				"cancel_reason":    order.CancelReason,
				"version":          order.Version,
				"updated_at":       order.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.saveItems(tx, order)
	})
}

// saveItems reconciles the items attached to the aggregate: items removed
// from the aggregate are deleted, the rest are upserted.
func (r *GormOrderRepository) saveItems(tx *gorm.DB, order *ordering.Order) error {
	currentItemIDs := make([]uuid.UUID, len(order.Items))
	for i, item := range order.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, currentItemIDs).
			Delete(&ordering.OrderItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&ordering.OrderItem{}).Error; err != nil {
			return err
		}
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if err := tx.Save(&order.Items[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// applyFilter applies pagination and ordering to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormOrderRepository implements OrderRepository
var _ ordering.OrderRepository = (*GormOrderRepository)(nil)
