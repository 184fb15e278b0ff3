package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) conn(ctx context.Context) *gorm.DB {
	return connFromContext(ctx, r.db).WithContext(ctx)
}

// Save creates or updates a payment attempt. A second open attempt for the
// same order violates the partial unique index and maps to
// shared.ErrAlreadyExists; callers reuse the existing attempt.
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	if err := r.conn(ctx).Save(p).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var current struct{ Version int }
		if err := tx.Model(&payment.Payment{}).
			Select("version").
			Where("id = ?", p.ID).
			Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if current.Version != p.Version {
			return shared.ErrConcurrencyConflict
		}

		p.Version++
		p.UpdatedAt = time.Now()

		result := tx.Model(&payment.Payment{}).
			Where("id = ? AND version = ?", p.ID, current.Version).
			Updates(map[string]interface{}{
				"status":             p.Status,
				"provider_intent_id": p.ProviderIntentID,
				"client_secret":      p.ClientSecret,
				"failure_reason":     p.FailureReason,
				"completed_at":       p.CompletedAt,
				"refunded_at":        p.RefundedAt,
				"version":            p.Version,
				"updated_at":         p.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return nil
	})
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByIntentID finds a payment by the provider intent ID
func (r *GormPaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.conn(ctx).
		First(&p, "provider_intent_id = ?", intentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByIntentIDForUpdate finds a payment by intent ID holding a row lock
// until the surrounding transaction ends. Concurrent webhook deliveries for
// the same intent serialize here.
func (r *GormPaymentRepository) FindByIntentIDForUpdate(ctx context.Context, intentID string) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "provider_intent_id = ?", intentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindPendingByOrder finds the open payment attempt for an order
func (r *GormPaymentRepository) FindPendingByOrder(ctx context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.conn(ctx).
		Where("order_id = ? AND status IN ?", orderID,
			[]payment.Status{payment.StatusPending, payment.StatusProcessing}).
		Order("created_at DESC").
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByOrder finds all payment attempts for an order, newest first
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	if err := r.conn(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Ensure GormPaymentRepository implements Repository
var _ payment.Repository = (*GormPaymentRepository)(nil)
