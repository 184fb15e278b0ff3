package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
)

// GormWebhookEventRepository implements payment.WebhookEventRepository using GORM.
// The unique index on event_id makes Record the exactly-once gate for
// webhook processing.
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

func (r *GormWebhookEventRepository) conn(ctx context.Context) *gorm.DB {
	return connFromContext(ctx, r.db).WithContext(ctx)
}

// Record inserts the processed-event record. Returns shared.ErrAlreadyExists
// when the event ID was already recorded, except that a prior FAILED marker
// is overwritten so a redelivery can reprocess the event.
func (r *GormWebhookEventRepository) Record(ctx context.Context, event *payment.WebhookEvent) error {
	result := r.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"payment_id":     event.PaymentID,
			"raw_state":      event.RawState,
			"outcome":        event.Outcome,
			"failure_reason": event.FailureReason,
			"raw_payload":    event.RawPayload,
			"processed_at":   event.ProcessedAt,
			"updated_at":     time.Now(),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: "webhook_events", Name: "outcome"},
				Value:  string(payment.WebhookOutcomeFailed),
			},
		}},
	}).Create(event)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return shared.ErrAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// Exists reports whether the event ID was already recorded
func (r *GormWebhookEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&payment.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByEventID finds a recorded event by its provider event ID
func (r *GormWebhookEventRepository) FindByEventID(ctx context.Context, eventID string) (*payment.WebhookEvent, error) {
	var event payment.WebhookEvent
	if err := r.conn(ctx).
		First(&event, "event_id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Ensure GormWebhookEventRepository implements WebhookEventRepository
var _ payment.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
