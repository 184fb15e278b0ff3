package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence port for payment aggregates
type Repository interface {
	// Save persists a payment attempt
	Save(ctx context.Context, p *Payment) error

	// SaveWithLock persists a payment using optimistic locking on the
	// version column
	SaveWithLock(ctx context.Context, p *Payment) error

	// FindByID retrieves a payment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIntentID retrieves a payment by the provider intent ID
	FindByIntentID(ctx context.Context, intentID string) (*Payment, error)

	// FindByIntentIDForUpdate retrieves a payment by intent ID with a row
	// lock held for the duration of the surrounding transaction. This is
	// the serialization point for concurrent webhook deliveries.
	FindByIntentIDForUpdate(ctx context.Context, intentID string) (*Payment, error)

	// FindPendingByOrder retrieves the open payment attempt for an order,
	// if one exists
	FindPendingByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error)

	// FindByOrder retrieves all payment attempts for an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*Payment, error)
}

// WebhookEventRepository defines the persistence port for webhook event records
type WebhookEventRepository interface {
	// Record inserts the processed-event record. Returns
	// shared.ErrAlreadyExists when the event ID was already recorded, which
	// callers treat as a duplicate delivery.
	Record(ctx context.Context, event *WebhookEvent) error

	// Exists reports whether the event ID was already recorded
	Exists(ctx context.Context, eventID string) (bool, error)

	// FindByEventID retrieves a recorded event by its provider event ID
	FindByEventID(ctx context.Context, eventID string) (*WebhookEvent, error)
}
