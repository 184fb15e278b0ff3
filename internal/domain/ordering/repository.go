package ordering

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/shared"
)

// OrderRepository defines the persistence port for order aggregates
type OrderRepository interface {
	// Save persists an order aggregate together with its items
	Save(ctx context.Context, order *Order) error

	// SaveWithLock persists an order using optimistic locking on the version
	// column. Returns ErrConcurrencyConflict when the stored version moved.
	SaveWithLock(ctx context.Context, order *Order) error

	// FindByID retrieves an order with its items preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate retrieves an order with a row lock held for the
	// duration of the surrounding transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByBuyer retrieves a page of the buyer's orders, newest first
	FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*Order, error)

	// CountByBuyer counts the buyer's orders
	CountByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error)

	// FindByStatus retrieves a page of orders in the given status
	FindByStatus(ctx context.Context, status OrderStatus, filter shared.Filter) ([]*Order, error)
}
