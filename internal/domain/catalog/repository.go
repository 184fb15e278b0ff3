package catalog

import (
	"context"

	"github.com/google/uuid"
)

// StockRepository defines the persistence port for stock items
type StockRepository interface {
	// Save persists a stock item
	Save(ctx context.Context, item *StockItem) error

	// FindByProductID retrieves the stock item for a product
	FindByProductID(ctx context.Context, productID uuid.UUID) (*StockItem, error)

	// FindByProductIDsForUpdate retrieves stock items for the given products
	// with row locks held, so concurrent checkouts serialize on stock.
	// Products are locked in a stable order to avoid deadlocks.
	FindByProductIDsForUpdate(ctx context.Context, productIDs []uuid.UUID) ([]*StockItem, error)
}
