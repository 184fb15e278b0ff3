package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// StockItem is the sellable view of a catalog product: the current price and
// the units available. Checkout snapshots these fields onto order items, so
// later edits here never change past orders.
type StockItem struct {
	shared.BaseEntity
	ProductID   uuid.UUID `gorm:"uniqueIndex;not null"`
	SellerID    uuid.UUID `gorm:"not null;index"`
	Name        string    `gorm:"not null"`
	Description string
	Category    string
	Price       decimal.Decimal
	Currency    valueobject.Currency
	Available   int
	Active      bool
}

// TableName pins the table name used by the persistence layer
func (StockItem) TableName() string {
	return "stock_items"
}

// NewStockItem creates a stock item for a product
func NewStockItem(productID, sellerID uuid.UUID, name string, price decimal.Decimal, currency valueobject.Currency, available int) (*StockItem, error) {
	if productID == uuid.Nil || sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product and seller IDs cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if available < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Available units cannot be negative")
	}

	return &StockItem{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		SellerID:    sellerID,
		Name:        name,
		Price:       price,
		Currency:    currency,
		Available:   available,
		Active:      true,
	}, nil
}

// PriceMoney returns the current price as Money
func (s *StockItem) PriceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.Price, s.Currency)
	return m
}

// Reserve decrements the available units for a checkout
func (s *StockItem) Reserve(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !s.Active {
		return shared.NewDomainError("PRODUCT_INACTIVE", "Product is not available for purchase")
	}
	if s.Available < quantity {
		return shared.ErrInsufficientStock
	}
	s.Available -= quantity
	s.Touch()
	return nil
}

// Release returns units to stock when an order is cancelled before shipment
func (s *StockItem) Release(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	s.Available += quantity
	s.Touch()
	return nil
}
