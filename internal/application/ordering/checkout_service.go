package ordering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/notification"
	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// CheckoutPricing holds the order-level charges applied at checkout
type CheckoutPricing struct {
	TaxRate      float64
	FlatShipping float64
	FreeShipOver float64
	Currency     valueobject.Currency
}

// Shipping returns the shipping charge for a given items subtotal
func (p CheckoutPricing) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeShipOver > 0 && subtotal.GreaterThanOrEqual(decimal.NewFromFloat(p.FreeShipOver)) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p.FlatShipping).Round(2)
}

// Tax returns the tax charge for a given items subtotal
func (p CheckoutPricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromFloat(p.TaxRate)).Round(2)
}

// CheckoutService places orders against locked stock
type CheckoutService struct {
	orderRepo ordering.OrderRepository
	stockRepo catalog.StockRepository
	uow       shared.UnitOfWork
	notifier  notification.Notifier
	pricing   CheckoutPricing
	logger    *zap.Logger
}

// NewCheckoutService creates a checkout service
func NewCheckoutService(
	orderRepo ordering.OrderRepository,
	stockRepo catalog.StockRepository,
	uow shared.UnitOfWork,
	notifier notification.Notifier,
	pricing CheckoutPricing,
	logger *zap.Logger,
) *CheckoutService {
	if pricing.Currency == "" {
		pricing.Currency = valueobject.DefaultCurrency
	}
	return &CheckoutService{
		orderRepo: orderRepo,
		stockRepo: stockRepo,
		uow:       uow,
		notifier:  notifier,
		pricing:   pricing,
		logger:    logger,
	}
}

// Checkout places an order for the caller. Stock rows for every requested
// product are locked for the duration of the transaction, so two buyers
// racing over the last unit serialize and the loser gets
// ErrInsufficientStock. Item prices and names are snapshotted from stock at
// this moment; later catalog edits never change a placed order.
func (s *CheckoutService) Checkout(ctx context.Context, guard ordering.CheckoutGuard, req *CheckoutRequest) (*OrderResponse, error) {
	if err := guard.Allow(); err != nil {
		return nil, err
	}

	address, err := valueobject.NewShippingAddress(
		req.ShippingAddress.Name,
		req.ShippingAddress.Phone,
		req.ShippingAddress.Line1,
		req.ShippingAddress.Line2,
		req.ShippingAddress.City,
		req.ShippingAddress.Region,
		req.ShippingAddress.PostalCode,
		req.ShippingAddress.Country,
	)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	productIDs := make([]uuid.UUID, 0, len(req.Items))
	quantities := make(map[uuid.UUID]int, len(req.Items))
	priceCeilings := make(map[uuid.UUID]decimal.Decimal, len(req.Items))
	for _, line := range req.Items {
		if _, dup := quantities[line.ProductID]; dup {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product listed more than once")
		}
		productIDs = append(productIDs, line.ProductID)
		quantities[line.ProductID] = line.Quantity
		if line.ExpectedUnitPrice != nil {
			priceCeilings[line.ProductID] = *line.ExpectedUnitPrice
		}
	}

	var order *ordering.Order
	err = s.uow.WithinTx(ctx, func(txCtx context.Context) error {
		stock, err := s.stockRepo.FindByProductIDsForUpdate(txCtx, productIDs)
		if err != nil {
			return fmt.Errorf("failed to lock stock: %w", err)
		}
		if len(stock) != len(productIDs) {
			return shared.ErrNotFound
		}

		order, err = ordering.NewOrder(guard.CallerID, address, s.pricing.Currency)
		if err != nil {
			return err
		}
		order.SetPaymentMethod(req.PaymentMethod)
		order.SetNotes(req.Notes)

		for _, item := range stock {
			if !item.Active {
				return shared.NewDomainError("PRODUCT_INACTIVE", fmt.Sprintf("Product %s is no longer for sale", item.ProductID))
			}
			if ceiling, ok := priceCeilings[item.ProductID]; ok && item.Price.GreaterThan(ceiling) {
				return shared.ErrStalePrice
			}
			qty := quantities[item.ProductID]
			if err := item.Reserve(qty); err != nil {
				return err
			}

			price, err := valueobject.NewMoney(item.Price, item.Currency)
			if err != nil {
				return err
			}
			if _, err := order.AddItem(item.ProductID, item.SellerID, item.Name, item.Description, item.Category, qty, price); err != nil {
				return err
			}
		}

		subtotal := order.TotalAmount
		if err := order.SetCharges(s.pricing.Shipping(subtotal), s.pricing.Tax(subtotal)); err != nil {
			return err
		}
		if err := order.Finalize(); err != nil {
			return err
		}

		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		for _, item := range stock {
			if err := s.stockRepo.Save(txCtx, item); err != nil {
				return fmt.Errorf("failed to save stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// notify sends the order placed notification. Failures are logged and
// swallowed; the order is already committed.
func (s *CheckoutService) notify(ctx context.Context, order *ordering.Order) {
	msg := notification.Message{
		RecipientID: order.BuyerID,
		Subject:     "Order placed",
		Body:        fmt.Sprintf("Your order %s for %s %s has been placed.", order.ID, order.TotalAmount.StringFixed(2), order.Currency),
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn("order notification failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}
