package ordering

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared"
)

// OrderService exposes order queries and lifecycle transitions
type OrderService struct {
	orderRepo ordering.OrderRepository
	uow       shared.UnitOfWork
}

// NewOrderService creates an order service
func NewOrderService(orderRepo ordering.OrderRepository, uow shared.UnitOfWork) *OrderService {
	return &OrderService{orderRepo: orderRepo, uow: uow}
}

// GetOrder retrieves an order by ID. Buyers only see their own orders.
func (s *OrderService) GetOrder(ctx context.Context, orderID, callerID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != callerID {
		return nil, shared.ErrNotFound
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// ListBuyerOrders retrieves a page of the buyer's orders, newest first
func (s *OrderService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	orders, err := s.orderRepo.FindByBuyer(ctx, buyerID, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	total, err := s.orderRepo.CountByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	page := shared.NewPaginated(ToOrderResponses(orders), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// TransitionOrder moves an order along its lifecycle. The order row stays
// locked while the transition is validated and written, so concurrent
// transitions on the same order serialize.
func (s *OrderService) TransitionOrder(ctx context.Context, orderID uuid.UUID, target ordering.OrderStatus) (*OrderResponse, error) {
	var order *ordering.Order
	err := s.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := order.Transition(target); err != nil {
			return err
		}
		return s.orderRepo.SaveWithLock(txCtx, order)
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// CancelOrder cancels an order with the given reason. Only the buyer who
// placed the order may cancel it.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, callerID uuid.UUID, reason string) (*OrderResponse, error) {
	var order *ordering.Order
	err := s.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != callerID {
			return shared.ErrNotFound
		}
		if err := order.Cancel(reason); err != nil {
			return err
		}
		return s.orderRepo.SaveWithLock(txCtx, order)
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}
