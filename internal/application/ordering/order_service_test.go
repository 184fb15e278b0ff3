package ordering

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

func placedOrder(t *testing.T, buyerID uuid.UUID) *ordering.Order {
	t.Helper()
	address, err := valueobject.NewShippingAddress("Ada Buyer", "+1-555-0100", "1 Market St", "", "Springfield", "IL", "62701", "US")
	require.NoError(t, err)
	order, err := ordering.NewOrder(buyerID, address, valueobject.USD)
	require.NoError(t, err)
	price, err := valueobject.NewMoney(decimal.RequireFromString("30.00"), valueobject.USD)
	require.NoError(t, err)
	_, err = order.AddItem(uuid.New(), uuid.New(), "Walnut Desk", "", "furniture", 1, price)
	require.NoError(t, err)
	require.NoError(t, order.Finalize())
	return order
}

func TestOrderService_GetOrder(t *testing.T) {
	t.Run("returns the buyer's own order", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		buyerID := uuid.New()
		order := placedOrder(t, buyerID)
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		resp, err := service.GetOrder(context.Background(), order.ID, buyerID)

		require.NoError(t, err)
		assert.Equal(t, order.ID, resp.ID)
		assert.Equal(t, 1, resp.ItemCount)
	})

	t.Run("hides other buyers' orders", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		order := placedOrder(t, uuid.New())
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := service.GetOrder(context.Background(), order.ID, uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("propagates not found", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		orderID := uuid.New()
		orderRepo.On("FindByID", mock.Anything, orderID).Return(nil, shared.ErrNotFound)

		_, err := service.GetOrder(context.Background(), orderID, uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrderService_ListBuyerOrders(t *testing.T) {
	t.Run("returns a page with defaults applied", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		buyerID := uuid.New()
		orders := []*ordering.Order{placedOrder(t, buyerID), placedOrder(t, buyerID)}

		orderRepo.On("FindByBuyer", mock.Anything, buyerID, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 1 && f.PageSize == 20
		})).Return(orders, nil)
		orderRepo.On("CountByBuyer", mock.Anything, buyerID).Return(int64(2), nil)

		page, err := service.ListBuyerOrders(context.Background(), buyerID, OrderListFilter{})

		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("passes explicit paging through", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		buyerID := uuid.New()
		orderRepo.On("FindByBuyer", mock.Anything, buyerID, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 3 && f.PageSize == 5 && f.OrderBy == "total_amount" && f.OrderDir == "asc"
		})).Return([]*ordering.Order{}, nil)
		orderRepo.On("CountByBuyer", mock.Anything, buyerID).Return(int64(11), nil)

		page, err := service.ListBuyerOrders(context.Background(), buyerID, OrderListFilter{
			Page: 3, PageSize: 5, OrderBy: "total_amount", OrderDir: "asc",
		})

		require.NoError(t, err)
		assert.Equal(t, 3, page.Page)
		assert.Equal(t, 3, page.TotalPages)
	})
}

func TestOrderService_TransitionOrder(t *testing.T) {
	t.Run("moves a confirmed order to processing", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		order := placedOrder(t, uuid.New())
		require.NoError(t, order.Transition(ordering.OrderStatusConfirmed))

		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		resp, err := service.TransitionOrder(context.Background(), order.ID, ordering.OrderStatusProcessing)

		require.NoError(t, err)
		assert.Equal(t, string(ordering.OrderStatusProcessing), resp.Status)
		orderRepo.AssertExpectations(t)
	})

	t.Run("rejects an illegal transition", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		order := placedOrder(t, uuid.New())
		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := service.TransitionOrder(context.Background(), order.ID, ordering.OrderStatusDelivered)

		require.Error(t, err)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("propagates concurrency conflicts", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		order := placedOrder(t, uuid.New())
		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(shared.ErrConcurrencyConflict)

		_, err := service.TransitionOrder(context.Background(), order.ID, ordering.OrderStatusConfirmed)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestOrderService_CancelOrder(t *testing.T) {
	t.Run("cancels a pending order with a reason", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		buyerID := uuid.New()
		order := placedOrder(t, buyerID)
		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		resp, err := service.CancelOrder(context.Background(), order.ID, buyerID, "changed my mind")

		require.NoError(t, err)
		assert.Equal(t, string(ordering.OrderStatusCancelled), resp.Status)
		assert.Equal(t, "changed my mind", resp.CancelReason)
		assert.NotNil(t, resp.CancelledAt)
	})

	t.Run("only the buyer may cancel", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		order := placedOrder(t, uuid.New())
		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := service.CancelOrder(context.Background(), order.ID, uuid.New(), "nope")

		assert.ErrorIs(t, err, shared.ErrNotFound)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("cannot cancel a delivered order", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := NewOrderService(orderRepo, fakeUnitOfWork{})

		buyerID := uuid.New()
		order := placedOrder(t, buyerID)
		require.NoError(t, order.Transition(ordering.OrderStatusConfirmed))
		require.NoError(t, order.Transition(ordering.OrderStatusProcessing))
		require.NoError(t, order.Transition(ordering.OrderStatusShipped))
		require.NoError(t, order.Transition(ordering.OrderStatusDelivered))

		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := service.CancelOrder(context.Background(), order.ID, buyerID, "too late")

		require.Error(t, err)
	})
}
