package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/notification"
	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*ordering.Order, error) {
	args := m.Called(ctx, buyerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) CountByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, status ordering.OrderStatus, filter shared.Filter) ([]*ordering.Order, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ordering.Order), args.Error(1)
}

type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) Save(ctx context.Context, item *catalog.StockItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStockRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*catalog.StockItem, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.StockItem), args.Error(1)
}

func (m *MockStockRepository) FindByProductIDsForUpdate(ctx context.Context, productIDs []uuid.UUID) ([]*catalog.StockItem, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.StockItem), args.Error(1)
}

// fakeUnitOfWork runs the function directly, no transaction
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
