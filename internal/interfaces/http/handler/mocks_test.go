package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/notification"
	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
)

// MockOrderRepository implements ordering.OrderRepository for testing
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

var _ ordering.OrderRepository = (*MockOrderRepository)(nil)

// MockStockRepository implements catalog.StockRepository for testing
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

var _ catalog.StockRepository = (*MockStockRepository)(nil)

// MockPaymentRepository implements payment.Repository for testing
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*payment.Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIntentIDForUpdate(ctx context.Context, intentID string) (*payment.Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindPendingByOrder(ctx context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

var _ payment.Repository = (*MockPaymentRepository)(nil)

// MockWebhookEventRepository implements payment.WebhookEventRepository for testing
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) Record(ctx context.Context, event *payment.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventRepository) FindByEventID(ctx context.Context, eventID string) (*payment.WebhookEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

var _ payment.WebhookEventRepository = (*MockWebhookEventRepository)(nil)

// MockGateway implements payment.Gateway for testing
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Provider() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockGateway) CreateIntent(ctx context.Context, req *payment.CreateIntentRequest) (*payment.CreateIntentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CreateIntentResponse), args.Error(1)
}

func (m *MockGateway) VerifyAndParse(payload []byte, signatureHeader string) (*payment.ProviderEvent, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ProviderEvent), args.Error(1)
}

var _ payment.Gateway = (*MockGateway)(nil)

// MockLedgerRepository implements ledger.Repository for testing
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) SaveAll(ctx context.Context, records []*ledger.FinancialRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockLedgerRepository) Save(ctx context.Context, record *ledger.FinancialRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FinancialRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.FinancialRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*ledger.FinancialRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.FinancialRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, status ledger.RecordStatus, filter shared.Filter) ([]*ledger.FinancialRecord, error) {
	args := m.Called(ctx, sellerID, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.FinancialRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindClearedBySellerForUpdate(ctx context.Context, sellerID uuid.UUID) ([]*ledger.FinancialRecord, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.FinancialRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*ledger.FinancialRecord, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.FinancialRecord), args.Error(1)
}

func (m *MockLedgerRepository) BalanceBySeller(ctx context.Context, sellerID uuid.UUID) (*ledger.SellerBalance, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.SellerBalance), args.Error(1)
}

var _ ledger.Repository = (*MockLedgerRepository)(nil)

// MockNotifier implements notification.Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

var _ notification.Notifier = (*MockNotifier)(nil)

// fakeUnitOfWork runs the function directly without a transaction
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ shared.UnitOfWork = fakeUnitOfWork{}
