package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
)

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

type MockLedgerPoster struct {
	mock.Mock
}

func (m *MockLedgerPoster) PostForOrder(ctx context.Context, order *ordering.Order, paymentID uuid.UUID) error {
	args := m.Called(ctx, order, paymentID)
	return args.Error(0)
}

func (m *MockLedgerPoster) ReverseForOrder(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// fakeUnitOfWork runs the function directly, no transaction
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
