package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
)

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

// fakeUnitOfWork runs the function directly, no transaction
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
