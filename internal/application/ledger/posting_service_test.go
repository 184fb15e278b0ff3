package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

func tenPercent(t *testing.T) ledger.FeeSchedule {
	t.Helper()
	fees, err := ledger.NewFeeSchedule(decimal.RequireFromString("0.10"), decimal.RequireFromString("0.02"))
	require.NoError(t, err)
	return fees
}

func paidOrder(t *testing.T, sellers ...uuid.UUID) *ordering.Order {
	t.Helper()
	address, err := valueobject.NewShippingAddress("Ada Buyer", "+1-555-0100", "1 Market St", "", "Springfield", "IL", "62701", "US")
	require.NoError(t, err)
	order, err := ordering.NewOrder(uuid.New(), address, valueobject.USD)
	require.NoError(t, err)
	price, err := valueobject.NewMoney(decimal.RequireFromString("50.00"), valueobject.USD)
	require.NoError(t, err)
	for _, sellerID := range sellers {
		_, err = order.AddItem(uuid.New(), sellerID, "Walnut Desk", "", "furniture", 1, price)
		require.NoError(t, err)
	}
	require.NoError(t, order.Finalize())
	return order
}

func TestPostingService_PostForOrder(t *testing.T) {
	t.Run("posts one record per item with the fee split", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := NewPostingService(repo, tenPercent(t), zap.NewNop())

		sellerA, sellerB := uuid.New(), uuid.New()
		order := paidOrder(t, sellerA, sellerB)
		paymentID := uuid.New()

		var posted []*ledger.FinancialRecord
		repo.On("SaveAll", mock.Anything, mock.AnythingOfType("[]*ledger.FinancialRecord")).
			Run(func(args mock.Arguments) {
				posted = args.Get(1).([]*ledger.FinancialRecord)
			}).Return(nil)

		err := service.PostForOrder(context.Background(), order, paymentID)

		require.NoError(t, err)
		require.Len(t, posted, 2)
		for _, record := range posted {
			assert.Equal(t, order.ID, record.OrderID)
			assert.Equal(t, paymentID, record.PaymentID)
			assert.Equal(t, ledger.RecordStatusPending, record.Status)
			assert.True(t, record.GrossAmount.Equal(decimal.RequireFromString("50.00")))
			assert.True(t, record.PlatformFee.Equal(decimal.RequireFromString("5.00")), record.PlatformFee.String())
			assert.True(t, record.ProcessingFee.Equal(decimal.RequireFromString("1.00")), record.ProcessingFee.String())
			assert.True(t, record.NetAmount.Equal(decimal.RequireFromString("44.00")), record.NetAmount.String())
			assert.True(t, record.CheckSplitInvariant())
		}
		assert.ElementsMatch(t, []uuid.UUID{sellerA, sellerB}, []uuid.UUID{posted[0].SellerID, posted[1].SellerID})
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := NewPostingService(repo, tenPercent(t), zap.NewNop())

		repo.On("SaveAll", mock.Anything, mock.Anything).Return(assert.AnError)

		err := service.PostForOrder(context.Background(), paidOrder(t, uuid.New()), uuid.New())

		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestPostingService_ReverseForOrder(t *testing.T) {
	newRecord := func(t *testing.T) *ledger.FinancialRecord {
		record, err := ledger.NewFinancialRecord(uuid.New(), uuid.New(), uuid.New(), uuid.New(),
			decimal.RequireFromString("50.00"), valueobject.USD, tenPercent(t))
		require.NoError(t, err)
		return record
	}

	t.Run("reverses pending and cleared records", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := NewPostingService(repo, tenPercent(t), zap.NewNop())

		pending := newRecord(t)
		cleared := newRecord(t)
		require.NoError(t, cleared.Clear())

		orderID := uuid.New()
		repo.On("FindByOrder", mock.Anything, orderID).Return([]*ledger.FinancialRecord{pending, cleared}, nil)
		repo.On("Save", mock.Anything, pending).Return(nil)
		repo.On("Save", mock.Anything, cleared).Return(nil)

		err := service.ReverseForOrder(context.Background(), orderID)

		require.NoError(t, err)
		assert.Equal(t, ledger.RecordStatusReversed, pending.Status)
		assert.Equal(t, ledger.RecordStatusReversed, cleared.Status)
		assert.NotNil(t, pending.ReversedAt)
	})

	t.Run("leaves paid records untouched", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := NewPostingService(repo, tenPercent(t), zap.NewNop())

		paid := newRecord(t)
		require.NoError(t, paid.Clear())
		require.NoError(t, paid.MarkPaid(uuid.New(), "bank_transfer"))

		orderID := uuid.New()
		repo.On("FindByOrder", mock.Anything, orderID).Return([]*ledger.FinancialRecord{paid}, nil)

		err := service.ReverseForOrder(context.Background(), orderID)

		require.NoError(t, err)
		assert.Equal(t, ledger.RecordStatusPaid, paid.Status)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
