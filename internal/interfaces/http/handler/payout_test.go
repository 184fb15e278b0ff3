package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	ledgerapp "github.com/marketplace/backend/internal/application/ledger"
	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

func setupPayoutTestRouter() (*gin.Engine, *MockLedgerRepository, *PayoutHandler) {
	gin.SetMode(gin.TestMode)

	ledgerRepo := new(MockLedgerRepository)
	service := ledgerapp.NewPayoutService(ledgerRepo, fakeUnitOfWork{}, 7*24*time.Hour, zap.NewNop())
	handler := NewPayoutHandler(service)

	router := gin.New()
	return router, ledgerRepo, handler
}

func clearedRecord(t *testing.T, sellerID uuid.UUID) *ledger.FinancialRecord {
	t.Helper()
	fees, err := ledger.NewFeeSchedule(decimal.RequireFromString("0.10"), decimal.Zero)
	assert.NoError(t, err)
	record, err := ledger.NewFinancialRecord(
		uuid.New(), uuid.New(), sellerID, uuid.New(),
		decimal.NewFromInt(50), valueobject.USD, fees,
	)
	assert.NoError(t, err)
	assert.NoError(t, record.Clear())
	return record
}

func TestPayoutHandler_GetBalance(t *testing.T) {
	t.Run("should return seller balance", func(t *testing.T) {
		router, ledgerRepo, handler := setupPayoutTestRouter()
		router.GET("/sellers/:id/balance", handler.GetBalance)

		sellerID := uuid.New()
		ledgerRepo.On("BalanceBySeller", mock.Anything, sellerID).Return(&ledger.SellerBalance{
			SellerID:    sellerID,
			ClearedNet:  decimal.NewFromInt(45),
			TotalFees:   decimal.NewFromInt(5),
			RecordCount: 1,
		}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/sellers/"+sellerID.String()+"/balance", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, sellerID.String(), data["seller_id"])
		assert.Equal(t, "45", data["cleared_net"])
	})

	t.Run("should return error for invalid seller ID", func(t *testing.T) {
		router, _, handler := setupPayoutTestRouter()
		router.GET("/sellers/:id/balance", handler.GetBalance)

		req, _ := http.NewRequest(http.MethodGet, "/sellers/nope/balance", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPayoutHandler_ListRecords(t *testing.T) {
	t.Run("should list seller records with status filter", func(t *testing.T) {
		router, ledgerRepo, handler := setupPayoutTestRouter()
		router.GET("/sellers/:id/payouts", handler.ListRecords)

		sellerID := uuid.New()
		records := []*ledger.FinancialRecord{clearedRecord(t, sellerID)}

		ledgerRepo.On("FindBySeller", mock.Anything, sellerID, ledger.RecordStatusCleared, mock.AnythingOfType("shared.Filter")).
			Return(records, nil)

		req, _ := http.NewRequest(http.MethodGet, "/sellers/"+sellerID.String()+"/payouts?status=CLEARED", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ledgerRepo.AssertExpectations(t)
	})

	t.Run("should reject unknown status filter", func(t *testing.T) {
		router, _, handler := setupPayoutTestRouter()
		router.GET("/sellers/:id/payouts", handler.ListRecords)

		req, _ := http.NewRequest(http.MethodGet, "/sellers/"+uuid.New().String()+"/payouts?status=LOST", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPayoutHandler_PayOut(t *testing.T) {
	t.Run("should pay out cleared records", func(t *testing.T) {
		router, ledgerRepo, handler := setupPayoutTestRouter()
		router.POST("/sellers/:id/payouts", handler.PayOut)

		sellerID := uuid.New()
		records := []*ledger.FinancialRecord{clearedRecord(t, sellerID), clearedRecord(t, sellerID)}

		ledgerRepo.On("FindClearedBySellerForUpdate", mock.Anything, sellerID).Return(records, nil)
		ledgerRepo.On("Save", mock.Anything, mock.AnythingOfType("*ledger.FinancialRecord")).Return(nil).Times(2)

		req, _ := http.NewRequest(http.MethodPost, "/sellers/"+sellerID.String()+"/payouts", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "90", data["amount"])
		assert.Equal(t, float64(2), data["record_count"])

		ledgerRepo.AssertExpectations(t)
	})

	t.Run("should return 404 when nothing is payable", func(t *testing.T) {
		router, ledgerRepo, handler := setupPayoutTestRouter()
		router.POST("/sellers/:id/payouts", handler.PayOut)

		sellerID := uuid.New()
		ledgerRepo.On("FindClearedBySellerForUpdate", mock.Anything, sellerID).
			Return([]*ledger.FinancialRecord{}, nil)

		req, _ := http.NewRequest(http.MethodPost, "/sellers/"+sellerID.String()+"/payouts", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should propagate concurrency conflict as 409", func(t *testing.T) {
		router, ledgerRepo, handler := setupPayoutTestRouter()
		router.POST("/sellers/:id/payouts", handler.PayOut)

		sellerID := uuid.New()
		records := []*ledger.FinancialRecord{clearedRecord(t, sellerID)}

		ledgerRepo.On("FindClearedBySellerForUpdate", mock.Anything, sellerID).Return(records, nil)
		ledgerRepo.On("Save", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)

		req, _ := http.NewRequest(http.MethodPost, "/sellers/"+sellerID.String()+"/payouts", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
