package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	paymentapp "github.com/marketplace/backend/internal/application/payment"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
)

func setupPaymentTestRouter() (*gin.Engine, *MockPaymentRepository, *MockOrderRepository, *MockGateway, *PaymentHandler) {
	gin.SetMode(gin.TestMode)

	paymentRepo := new(MockPaymentRepository)
	orderRepo := new(MockOrderRepository)
	gateway := new(MockGateway)
	gateway.On("Provider").Return("acme").Maybe()

	service := paymentapp.NewIntentService(paymentRepo, orderRepo, gateway, fakeUnitOfWork{}, zap.NewNop())
	handler := NewPaymentHandler(service)

	router := gin.New()
	return router, paymentRepo, orderRepo, gateway, handler
}

func TestPaymentHandler_CreateIntent(t *testing.T) {
	t.Run("should create intent for pending order", func(t *testing.T) {
		router, paymentRepo, orderRepo, gateway, handler := setupPaymentTestRouter()
		router.POST("/orders/:id/payment-intent", handler.CreateIntent)

		buyerID := uuid.New()
		order := testBuyerOrder(buyerID)

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		paymentRepo.On("FindPendingByOrder", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)
		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)
		gateway.On("CreateIntent", mock.Anything, mock.AnythingOfType("*payment.CreateIntentRequest")).
			Return(&payment.CreateIntentResponse{
				IntentID:     "pi_123",
				ClientSecret: "pi_123_secret",
				Status:       payment.StatusPending,
			}, nil)
		paymentRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)

		req, _ := http.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/payment-intent", nil)
		setBuyerHeaders(req, buyerID)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "pi_123", data["provider_intent_id"])
		assert.Equal(t, "pi_123_secret", data["client_secret"])

		paymentRepo.AssertExpectations(t)
		gateway.AssertExpectations(t)
	})

	t.Run("should return 503 when gateway is unreachable", func(t *testing.T) {
		router, paymentRepo, orderRepo, gateway, handler := setupPaymentTestRouter()
		router.POST("/orders/:id/payment-intent", handler.CreateIntent)

		buyerID := uuid.New()
		order := testBuyerOrder(buyerID)

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		paymentRepo.On("FindPendingByOrder", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)
		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)
		gateway.On("CreateIntent", mock.Anything, mock.Anything).
			Return(nil, payment.ErrGatewayUnavailable)

		req, _ := http.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/payment-intent", nil)
		setBuyerHeaders(req, buyerID)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("should return 404 for another buyer's order", func(t *testing.T) {
		router, _, orderRepo, _, handler := setupPaymentTestRouter()
		router.POST("/orders/:id/payment-intent", handler.CreateIntent)

		order := testBuyerOrder(uuid.New())
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		req, _ := http.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/payment-intent", nil)
		setBuyerHeaders(req, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should require caller identity", func(t *testing.T) {
		router, _, _, _, handler := setupPaymentTestRouter()
		router.POST("/orders/:id/payment-intent", handler.CreateIntent)

		req, _ := http.NewRequest(http.MethodPost, "/orders/"+uuid.New().String()+"/payment-intent", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPaymentHandler_GetPayment(t *testing.T) {
	t.Run("should get own payment", func(t *testing.T) {
		router, paymentRepo, _, _, handler := setupPaymentTestRouter()
		router.GET("/payments/:id", handler.GetPayment)

		buyerID := uuid.New()
		order := testBuyerOrder(buyerID)
		p, _ := payment.NewPayment(order.ID, buyerID, order.TotalAmount, order.Currency, "acme")

		paymentRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)

		req, _ := http.NewRequest(http.MethodGet, "/payments/"+p.ID.String(), nil)
		setBuyerHeaders(req, buyerID)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should hide another buyer's payment", func(t *testing.T) {
		router, paymentRepo, _, _, handler := setupPaymentTestRouter()
		router.GET("/payments/:id", handler.GetPayment)

		order := testBuyerOrder(uuid.New())
		p, _ := payment.NewPayment(order.ID, order.BuyerID, order.TotalAmount, order.Currency, "acme")

		paymentRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)

		req, _ := http.NewRequest(http.MethodGet, "/payments/"+p.ID.String(), nil)
		setBuyerHeaders(req, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
