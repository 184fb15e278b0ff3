package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	orderapp "github.com/marketplace/backend/internal/application/ordering"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

func setupOrderTestRouter() (*gin.Engine, *MockOrderRepository, *MockStockRepository, *OrderHandler) {
	gin.SetMode(gin.TestMode)

	orderRepo := new(MockOrderRepository)
	stockRepo := new(MockStockRepository)
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()

	pricing := orderapp.CheckoutPricing{
		TaxRate:      0.10,
		FlatShipping: 5.00,
		Currency:     valueobject.USD,
	}
	checkoutService := orderapp.NewCheckoutService(orderRepo, stockRepo, fakeUnitOfWork{}, notifier, pricing, zap.NewNop())
	orderService := orderapp.NewOrderService(orderRepo, fakeUnitOfWork{})
	handler := NewOrderHandler(checkoutService, orderService)

	router := gin.New()
	return router, orderRepo, stockRepo, handler
}

func setBuyerHeaders(req *http.Request, buyerID uuid.UUID) {
	req.Header.Set(HeaderUserID, buyerID.String())
	req.Header.Set(HeaderUserRole, ordering.BuyerRole)
	req.Header.Set(HeaderUserVerified, "true")
}

func testCheckoutBody(productID uuid.UUID) []byte {
	body, _ := json.Marshal(orderapp.CheckoutRequest{
		Items: []orderapp.CheckoutItemInput{{ProductID: productID, Quantity: 2}},
		ShippingAddress: orderapp.ShippingAddressInput{
			Name:       "Dana Smith",
			Phone:      "+15550100",
			Line1:      "500 Market St",
			City:       "Springfield",
			Region:     "IL",
			PostalCode: "62701",
			Country:    "US",
		},
		PaymentMethod: "card",
	})
	return body
}

func testBuyerOrder(buyerID uuid.UUID) *ordering.Order {
	addr, _ := valueobject.NewShippingAddress("Dana Smith", "+15550100", "500 Market St", "", "Springfield", "IL", "62701", "US")
	order, _ := ordering.NewOrder(buyerID, addr, valueobject.USD)
	price, _ := valueobject.NewMoney(decimal.NewFromInt(25), valueobject.USD)
	_, _ = order.AddItem(uuid.New(), uuid.New(), "Widget", "", "tools", 2, price)
	order.Finalize()
	return order
}

func TestOrderHandler_Checkout(t *testing.T) {
	t.Run("should place order successfully", func(t *testing.T) {
		router, orderRepo, stockRepo, handler := setupOrderTestRouter()
		router.POST("/orders/from-cart", handler.Checkout)

		buyerID := uuid.New()
		productID := uuid.New()
		item, _ := catalog.NewStockItem(productID, uuid.New(), "Widget", decimal.NewFromInt(25), valueobject.USD, 10)

		stockRepo.On("FindByProductIDsForUpdate", mock.Anything, []uuid.UUID{productID}).
			Return([]*catalog.StockItem{item}, nil)
		stockRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.StockItem")).Return(nil)
		orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)

		req, _ := http.NewRequest(http.MethodPost, "/orders/from-cart", bytes.NewBuffer(testCheckoutBody(productID)))
		req.Header.Set("Content-Type", "application/json")
		setBuyerHeaders(req, buyerID)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, string(ordering.OrderStatusPending), data["status"])
		assert.Equal(t, buyerID.String(), data["buyer_id"])

		orderRepo.AssertExpectations(t)
		stockRepo.AssertExpectations(t)
	})

	t.Run("should reject request without caller identity", func(t *testing.T) {
		router, _, _, handler := setupOrderTestRouter()
		router.POST("/orders/from-cart", handler.Checkout)

		req, _ := http.NewRequest(http.MethodPost, "/orders/from-cart", bytes.NewBuffer(testCheckoutBody(uuid.New())))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should reject unverified caller", func(t *testing.T) {
		router, _, _, handler := setupOrderTestRouter()
		router.POST("/orders/from-cart", handler.Checkout)

		req, _ := http.NewRequest(http.MethodPost, "/orders/from-cart", bytes.NewBuffer(testCheckoutBody(uuid.New())))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderUserID, uuid.New().String())
		req.Header.Set(HeaderUserRole, ordering.BuyerRole)
		req.Header.Set(HeaderUserVerified, "false")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("should reject empty cart", func(t *testing.T) {
		router, _, _, handler := setupOrderTestRouter()
		router.POST("/orders/from-cart", handler.Checkout)

		body, _ := json.Marshal(map[string]interface{}{
			"items": []interface{}{},
			"shipping_address": map[string]interface{}{
				"name": "Dana Smith", "phone": "+15550100", "line1": "500 Market St",
				"city": "Springfield", "region": "IL", "postal_code": "62701", "country": "US",
			},
		})
		req, _ := http.NewRequest(http.MethodPost, "/orders/from-cart", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		setBuyerHeaders(req, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should map insufficient stock to unprocessable", func(t *testing.T) {
		router, _, stockRepo, handler := setupOrderTestRouter()
		router.POST("/orders/from-cart", handler.Checkout)

		productID := uuid.New()
		item, _ := catalog.NewStockItem(productID, uuid.New(), "Widget", decimal.NewFromInt(25), valueobject.USD, 1)

		stockRepo.On("FindByProductIDsForUpdate", mock.Anything, []uuid.UUID{productID}).
			Return([]*catalog.StockItem{item}, nil)

		req, _ := http.NewRequest(http.MethodPost, "/orders/from-cart", bytes.NewBuffer(testCheckoutBody(productID)))
		req.Header.Set("Content-Type", "application/json")
		setBuyerHeaders(req, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.False(t, response["success"].(bool))
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	t.Run("should get own order", func(t *testing.T) {
		router, orderRepo, _, handler := setupOrderTestRouter()
		router.GET("/orders/:id", handler.GetOrder)

		buyerID := uuid.New()
		order := testBuyerOrder(buyerID)

		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		req, _ := http.NewRequest(http.MethodGet, "/orders/"+order.ID.String(), nil)
		setBuyerHeaders(req, buyerID)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		orderRepo.AssertExpectations(t)
	})

	t.Run("should return 404 for another buyer's order", func(t *testing.T) {
		router, orderRepo, _, handler := setupOrderTestRouter()
		router.GET("/orders/:id", handler.GetOrder)

		order := testBuyerOrder(uuid.New())
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		req, _ := http.NewRequest(http.MethodGet, "/orders/"+order.ID.String(), nil)
		setBuyerHeaders(req, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should return error for invalid order ID", func(t *testing.T) {
		router, _, _, handler := setupOrderTestRouter()
		router.GET("/orders/:id", handler.GetOrder)

		req, _ := http.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
		setBuyerHeaders(req, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_ListOrders(t *testing.T) {
	t.Run("should list caller's orders with pagination meta", func(t *testing.T) {
		router, orderRepo, _, handler := setupOrderTestRouter()
		router.GET("/orders", handler.ListOrders)

		buyerID := uuid.New()
		orders := []*ordering.Order{testBuyerOrder(buyerID), testBuyerOrder(buyerID)}

		orderRepo.On("FindByBuyer", mock.Anything, buyerID, mock.AnythingOfType("shared.Filter")).
			Return(orders, nil)
		orderRepo.On("CountByBuyer", mock.Anything, buyerID).Return(int64(2), nil)

		req, _ := http.NewRequest(http.MethodGet, "/orders?page=1&page_size=20", nil)
		setBuyerHeaders(req, buyerID)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		meta := response["meta"].(map[string]interface{})
		assert.Equal(t, float64(2), meta["total"])
	})

	t.Run("should reject invalid order direction", func(t *testing.T) {
		router, _, _, handler := setupOrderTestRouter()
		router.GET("/orders", handler.ListOrders)

		req, _ := http.NewRequest(http.MethodGet, "/orders?order_dir=sideways", nil)
		setBuyerHeaders(req, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_TransitionOrder(t *testing.T) {
	t.Run("should transition order", func(t *testing.T) {
		router, orderRepo, _, handler := setupOrderTestRouter()
		router.POST("/orders/:id/transition", handler.TransitionOrder)

		order := testBuyerOrder(uuid.New())
		assert.NoError(t, order.Transition(ordering.OrderStatusConfirmed))

		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		body, _ := json.Marshal(orderapp.TransitionOrderRequest{Status: string(ordering.OrderStatusProcessing)})
		req, _ := http.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/transition", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		orderRepo.AssertExpectations(t)
	})

	t.Run("should reject unknown status", func(t *testing.T) {
		router, _, _, handler := setupOrderTestRouter()
		router.POST("/orders/:id/transition", handler.TransitionOrder)

		body, _ := json.Marshal(orderapp.TransitionOrderRequest{Status: "TELEPORTED"})
		req, _ := http.NewRequest(http.MethodPost, "/orders/"+uuid.New().String()+"/transition", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should map illegal transition to unprocessable", func(t *testing.T) {
		router, orderRepo, _, handler := setupOrderTestRouter()
		router.POST("/orders/:id/transition", handler.TransitionOrder)

		order := testBuyerOrder(uuid.New())
		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		body, _ := json.Marshal(orderapp.TransitionOrderRequest{Status: string(ordering.OrderStatusDelivered)})
		req, _ := http.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/transition", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("should map concurrency conflict to 409", func(t *testing.T) {
		router, orderRepo, _, handler := setupOrderTestRouter()
		router.POST("/orders/:id/transition", handler.TransitionOrder)

		order := testBuyerOrder(uuid.New())
		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(shared.ErrConcurrencyConflict)

		body, _ := json.Marshal(orderapp.TransitionOrderRequest{Status: string(ordering.OrderStatusConfirmed)})
		req, _ := http.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/transition", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	t.Run("should cancel own pending order", func(t *testing.T) {
		router, orderRepo, _, handler := setupOrderTestRouter()
		router.POST("/orders/:id/cancel", handler.CancelOrder)

		buyerID := uuid.New()
		order := testBuyerOrder(buyerID)

		orderRepo.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

		body, _ := json.Marshal(orderapp.CancelOrderRequest{Reason: "changed my mind"})
		req, _ := http.NewRequest(http.MethodPost, "/orders/"+order.ID.String()+"/cancel", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		setBuyerHeaders(req, buyerID)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, string(ordering.OrderStatusCancelled), data["status"])
	})

	t.Run("should require cancel reason", func(t *testing.T) {
		router, _, _, handler := setupOrderTestRouter()
		router.POST("/orders/:id/cancel", handler.CancelOrder)

		body, _ := json.Marshal(map[string]string{})
		req, _ := http.NewRequest(http.MethodPost, "/orders/"+uuid.New().String()+"/cancel", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		setBuyerHeaders(req, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
