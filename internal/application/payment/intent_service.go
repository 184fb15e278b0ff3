package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/ordering"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
)

// IntentService creates payment intents for pending orders
type IntentService struct {
	paymentRepo payment.Repository
	orderRepo   ordering.OrderRepository
	gateway     payment.Gateway
	uow         shared.UnitOfWork
	logger      *zap.Logger
}

// NewIntentService creates an intent service
func NewIntentService(
	paymentRepo payment.Repository,
	orderRepo ordering.OrderRepository,
	gateway payment.Gateway,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *IntentService {
	return &IntentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
		uow:         uow,
		logger:      logger,
	}
}

// CreateIntent creates a provider payment intent for the caller's pending
// order. The charged amount is always read from the stored order total;
// nothing the client sends can change it. An open attempt that already has
// an intent is returned as-is, so a buyer who retries checkout reuses the
// same intent instead of risking a double charge.
func (s *IntentService) CreateIntent(ctx context.Context, orderID, callerID uuid.UUID) (*PaymentResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != callerID {
		return nil, shared.ErrNotFound
	}
	if !order.IsPending() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot pay an order in status %s", order.Status))
	}
	if !order.CheckTotalInvariant() {
		s.logger.Error("order total does not match its lines",
			zap.String("order_id", order.ID.String()),
			zap.String("total", order.TotalAmount.StringFixed(2)))
		return nil, shared.ErrAmountMismatch
	}

	existing, err := s.paymentRepo.FindPendingByOrder(ctx, orderID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up open payment: %w", err)
	}
	if existing != nil && existing.ProviderIntentID != "" {
		response := ToPaymentResponse(existing)
		return &response, nil
	}

	attempt := existing
	if attempt == nil {
		attempt, err = payment.NewPayment(order.ID, order.BuyerID, order.TotalAmount, order.Currency, s.gateway.Provider())
		if err != nil {
			return nil, err
		}
		if err := s.paymentRepo.Save(ctx, attempt); err != nil {
			if !errors.Is(err, shared.ErrAlreadyExists) {
				return nil, fmt.Errorf("failed to save payment attempt: %w", err)
			}
			// A concurrent request opened an attempt for this order first;
			// converge on the winner instead of minting a second intent.
			attempt, err = s.paymentRepo.FindPendingByOrder(ctx, orderID)
			if err != nil {
				return nil, fmt.Errorf("failed to load concurrent payment attempt: %w", err)
			}
			if attempt.ProviderIntentID != "" {
				response := ToPaymentResponse(attempt)
				return &response, nil
			}
		}
	}

	// The attempt ID doubles as the provider idempotency key, so retrying
	// a failed call cannot create a second intent.
	intent, err := s.gateway.CreateIntent(ctx, &payment.CreateIntentRequest{
		OrderID:        order.ID,
		PaymentID:      attempt.ID,
		Amount:         order.TotalAmount,
		Currency:       string(order.Currency),
		Description:    fmt.Sprintf("Order %s", order.ID),
		IdempotencyKey: attempt.ID.String(),
	})
	if err != nil {
		s.logger.Error("intent creation failed",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_id", attempt.ID.String()),
			zap.Error(err))
		return nil, err
	}

	if err := attempt.AttachIntent(intent.IntentID, intent.ClientSecret); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.SaveWithLock(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to save payment intent: %w", err)
	}

	s.logger.Info("payment intent created",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", attempt.ID.String()),
		zap.String("intent_id", intent.IntentID))

	response := ToPaymentResponse(attempt)
	return &response, nil
}

// GetPayment retrieves a payment attempt. Buyers only see their own.
func (s *IntentService) GetPayment(ctx context.Context, paymentID, callerID uuid.UUID) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.BuyerID != callerID {
		return nil, shared.ErrNotFound
	}
	response := ToPaymentResponse(p)
	return &response, nil
}

// ListOrderPayments retrieves all payment attempts for the caller's order
func (s *IntentService) ListOrderPayments(ctx context.Context, orderID, callerID uuid.UUID) ([]PaymentResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != callerID {
		return nil, shared.ErrNotFound
	}
	payments, err := s.paymentRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}
