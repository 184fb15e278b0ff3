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
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// LedgerPoster posts and reverses seller ledger entries. It runs inside the
// webhook transaction so ledger state commits atomically with payment state.
type LedgerPoster interface {
	PostForOrder(ctx context.Context, order *ordering.Order, paymentID uuid.UUID) error
	ReverseForOrder(ctx context.Context, orderID uuid.UUID) error
}

// errDuplicateDelivery signals that the event record already existed; the
// enclosing transaction rolls back and the delivery is acknowledged.
var errDuplicateDelivery = errors.New("duplicate webhook delivery")

// WebhookService ingests verified provider events and applies them to
// payments, orders, and the seller ledger exactly once
type WebhookService struct {
	gateway     payment.Gateway
	paymentRepo payment.Repository
	orderRepo   ordering.OrderRepository
	eventRepo   payment.WebhookEventRepository
	ledger      LedgerPoster
	uow         shared.UnitOfWork
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewWebhookService creates a webhook ingestion service
func NewWebhookService(
	gateway payment.Gateway,
	paymentRepo payment.Repository,
	orderRepo ordering.OrderRepository,
	eventRepo payment.WebhookEventRepository,
	ledger LedgerPoster,
	uow shared.UnitOfWork,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		gateway:     gateway,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		eventRepo:   eventRepo,
		ledger:      ledger,
		uow:         uow,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		logger:      logger,
	}
}

// Ingest verifies, deduplicates, and applies one webhook delivery.
//
// Signature and parse failures return an error and nothing is recorded; the
// provider should retry with a valid delivery. Every other path records the
// event and returns a result, acknowledging the delivery. The row lock on
// the payment serializes concurrent deliveries for the same intent, and the
// unique constraint on the event ID makes application exactly-once even if
// two deliveries race past the fast-path check.
func (s *WebhookService) Ingest(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	event, err := s.gateway.VerifyAndParse(payload, signatureHeader)
	if err != nil {
		s.logger.Warn("webhook rejected", zap.Error(err))
		return nil, err
	}
	if !event.StateKnown {
		s.logger.Warn("unknown provider state, treating as processing",
			zap.String("event_id", event.ExternalEventID),
			zap.String("raw_state", event.RawState))
	}

	s.logger.Info("webhook received",
		zap.String("event_id", event.ExternalEventID),
		zap.String("intent_id", event.IntentID),
		zap.String("raw_state", event.RawState))

	if s.idemConfig.Enabled && s.idempotency != nil {
		seen, err := s.idempotency.IsProcessed(ctx, event.ExternalEventID)
		if err != nil {
			// The cache is advisory; the database constraint still holds.
			s.logger.Warn("idempotency check failed", zap.Error(err))
		} else if seen {
			return &WebhookResult{EventID: event.ExternalEventID, Outcome: OutcomeDuplicate}, nil
		}
	}

	result := &WebhookResult{EventID: event.ExternalEventID}
	err = s.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return s.apply(txCtx, event, result)
	})
	if errors.Is(err, errDuplicateDelivery) {
		result.Outcome = OutcomeDuplicate
		err = nil
	}
	if err != nil {
		s.markFailed(ctx, event, err)
		return nil, err
	}

	if s.idemConfig.Enabled && s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, event.ExternalEventID, s.idemConfig.TTL); err != nil {
			s.logger.Warn("idempotency mark failed", zap.Error(err))
		}
	}
	return result, nil
}

// apply runs inside the ingestion transaction
func (s *WebhookService) apply(ctx context.Context, event *payment.ProviderEvent, result *WebhookResult) error {
	p, err := s.paymentRepo.FindByIntentIDForUpdate(ctx, event.IntentID)
	if errors.Is(err, shared.ErrNotFound) {
		// Event for an intent we never created. Record it so the provider
		// stops retrying, and leave it for reconciliation.
		s.logger.Warn("webhook for unknown intent",
			zap.String("event_id", event.ExternalEventID),
			zap.String("intent_id", event.IntentID))
		return s.recordEvent(ctx, event, uuid.Nil, payment.WebhookOutcomeSkipped, result, OutcomeSkipped)
	}
	if err != nil {
		return fmt.Errorf("failed to lock payment: %w", err)
	}
	result.PaymentID = p.ID.String()

	if event.Status == payment.StatusCompleted {
		if err := p.VerifyAmount(event.Amount, valueobject.Currency(event.Currency)); err != nil {
			s.logger.Error("webhook amount mismatch",
				zap.String("event_id", event.ExternalEventID),
				zap.String("payment_id", p.ID.String()),
				zap.String("expected", p.Amount.StringFixed(2)),
				zap.String("reported", event.Amount.StringFixed(2)),
				zap.Error(err))
			return s.recordEvent(ctx, event, p.ID, payment.WebhookOutcomeSkipped, result, OutcomeSkipped)
		}
	}

	applied, err := p.ApplyProviderStatus(event.Status, event.Reason, event.OccurredAt)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "INVALID_TRANSITION" {
			return s.recordEvent(ctx, event, p.ID, payment.WebhookOutcomeSkipped, result, OutcomeSkipped)
		}
		return err
	}
	if !applied {
		return s.recordEvent(ctx, event, p.ID, payment.WebhookOutcomeStale, result, OutcomeStale)
	}

	if err := s.paymentRepo.SaveWithLock(ctx, p); err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}

	order, err := s.orderRepo.FindByIDForUpdate(ctx, p.OrderID)
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}
	if err := order.ApplyPaymentOutcome(ordering.PaymentStatus(event.Status)); err != nil {
		return err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	switch event.Status {
	case payment.StatusCompleted:
		if err := s.ledger.PostForOrder(ctx, order, p.ID); err != nil {
			return err
		}
	case payment.StatusRefunded:
		if err := s.ledger.ReverseForOrder(ctx, order.ID); err != nil {
			return err
		}
	}

	return s.recordEvent(ctx, event, p.ID, payment.WebhookOutcomeApplied, result, OutcomeApplied)
}

// recordEvent writes the durable processed-event record and sets the result
// outcome. A unique violation means another delivery won the race; the
// caller rolls the transaction back and acknowledges.
func (s *WebhookService) recordEvent(ctx context.Context, event *payment.ProviderEvent, paymentID uuid.UUID, outcome payment.WebhookOutcome, result *WebhookResult, resultOutcome string) error {
	record, err := payment.NewWebhookEvent(event, paymentID, outcome)
	if err != nil {
		return err
	}
	if err := s.eventRepo.Record(ctx, record); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return errDuplicateDelivery
		}
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	result.Outcome = resultOutcome
	return nil
}

// markFailed leaves a best-effort failure marker after the ingestion
// transaction rolled back. The marker does not block redelivery: the event
// repository overwrites FAILED rows, so the provider's retry processes the
// event normally.
func (s *WebhookService) markFailed(ctx context.Context, event *payment.ProviderEvent, cause error) {
	record, err := payment.NewFailedWebhookEvent(event, uuid.Nil, cause.Error())
	if err != nil {
		s.logger.Warn("failed to build webhook failure marker", zap.Error(err))
		return
	}
	if err := s.eventRepo.Record(ctx, record); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
		s.logger.Warn("failed to record webhook failure",
			zap.String("event_id", event.ExternalEventID),
			zap.Error(err))
	}
}
