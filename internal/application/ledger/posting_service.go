package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/ordering"
)

// PostingService writes ledger entries for paid and refunded orders.
// Callers invoke it inside the same transaction that records the payment
// outcome, so the ledger never disagrees with payment state.
type PostingService struct {
	ledgerRepo ledger.Repository
	fees       ledger.FeeSchedule
	logger     *zap.Logger
}

// NewPostingService creates a posting service
func NewPostingService(ledgerRepo ledger.Repository, fees ledger.FeeSchedule, logger *zap.Logger) *PostingService {
	return &PostingService{ledgerRepo: ledgerRepo, fees: fees, logger: logger}
}

// PostForOrder creates one PENDING ledger entry per order item, splitting
// each item subtotal into platform fee, processing fee, and seller net.
// Items already posted
// are skipped, so reposting after a webhook redelivery is a no-op.
func (s *PostingService) PostForOrder(ctx context.Context, order *ordering.Order, paymentID uuid.UUID) error {
	records := make([]*ledger.FinancialRecord, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		record, err := ledger.NewFinancialRecord(order.ID, item.ID, item.SellerID, paymentID, item.Subtotal, order.Currency, s.fees)
		if err != nil {
			return fmt.Errorf("failed to build ledger record for item %s: %w", item.ID, err)
		}
		records = append(records, record)
	}

	if err := s.ledgerRepo.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("failed to post ledger records: %w", err)
	}

	s.logger.Info("ledger posted",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.Int("records", len(records)))
	return nil
}

// ReverseForOrder reverses every reversible ledger entry for an order after
// a refund. Entries already paid out stay put; clawing back settled payouts
// is a manual operation.
func (s *PostingService) ReverseForOrder(ctx context.Context, orderID uuid.UUID) error {
	records, err := s.ledgerRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load ledger records: %w", err)
	}

	for _, record := range records {
		if record.Status == ledger.RecordStatusPaid || record.Status == ledger.RecordStatusReversed {
			s.logger.Warn("skipping ledger reversal",
				zap.String("record_id", record.ID.String()),
				zap.String("status", string(record.Status)))
			continue
		}
		if err := record.Reverse(); err != nil {
			return err
		}
		if err := s.ledgerRepo.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to save reversed record: %w", err)
		}
	}
	return nil
}
