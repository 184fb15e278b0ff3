package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
)

// PayoutService clears matured ledger entries and pays sellers out
type PayoutService struct {
	ledgerRepo     ledger.Repository
	uow            shared.UnitOfWork
	clearingPeriod time.Duration
	logger         *zap.Logger
}

// NewPayoutService creates a payout service
func NewPayoutService(ledgerRepo ledger.Repository, uow shared.UnitOfWork, clearingPeriod time.Duration, logger *zap.Logger) *PayoutService {
	return &PayoutService{
		ledgerRepo:     ledgerRepo,
		uow:            uow,
		clearingPeriod: clearingPeriod,
		logger:         logger,
	}
}

// ClearDue moves PENDING records whose clearing period has elapsed to
// CLEARED. Returns the number of records cleared. Run periodically.
func (s *PayoutService) ClearDue(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.clearingPeriod)

	var cleared int
	err := s.uow.WithinTx(ctx, func(txCtx context.Context) error {
		records, err := s.ledgerRepo.FindPendingCreatedBefore(txCtx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to load due records: %w", err)
		}
		for _, record := range records {
			if err := record.Clear(); err != nil {
				return err
			}
			if err := s.ledgerRepo.Save(txCtx, record); err != nil {
				return fmt.Errorf("failed to save cleared record: %w", err)
			}
			cleared++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if cleared > 0 {
		s.logger.Info("clearing run finished", zap.Int("cleared", cleared))
	}
	return cleared, nil
}

// PayOutSeller pays out every CLEARED record for the seller under one payout
// ID. The records stay row-locked until commit, so two concurrent payout
// runs cannot pay the same record twice. Returns ErrNotFound when nothing
// is payable.
func (s *PayoutService) PayOutSeller(ctx context.Context, sellerID uuid.UUID, method string) (*PayoutResponse, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if method == "" {
		method = "bank_transfer"
	}

	payoutID := uuid.New()
	var response *PayoutResponse

	err := s.uow.WithinTx(ctx, func(txCtx context.Context) error {
		records, err := s.ledgerRepo.FindClearedBySellerForUpdate(txCtx, sellerID)
		if err != nil {
			return fmt.Errorf("failed to lock cleared records: %w", err)
		}
		if len(records) == 0 {
			return shared.ErrNotFound
		}

		total := decimal.Zero
		for _, record := range records {
			if err := record.MarkPaid(payoutID, method); err != nil {
				return err
			}
			if err := s.ledgerRepo.Save(txCtx, record); err != nil {
				return fmt.Errorf("failed to save paid record: %w", err)
			}
			total = total.Add(record.NetAmount)
		}

		response = &PayoutResponse{
			PayoutID:    payoutID,
			SellerID:    sellerID,
			Amount:      total,
			RecordCount: len(records),
			PaidAt:      time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("seller paid out",
		zap.String("seller_id", sellerID.String()),
		zap.String("payout_id", payoutID.String()),
		zap.String("amount", response.Amount.StringFixed(2)),
		zap.Int("records", response.RecordCount))
	return response, nil
}

// Balance returns the seller's ledger position grouped by status
func (s *PayoutService) Balance(ctx context.Context, sellerID uuid.UUID) (*ledger.SellerBalance, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	return s.ledgerRepo.BalanceBySeller(ctx, sellerID)
}

// ListSellerRecords retrieves a page of a seller's ledger entries
func (s *PayoutService) ListSellerRecords(ctx context.Context, sellerID uuid.UUID, filter RecordListFilter) ([]FinancialRecordResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	records, err := s.ledgerRepo.FindBySeller(ctx, sellerID, ledger.RecordStatus(filter.Status), domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger records: %w", err)
	}
	return ToFinancialRecordResponses(records), nil
}
