package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/ledger"
)

// RecordListFilter represents filter options for ledger record lists
type RecordListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING CLEARED PAID REVERSED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// FinancialRecordResponse represents a ledger entry in API responses
type FinancialRecordResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	OrderItemID   uuid.UUID       `json:"order_item_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	GrossAmount   decimal.Decimal `json:"gross_amount"`
	PlatformFee   decimal.Decimal `json:"platform_fee"`
	ProcessingFee decimal.Decimal `json:"processing_fee"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	ClearedAt     *time.Time      `json:"cleared_at,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	PayoutID      *uuid.UUID      `json:"payout_id,omitempty"`
	PayoutMethod  string          `json:"payout_method,omitempty"`
	ReversedAt    *time.Time      `json:"reversed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PayoutRequest carries optional payout instructions
type PayoutRequest struct {
	Method string `json:"method" binding:"omitempty,oneof=bank_transfer paypal"`
}

// PayoutResponse summarizes one payout run for a seller
type PayoutResponse struct {
	PayoutID    uuid.UUID       `json:"payout_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Amount      decimal.Decimal `json:"amount"`
	RecordCount int             `json:"record_count"`
	PaidAt      time.Time       `json:"paid_at"`
}

// ToFinancialRecordResponse converts a domain record to a response DTO
func ToFinancialRecordResponse(record *ledger.FinancialRecord) FinancialRecordResponse {
	return FinancialRecordResponse{
		ID:            record.ID,
		OrderID:       record.OrderID,
		OrderItemID:   record.OrderItemID,
		SellerID:      record.SellerID,
		PaymentID:     record.PaymentID,
		GrossAmount:   record.GrossAmount,
		PlatformFee:   record.PlatformFee,
		ProcessingFee: record.ProcessingFee,
		NetAmount:     record.NetAmount,
		Currency:      string(record.Currency),
		Status:        string(record.Status),
		ClearedAt:     record.ClearedAt,
		PaidAt:        record.PaidAt,
		PayoutID:      record.PayoutID,
		PayoutMethod:  record.PayoutMethod,
		ReversedAt:    record.ReversedAt,
		CreatedAt:     record.CreatedAt,
	}
}

// ToFinancialRecordResponses converts a slice of domain records
func ToFinancialRecordResponses(records []*ledger.FinancialRecord) []FinancialRecordResponse {
	responses := make([]FinancialRecordResponse, len(records))
	for i, record := range records {
		responses[i] = ToFinancialRecordResponse(record)
	}
	return responses
}
