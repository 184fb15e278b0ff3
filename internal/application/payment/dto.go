package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/payment"
)

// CreateIntentRequest represents a buyer's request to start paying an order
type CreateIntentRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

// PaymentResponse represents a payment attempt in API responses
type PaymentResponse struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          uuid.UUID       `json:"order_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	Provider         string          `json:"provider"`
	ProviderIntentID string          `json:"provider_intent_id,omitempty"`
	ClientSecret     string          `json:"client_secret,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	RefundedAt       *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// WebhookResult reports what ingestion did with a delivery. Every outcome
// other than a verification failure acknowledges the delivery; the provider
// must not retry events we have dispositioned.
type WebhookResult struct {
	EventID   string `json:"event_id"`
	Outcome   string `json:"outcome"`
	PaymentID string `json:"payment_id,omitempty"`
}

const (
	// OutcomeApplied means the event advanced a payment
	OutcomeApplied = "applied"
	// OutcomeStale means stored state already out-ranked the event
	OutcomeStale = "stale"
	// OutcomeSkipped means the event could not be applied and was recorded
	OutcomeSkipped = "skipped"
	// OutcomeDuplicate means the event was already processed
	OutcomeDuplicate = "duplicate"
)

// ToPaymentResponse converts a domain payment to a response DTO
func ToPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount,
		Currency:         string(p.Currency),
		Status:           string(p.Status),
		Provider:         p.Provider,
		ProviderIntentID: p.ProviderIntentID,
		ClientSecret:     p.ClientSecret,
		FailureReason:    p.FailureReason,
		CompletedAt:      p.CompletedAt,
		RefundedAt:       p.RefundedAt,
		CreatedAt:        p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of domain payments
func ToPaymentResponses(payments []*payment.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = ToPaymentResponse(p)
	}
	return responses
}
