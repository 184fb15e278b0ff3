package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway Errors
// ---------------------------------------------------------------------------

var (
	// Intent creation errors
	ErrIntentInvalidOrderID  = errors.New("gateway: invalid order ID")
	ErrIntentInvalidAmount   = errors.New("gateway: invalid intent amount")
	ErrIntentInvalidCurrency = errors.New("gateway: invalid intent currency")

	// Gateway transport errors
	ErrGatewayUnavailable     = errors.New("gateway: provider temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("gateway: provider request failed")
	ErrGatewayInvalidResponse = errors.New("gateway: invalid provider response")

	// Webhook errors
	ErrInvalidSignature = errors.New("gateway: invalid webhook signature")
	ErrSignatureExpired = errors.New("gateway: webhook signature timestamp outside tolerance")
	ErrMalformedPayload = errors.New("gateway: malformed webhook payload")
)

// ---------------------------------------------------------------------------
// Provider State Normalization
// ---------------------------------------------------------------------------

// providerStates maps raw provider state strings to the canonical Status.
// Provider vocabularies vary; every inbound state passes through this table
// before it touches a payment row.
var providerStates = map[string]Status{
	"created":         StatusPending,
	"pending":         StatusPending,
	"requires_action": StatusPending,
	"processing":      StatusProcessing,
	"authorized":      StatusProcessing,
	"succeeded":       StatusCompleted,
	"completed":       StatusCompleted,
	"paid":            StatusCompleted,
	"failed":          StatusFailed,
	"declined":        StatusFailed,
	"canceled":        StatusCancelled,
	"cancelled":       StatusCancelled,
	"expired":         StatusCancelled,
	"refunded":        StatusRefunded,
}

// NormalizeProviderState maps a raw provider state to the canonical Status.
// Unrecognized states map to StatusProcessing so a provider vocabulary change
// never strands an order in PENDING; the second return reports whether the
// state was recognized so callers can log the fallback.
func NormalizeProviderState(raw string) (Status, bool) {
	status, ok := providerStates[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return StatusProcessing, false
	}
	return status, true
}

// ---------------------------------------------------------------------------
// Intent Request/Response DTOs
// ---------------------------------------------------------------------------

// CreateIntentRequest represents a request to create a payment intent
type CreateIntentRequest struct {
	// OrderID is our internal order ID, echoed back in webhook events
	OrderID uuid.UUID
	// PaymentID is our internal payment attempt ID
	PaymentID uuid.UUID
	// Amount is the exact order total; the provider charges this amount
	Amount decimal.Decimal
	// Currency is the ISO currency code
	Currency string
	// Description is shown on the payer's statement
	Description string
	// IdempotencyKey deduplicates retried intent creations at the provider
	IdempotencyKey string
	// Metadata is additional key-value data attached to the intent
	Metadata map[string]string
}

// Validate validates the create intent request
func (r *CreateIntentRequest) Validate() error {
	if r.OrderID == uuid.Nil {
		return ErrIntentInvalidOrderID
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrIntentInvalidAmount
	}
	if r.Currency == "" {
		return ErrIntentInvalidCurrency
	}
	return nil
}

// CreateIntentResponse represents the provider's reply to an intent creation
type CreateIntentResponse struct {
	// IntentID is the provider-side intent identifier
	IntentID string
	// ClientSecret is handed to the buyer's client to complete payment
	ClientSecret string
	// Status is the normalized initial status
	Status Status
	// RawResponse is the original provider response (JSON)
	RawResponse string
}

// ---------------------------------------------------------------------------
// Webhook Event Types
// ---------------------------------------------------------------------------

// ProviderEvent is a verified, parsed webhook notification
type ProviderEvent struct {
	// ExternalEventID is the provider's unique event identifier, the
	// deduplication key for ingestion
	ExternalEventID string
	// IntentID is the provider-side intent the event refers to
	IntentID string
	// OrderID is our order ID echoed back from intent metadata
	OrderID uuid.UUID
	// RawState is the provider's state string before normalization
	RawState string
	// Status is the normalized payment status
	Status Status
	// StateKnown reports whether RawState was recognized during
	// normalization; unrecognized states normalize to StatusProcessing
	StateKnown bool
	// Amount is the provider-reported amount
	Amount decimal.Decimal
	// Currency is the provider-reported currency
	Currency string
	// Reason carries the provider's failure or cancellation detail
	Reason string
	// OccurredAt is the provider-side event timestamp
	OccurredAt time.Time
	// RawPayload is the original webhook body
	RawPayload string
}

// ---------------------------------------------------------------------------
// Gateway Port Interface
// ---------------------------------------------------------------------------

// Gateway defines the port interface for the external payment provider.
// It is defined in the domain layer; the concrete HTTP adapter lives in the
// infrastructure layer.
type Gateway interface {
	// Provider returns the provider name recorded on payments
	Provider() string

	// CreateIntent creates a payment intent at the provider for the exact
	// order total. Transport failures and timeouts map to
	// ErrGatewayUnavailable so callers can surface a retryable error.
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*CreateIntentResponse, error)

	// VerifyAndParse verifies the webhook signature header and parses the
	// payload into a ProviderEvent. Verification failures return
	// ErrInvalidSignature or ErrSignatureExpired; the event must be
	// rejected before any of it is trusted.
	VerifyAndParse(payload []byte, signatureHeader string) (*ProviderEvent, error)
}
