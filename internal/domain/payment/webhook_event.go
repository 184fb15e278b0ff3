package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/shared"
)

// WebhookOutcome records what ingestion did with a webhook event
type WebhookOutcome string

const (
	// WebhookOutcomeApplied means the event advanced a payment
	WebhookOutcomeApplied WebhookOutcome = "APPLIED"
	// WebhookOutcomeStale means the event was out-ranked by stored state
	WebhookOutcomeStale WebhookOutcome = "STALE"
	// WebhookOutcomeSkipped means the event was recorded without touching
	// any payment (unknown intent, amount mismatch, invalid transition)
	WebhookOutcomeSkipped WebhookOutcome = "SKIPPED"
	// WebhookOutcomeFailed means processing errored after verification; the
	// marker is overwritten when a redelivery processes the event
	WebhookOutcomeFailed WebhookOutcome = "FAILED"
)

// IsValid checks if the outcome is a valid WebhookOutcome
func (o WebhookOutcome) IsValid() bool {
	switch o {
	case WebhookOutcomeApplied, WebhookOutcomeStale, WebhookOutcomeSkipped, WebhookOutcomeFailed:
		return true
	}
	return false
}

// WebhookEvent is the durable record of a processed provider event.
// The unique constraint on EventID is the source of truth for exactly-once
// application; inserting a duplicate fails and the delivery is acknowledged
// without reapplying.
type WebhookEvent struct {
	shared.BaseEntity
	EventID       string `gorm:"uniqueIndex;not null"`
	IntentID      string
	OrderID       uuid.UUID
	PaymentID     uuid.UUID
	RawState      string
	Outcome       WebhookOutcome
	FailureReason string `gorm:"type:text"`
	RawPayload    string `gorm:"type:text"`
	ProcessedAt   time.Time
}

// TableName pins the table name used by the persistence layer
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// NewWebhookEvent records a processed provider event
func NewWebhookEvent(event *ProviderEvent, paymentID uuid.UUID, outcome WebhookOutcome) (*WebhookEvent, error) {
	if event.ExternalEventID == "" {
		return nil, shared.NewDomainError("INVALID_EVENT", "External event ID cannot be empty")
	}
	if !outcome.IsValid() {
		return nil, shared.NewDomainError("INVALID_EVENT", "Unknown webhook outcome")
	}

	return &WebhookEvent{
		BaseEntity:  shared.NewBaseEntity(),
		EventID:     event.ExternalEventID,
		IntentID:    event.IntentID,
		OrderID:     event.OrderID,
		PaymentID:   paymentID,
		RawState:    event.RawState,
		Outcome:     outcome,
		RawPayload:  event.RawPayload,
		ProcessedAt: time.Now(),
	}, nil
}

// NewFailedWebhookEvent records a delivery whose processing errored. The
// failure reason is kept for operators; a later successful redelivery
// replaces the marker.
func NewFailedWebhookEvent(event *ProviderEvent, paymentID uuid.UUID, reason string) (*WebhookEvent, error) {
	record, err := NewWebhookEvent(event, paymentID, WebhookOutcomeFailed)
	if err != nil {
		return nil, err
	}
	record.FailureReason = reason
	return record, nil
}
