package notification

import (
	"context"

	"github.com/google/uuid"
)

// Message is a buyer-facing notification
type Message struct {
	RecipientID uuid.UUID
	Subject     string
	Body        string
}

// Notifier delivers buyer notifications. Delivery is best effort; callers
// never fail a transaction on a notification error.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}
