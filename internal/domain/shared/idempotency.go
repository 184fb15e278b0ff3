package shared

import (
	"context"
	"time"
)

// IdempotencyStore is a fast-path guard against reprocessing webhook events.
// The webhook_events unique constraint remains the source of truth; this
// store only short-circuits obvious replays before a database round trip.
type IdempotencyStore interface {
	// MarkProcessed marks an event as processed with a TTL.
	// Returns true if the event was newly marked, false if already present.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an event has already been processed
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Forget removes an event mark so a failed delivery can be retried
	Forget(ctx context.Context, eventID string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed event IDs
	TTL time.Duration

	// Enabled determines whether the fast-path check is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
