package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/notification"
)

// LogNotifier writes buyer notifications to the structured log. It stands in
// for an email or push channel in environments without one configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message instead of delivering it
func (n *LogNotifier) Notify(_ context.Context, msg notification.Message) error {
	n.logger.Info("buyer notification",
		zap.String("recipient_id", msg.RecipientID.String()),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// Ensure LogNotifier implements the Notifier port
var _ notification.Notifier = (*LogNotifier)(nil)
