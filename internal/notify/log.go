package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/trustreach/verifyd/pkg/logger"
)

// LogNotifier records deliveries in the application log instead of sending
// email. Used in development when no SMTP relay is configured. The passcode
// itself is never logged.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier builds a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.WithModule("notify")}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.log.Info("delivery skipped (log notifier)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
