package notify

import (
	"context"

	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes messages to the application log. It is used when no
// SMTP relay is configured.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(logger *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg model.Message) error {
	n.logger.Info("Notifier: message not sent, smtp is not configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}
