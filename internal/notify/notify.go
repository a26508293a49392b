// Package notify hands queued notifications to the mail-delivery
// collaborator. Delivery itself is external; the shipped Mailer only
// records what would have been sent.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers one templated message to a recipient
type Mailer interface {
	Send(ctx context.Context, template, recipient string, payload map[string]string) error
}

// LogMailer is a Mailer that writes deliveries to the log. It stands in
// for the external mail service in development and tests.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates new LogMailer instance
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the delivery and always succeeds
func (lm *LogMailer) Send(_ context.Context, template, recipient string, payload map[string]string) error {
	lm.logger.Info("sending mail",
		zap.String("template", template),
		zap.String("recipient", recipient),
		zap.Any("payload", payload))
	return nil
}
