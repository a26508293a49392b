package worker

import (
	"context"
	"time"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/notify"
	"go.uber.org/zap"
)

const dispatchBatchSize = 20

// NotificationOutbox is interface for draining the notification queue
type NotificationOutbox interface {
	// Unsent returns the oldest undelivered notifications
	Unsent(ctx context.Context, limit int) ([]models.Notification, error)
	// MarkSent stamps the notification as delivered
	MarkSent(ctx context.Context, id int64, at time.Time) error
}

// NotificationDispatcher is worker that drains the outbox and hands
// each row to the mail sender
type NotificationDispatcher struct {
	outbox   NotificationOutbox
	mailer   notify.Mailer
	logger   *zap.Logger
	interval time.Duration
}

// NewNotificationDispatcher creates new notification dispatcher
func NewNotificationDispatcher(outbox NotificationOutbox, mailer notify.Mailer, logger *zap.Logger, interval time.Duration) *NotificationDispatcher {
	return &NotificationDispatcher{
		outbox:   outbox,
		mailer:   mailer,
		logger:   logger,
		interval: interval,
	}
}

// Run dispatches queued notifications until ctx is cancelled
func (nd *NotificationDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(nd.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			nd.logger.Debug("notification dispatcher is done")
			return
		case <-ticker.C:
			nd.dispatch(ctx)
		}
	}
}

func (nd *NotificationDispatcher) dispatch(ctx context.Context) {
	ns, err := nd.outbox.Unsent(ctx, dispatchBatchSize)
	if err != nil {
		nd.logger.Error("read notification outbox", zap.Error(err))
		return
	}

	for _, n := range ns {
		if err := nd.mailer.Send(ctx, n.Template, n.Recipient, n.Payload); err != nil {
			// left unsent, picked up again on the next tick
			nd.logger.Error("send notification",
				zap.Int64("id", n.ID),
				zap.String("template", n.Template),
				zap.Error(err))
			continue
		}

		if err := nd.outbox.MarkSent(ctx, n.ID, time.Now()); err != nil {
			nd.logger.Error("mark notification sent",
				zap.Int64("id", n.ID),
				zap.Error(err))
		}
	}
}
