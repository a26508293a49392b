package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coinport/backoffice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOutbox struct {
	mu   sync.Mutex
	rows []models.Notification
}

func (f *fakeOutbox) Unsent(_ context.Context, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ns []models.Notification
	for _, n := range f.rows {
		if n.SentAt == nil {
			ns = append(ns, n)
		}
		if len(ns) == limit {
			break
		}
	}
	return ns, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].SentAt = &at
		}
	}
	return nil
}

func (f *fakeOutbox) unsentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, n := range f.rows {
		if n.SentAt == nil {
			count++
		}
	}
	return count
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []string
	failOn string
}

func (f *fakeMailer) Send(_ context.Context, template, recipient string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if template == f.failOn {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, recipient)
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestNotificationDispatcher_DrainsOutbox(t *testing.T) {
	outbox := &fakeOutbox{rows: []models.Notification{
		{ID: 1, Template: models.TemplateWithdrawalConfirmed, Recipient: "a@x.com"},
		{ID: 2, Template: models.TemplateDepositConfirmed, Recipient: "b@y.com"},
	}}
	mailer := &fakeMailer{}

	nd := NewNotificationDispatcher(outbox, mailer, zap.NewNop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go nd.Run(ctx)

	require.Eventually(t, func() bool {
		return outbox.unsentCount() == 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 2, mailer.sentCount())
}

func TestNotificationDispatcher_KeepsFailedDeliveries(t *testing.T) {
	outbox := &fakeOutbox{rows: []models.Notification{
		{ID: 1, Template: models.TemplateWithdrawalConfirmed, Recipient: "a@x.com"},
		{ID: 2, Template: models.TemplateInvoicePaid, Recipient: "b@y.com"},
	}}
	mailer := &fakeMailer{failOn: models.TemplateInvoicePaid}

	nd := NewNotificationDispatcher(outbox, mailer, zap.NewNop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go nd.Run(ctx)

	require.Eventually(t, func() bool {
		return outbox.unsentCount() == 1
	}, time.Second, 5*time.Millisecond)

	// the failed row stays queued for the next tick
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, outbox.unsentCount())
}
