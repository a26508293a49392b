package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/repository/postgres"
)

const (
	insertNotificationQuery = `
						INSERT INTO notifications (template, recipient, payload)
						VALUES ($1, $2, $3)
						RETURNING id
`
	selectUnsentNotificationsQuery = `
						SELECT id, template, recipient, payload, created_at
						FROM notifications
						WHERE sent_at IS NULL
						ORDER BY created_at
						LIMIT $1
`
	markNotificationSentQuery = `
						UPDATE notifications SET sent_at = $1 WHERE id = $2
`
)

// NotificationRepository implements the notification outbox
type NotificationRepository struct {
	db *postgres.DB
}

// NewNotificationRepository creates new NotificationRepository instance
func NewNotificationRepository(db *postgres.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Enqueue inserts an unsent notification row
func (nr *NotificationRepository) Enqueue(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	return nr.db.QueryRow(ctx, insertNotificationQuery, n.Template, n.Recipient, payload).Scan(&n.ID)
}

// Unsent returns the oldest notifications that have not been handed to
// the mail sender yet
func (nr *NotificationRepository) Unsent(ctx context.Context, limit int) ([]models.Notification, error) {
	rows, err := nr.db.Query(ctx, selectUnsentNotificationsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ns []models.Notification
	for rows.Next() {
		var (
			n       models.Notification
			payload []byte
		)
		if err := rows.Scan(&n.ID, &n.Template, &n.Recipient, &payload, &n.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &n.Payload); err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ns, nil
}

// MarkSent stamps the notification as delivered
func (nr *NotificationRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := nr.db.Exec(ctx, markNotificationSentQuery, at, id)
	return err
}
