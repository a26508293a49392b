package models

import "time"

// notification templates
const (
	TemplateWithdrawalRequested = "withdrawal-requested"
	TemplateWithdrawalConfirmed = "withdrawal-confirmed"
	TemplateDepositRequested    = "deposit-requested"
	TemplateDepositConfirmed    = "deposit-confirmed"
	TemplateInvoiceRequested    = "invoice-requested"
	TemplateInvoicePaid         = "invoice-paid"
)

// Notification is an outbox row waiting to be handed to the mail sender
type Notification struct {
	ID        int64
	Template  string
	Recipient string
	Payload   map[string]string
	CreatedAt time.Time
	SentAt    *time.Time
}
