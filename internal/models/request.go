package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// deposit request status
const (
	DepositStatusPending   = "pending"
	DepositStatusConfirmed = "confirmed"
)

// invoice request status
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
)

// DepositRequest is a user-declared incoming transfer waiting for an
// admin to confirm it and credit the wallet.
type DepositRequest struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	UserEmail   string
	Username    string
	Amount      decimal.Decimal
	Method      string
	RequestedAt time.Time
	Status      string
}

// InvoiceRequest is a user request for a payment invoice
type InvoiceRequest struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	UserEmail   string
	Username    string
	Amount      decimal.Decimal
	Description string
	RequestedAt time.Time
	Status      string
}
