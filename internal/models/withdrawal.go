package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// withdrawal request status
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusConfirmed = "confirmed"
)

// Currency is the only settlement currency of the portal.
// Amounts are stored and returned as-is, no unit conversion.
const Currency = "USDT"

// WithdrawalRequest is a user-submitted intent to withdraw funds.
// It stays in the withdrawal_requests collection for its whole life;
// confirming it produces a Withdrawal ledger entry under the shared
// WithdrawalID key.
type WithdrawalRequest struct {
	ID           uuid.UUID
	WithdrawalID string
	UserID       uuid.UUID
	UserEmail    string
	Username     string
	Amount       decimal.Decimal
	Address      string
	RequestedAt  time.Time
	Status       string
}

// Withdrawal is a confirmed ledger entry. Its existence is the single
// source of truth for "this withdrawal has been paid out".
type Withdrawal struct {
	WithdrawalID string
	UserEmail    string
	Username     string
	Amount       decimal.Decimal
	Address      string
	Status       string
	ConfirmedAt  time.Time
}

// Cursor marks the last record of a fetched page. Pages are ordered by
// time descending with the row id as a tiebreak, so the pair identifies
// a unique position in the collection.
type Cursor struct {
	Time time.Time
	ID   string
}

// IsZero reports whether the cursor points at nothing (first page).
func (c Cursor) IsZero() bool {
	return c.Time.IsZero() && c.ID == ""
}
