package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// user roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a portal account
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	Role         string
	RegisteredAt time.Time
}

// Wallet holds the stored USDT balance of one user. The balance is the
// debit/credit target of withdrawal confirmation and must never go negative.
type Wallet struct {
	UserID  uuid.UUID
	Balance decimal.Decimal
}

// TokenPayload is the authenticated identity carried inside a JWT
type TokenPayload struct {
	UserID   uuid.UUID
	Email    string
	Username string
	Role     string
}
