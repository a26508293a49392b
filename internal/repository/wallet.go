package repository

import (
	"context"
	"errors"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	selectBalanceQuery = `
						SELECT balance FROM wallets WHERE user_id = $1
`
	insertWalletQuery = `
						INSERT INTO wallets (user_id, balance) VALUES ($1, $2)
`
)

// WalletRepository implements atomic debit/credit on stored balances.
// Both operations are single conditional statements, so two concurrent
// confirms against the same user cannot overdraw the wallet.
type WalletRepository struct {
	db *postgres.DB
}

// NewWalletRepository creates new WalletRepository instance
func NewWalletRepository(db *postgres.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// CreateWallet creates wallet with initial balance
func (wr *WalletRepository) CreateWallet(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error {
	if _, err := wr.db.Exec(ctx, insertWalletQuery, userID, balance); err != nil {
		if errCode := wr.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return models.ErrConflictData
		}
		return err
	}
	return nil
}

// Balance returns current wallet balance. A user without a wallet row
// has a zero balance.
func (wr *WalletRepository) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := wr.db.QueryRow(ctx, selectBalanceQuery, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance, nil
}

// Debit subtracts amount from the wallet if the remaining balance stays
// non-negative, otherwise returns models.ErrInsufficientBalance and
// leaves the balance unchanged.
func (wr *WalletRepository) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	tag, err := wr.db.Exec(ctx, debitWalletQuery, amount, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInsufficientBalance
	}
	return nil
}

// Credit adds amount to the wallet, creating the wallet row if the user
// has none yet.
func (wr *WalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	_, err := wr.db.Exec(ctx, creditWalletQuery, userID, amount)
	return err
}
