package service

import (
	"context"

	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletRepository is interface for interacting with wallet balances
type WalletRepository interface {
	// CreateWallet creates wallet with initial balance
	CreateWallet(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error
	// Balance returns current wallet balance
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	// Debit subtracts amount if the balance stays non-negative
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	// Credit adds amount to the wallet
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
}

// WalletService is the ledger adapter for stored user balances
type WalletService struct {
	repo   WalletRepository
	logger *zap.Logger
}

// NewWalletService creates new WalletService instance
func NewWalletService(repo WalletRepository, logger *zap.Logger) *WalletService {
	return &WalletService{repo: repo, logger: logger}
}

// GetBalance returns current wallet balance of user
func (ws *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return ws.repo.Balance(ctx, userID)
}

// Debit subtracts amount from the user's wallet. A debit that would take
// the balance below zero is rejected with models.ErrInsufficientBalance
// and changes nothing.
func (ws *WalletService) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}

	if err := ws.repo.Debit(ctx, userID, amount); err != nil {
		if err != models.ErrInsufficientBalance {
			ws.logger.Error("debit wallet",
				zap.String("user_id", userID.String()),
				zap.String("amount", amount.String()),
				zap.Error(err))
		}
		return err
	}
	return nil
}

// Credit adds amount to the user's wallet. A user without a wallet row
// is treated as holding a zero balance.
func (ws *WalletService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}

	if err := ws.repo.Credit(ctx, userID, amount); err != nil {
		ws.logger.Error("credit wallet",
			zap.String("user_id", userID.String()),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return err
	}
	return nil
}
