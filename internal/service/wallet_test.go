package service

import (
	"context"
	"testing"

	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeWalletRepo keeps balances in memory with the same conditional
// debit semantics as the real repository
type fakeWalletRepo struct {
	balances map[uuid.UUID]decimal.Decimal
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{balances: make(map[uuid.UUID]decimal.Decimal)}
}

func (f *fakeWalletRepo) CreateWallet(_ context.Context, userID uuid.UUID, balance decimal.Decimal) error {
	if _, ok := f.balances[userID]; ok {
		return models.ErrConflictData
	}
	f.balances[userID] = balance
	return nil
}

func (f *fakeWalletRepo) Balance(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return f.balances[userID], nil
}

func (f *fakeWalletRepo) Debit(_ context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	balance, ok := f.balances[userID]
	if !ok || balance.LessThan(amount) {
		return models.ErrInsufficientBalance
	}
	f.balances[userID] = balance.Sub(amount)
	return nil
}

func (f *fakeWalletRepo) Credit(_ context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	f.balances[userID] = f.balances[userID].Add(amount)
	return nil
}

func TestWalletService_Debit(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		amount      int64
		wantErr     error
		wantBalance int64
	}{
		{
			name:        "debit_within_balance",
			balance:     100,
			amount:      30,
			wantBalance: 70,
		},
		{
			name:        "debit_whole_balance",
			balance:     30,
			amount:      30,
			wantBalance: 0,
		},
		{
			name:        "debit_exceeding_balance_is_rejected",
			balance:     100,
			amount:      101,
			wantErr:     models.ErrInsufficientBalance,
			wantBalance: 100,
		},
		{
			name:        "zero_amount_is_rejected",
			balance:     100,
			amount:      0,
			wantErr:     models.ErrInvalidAmount,
			wantBalance: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeWalletRepo()
			svc := NewWalletService(repo, zap.NewNop())

			userID := uuid.New()
			repo.balances[userID] = decimal.NewFromInt(tt.balance)

			err := svc.Debit(context.Background(), userID, decimal.NewFromInt(tt.amount))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.True(t, repo.balances[userID].Equal(decimal.NewFromInt(tt.wantBalance)),
				"balance must be %d, got %s", tt.wantBalance, repo.balances[userID])
		})
	}
}

func TestWalletService_CreditMissingWalletStartsFromZero(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := NewWalletService(repo, zap.NewNop())

	userID := uuid.New()

	err := svc.Credit(context.Background(), userID, decimal.NewFromInt(15))
	require.NoError(t, err)

	balance, err := svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(15)))
}
