package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// valid base58check string used as a destination address in tests
const testAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

// fakeWithdrawalRepo mirrors the transactional semantics of the real
// repository in memory: confirm writes the ledger entry, debits the
// wallet and flips the request status atomically, revert deletes the
// entry and flips the status back.
type fakeWithdrawalRepo struct {
	requests map[uuid.UUID]*models.WithdrawalRequest
	ledger   map[string]*models.Withdrawal
	balances map[uuid.UUID]decimal.Decimal
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{
		requests: make(map[uuid.UUID]*models.WithdrawalRequest),
		ledger:   make(map[string]*models.Withdrawal),
		balances: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (f *fakeWithdrawalRepo) CreateRequest(_ context.Context, req *models.WithdrawalRequest) (*models.WithdrawalRequest, error) {
	for _, existing := range f.requests {
		if existing.WithdrawalID == req.WithdrawalID {
			return nil, models.ErrConflictData
		}
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	cp := *req
	f.requests[req.ID] = &cp
	return req, nil
}

func (f *fakeWithdrawalRepo) GetRequestByID(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, models.ErrDataNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeWithdrawalRepo) ListRequests(_ context.Context, cursor models.Cursor, limit int) ([]models.WithdrawalRequest, error) {
	var all []models.WithdrawalRequest
	for _, req := range f.requests {
		all = append(all, *req)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].RequestedAt.Equal(all[j].RequestedAt) {
			return all[i].RequestedAt.After(all[j].RequestedAt)
		}
		return all[i].ID.String() > all[j].ID.String()
	})

	var page []models.WithdrawalRequest
	for _, req := range all {
		if !cursor.IsZero() {
			after := req.RequestedAt.Before(cursor.Time) ||
				(req.RequestedAt.Equal(cursor.Time) && req.ID.String() < cursor.ID)
			if !after {
				continue
			}
		}
		page = append(page, req)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakeWithdrawalRepo) SearchRequests(_ context.Context, byWithdrawalID bool, term string) ([]models.WithdrawalRequest, error) {
	var hits []models.WithdrawalRequest
	for _, req := range f.requests {
		if (byWithdrawalID && req.WithdrawalID == term) || (!byWithdrawalID && req.UserEmail == term) {
			hits = append(hits, *req)
		}
	}
	return hits, nil
}

func (f *fakeWithdrawalRepo) ListWithdrawals(_ context.Context, cursor models.Cursor, limit int) ([]models.Withdrawal, error) {
	var all []models.Withdrawal
	for _, w := range f.ledger {
		all = append(all, *w)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ConfirmedAt.Equal(all[j].ConfirmedAt) {
			return all[i].ConfirmedAt.After(all[j].ConfirmedAt)
		}
		return all[i].WithdrawalID > all[j].WithdrawalID
	})

	var page []models.Withdrawal
	for _, w := range all {
		if !cursor.IsZero() {
			after := w.ConfirmedAt.Before(cursor.Time) ||
				(w.ConfirmedAt.Equal(cursor.Time) && w.WithdrawalID < cursor.ID)
			if !after {
				continue
			}
		}
		page = append(page, w)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakeWithdrawalRepo) SearchWithdrawals(_ context.Context, byWithdrawalID bool, term string) ([]models.Withdrawal, error) {
	var hits []models.Withdrawal
	for _, w := range f.ledger {
		if (byWithdrawalID && w.WithdrawalID == term) || (!byWithdrawalID && w.UserEmail == term) {
			hits = append(hits, *w)
		}
	}
	return hits, nil
}

func (f *fakeWithdrawalRepo) ConfirmRequest(_ context.Context, requestID uuid.UUID, confirmedAt time.Time) (*models.Withdrawal, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return nil, models.ErrDataNotFound
	}

	if req.Status != models.WithdrawalStatusConfirmed {
		balance := f.balances[req.UserID]
		if balance.LessThan(req.Amount) {
			return nil, models.ErrInsufficientBalance
		}
		f.balances[req.UserID] = balance.Sub(req.Amount)
	}

	w := models.Withdrawal{
		WithdrawalID: req.WithdrawalID,
		UserEmail:    req.UserEmail,
		Username:     req.Username,
		Amount:       req.Amount,
		Address:      req.Address,
		Status:       models.WithdrawalStatusConfirmed,
		ConfirmedAt:  confirmedAt,
	}
	f.ledger[req.WithdrawalID] = &w
	req.Status = models.WithdrawalStatusConfirmed

	cp := w
	return &cp, nil
}

func (f *fakeWithdrawalRepo) RevertWithdrawal(_ context.Context, withdrawalID string, refund bool) error {
	_, ok := f.ledger[withdrawalID]
	if !ok {
		return models.ErrNoMatchingWithdrawal
	}
	delete(f.ledger, withdrawalID)

	for _, req := range f.requests {
		if req.WithdrawalID == withdrawalID {
			req.Status = models.WithdrawalStatusPending
			if refund {
				f.balances[req.UserID] = f.balances[req.UserID].Add(req.Amount)
			}
		}
	}
	return nil
}

type fakeQueue struct {
	enqueued []models.Notification
}

func (f *fakeQueue) Enqueue(_ context.Context, n *models.Notification) error {
	f.enqueued = append(f.enqueued, *n)
	return nil
}

func newTestService(t *testing.T, repo *fakeWithdrawalRepo, refund bool) (*WithdrawalService, *fakeQueue) {
	t.Helper()
	queue := &fakeQueue{}
	return NewWithdrawalService(repo, queue, zap.NewNop(), refund), queue
}

func seedRequest(t *testing.T, repo *fakeWithdrawalRepo, withdrawalID string, userID uuid.UUID, amount int64, email string) *models.WithdrawalRequest {
	t.Helper()
	req := &models.WithdrawalRequest{
		ID:           uuid.New(),
		WithdrawalID: withdrawalID,
		UserID:       userID,
		UserEmail:    email,
		Username:     "tester",
		Amount:       decimal.NewFromInt(amount),
		Address:      testAddress,
		RequestedAt:  time.Now(),
		Status:       models.WithdrawalStatusPending,
	}
	_, err := repo.CreateRequest(context.Background(), req)
	require.NoError(t, err)
	return req
}

func TestWithdrawalService_ConfirmAndRevert(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc, queue := newTestService(t, repo, false)

	userID := uuid.New()
	repo.balances[userID] = decimal.NewFromInt(100)
	req := seedRequest(t, repo, "W1", userID, 30, "a@x.com")

	// confirm: ledger entry appears, wallet debited, request flips
	w, err := svc.Confirm(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "W1", w.WithdrawalID)
	assert.Equal(t, models.WithdrawalStatusConfirmed, w.Status)

	assert.True(t, repo.balances[userID].Equal(decimal.NewFromInt(70)), "wallet must be debited to 70")
	require.Contains(t, repo.ledger, "W1")
	assert.Equal(t, models.WithdrawalStatusConfirmed, repo.requests[req.ID].Status)
	assert.Len(t, queue.enqueued, 1)
	assert.Equal(t, models.TemplateWithdrawalConfirmed, queue.enqueued[0].Template)

	// revert: ledger entry gone, request back to pending, no refund by default
	err = svc.Revert(context.Background(), "W1")
	require.NoError(t, err)

	assert.NotContains(t, repo.ledger, "W1")
	assert.Equal(t, models.WithdrawalStatusPending, repo.requests[req.ID].Status)
	assert.True(t, repo.balances[userID].Equal(decimal.NewFromInt(70)), "wallet stays at 70 without refund")
}

func TestWithdrawalService_RevertRefundsWhenConfigured(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc, _ := newTestService(t, repo, true)

	userID := uuid.New()
	repo.balances[userID] = decimal.NewFromInt(100)
	req := seedRequest(t, repo, "W2", userID, 40, "a@x.com")

	_, err := svc.Confirm(context.Background(), req.ID)
	require.NoError(t, err)
	require.True(t, repo.balances[userID].Equal(decimal.NewFromInt(60)))

	err = svc.Revert(context.Background(), "W2")
	require.NoError(t, err)
	assert.True(t, repo.balances[userID].Equal(decimal.NewFromInt(100)), "refund must restore the balance")
}

func TestWithdrawalService_ConfirmInsufficientBalance(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc, _ := newTestService(t, repo, false)

	userID := uuid.New()
	repo.balances[userID] = decimal.NewFromInt(10)
	req := seedRequest(t, repo, "W3", userID, 30, "a@x.com")

	_, err := svc.Confirm(context.Background(), req.ID)
	require.ErrorIs(t, err, models.ErrInsufficientBalance)

	// the whole transition is rejected: no ledger entry, request still
	// pending, balance untouched
	assert.NotContains(t, repo.ledger, "W3")
	assert.Equal(t, models.WithdrawalStatusPending, repo.requests[req.ID].Status)
	assert.True(t, repo.balances[userID].Equal(decimal.NewFromInt(10)))
}

func TestWithdrawalService_ConfirmTwiceOverwritesLedgerEntry(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc, _ := newTestService(t, repo, false)

	userID := uuid.New()
	repo.balances[userID] = decimal.NewFromInt(100)
	req := seedRequest(t, repo, "W4", userID, 30, "a@x.com")

	first, err := svc.Confirm(context.Background(), req.ID)
	require.NoError(t, err)

	second, err := svc.Confirm(context.Background(), req.ID)
	require.NoError(t, err)

	// exactly one ledger entry, carrying the latest confirmation stamp,
	// and the wallet is not debited twice
	assert.Len(t, repo.ledger, 1)
	assert.True(t, second.ConfirmedAt.After(first.ConfirmedAt) || second.ConfirmedAt.Equal(first.ConfirmedAt))
	assert.True(t, repo.balances[userID].Equal(decimal.NewFromInt(70)))
}

func TestWithdrawalService_RevertMissingWithdrawalIsNoOp(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc, _ := newTestService(t, repo, true)

	userID := uuid.New()
	repo.balances[userID] = decimal.NewFromInt(50)
	req := seedRequest(t, repo, "W5", userID, 20, "a@x.com")

	err := svc.Revert(context.Background(), "W5")
	require.ErrorIs(t, err, models.ErrNoMatchingWithdrawal)

	assert.Equal(t, models.WithdrawalStatusPending, repo.requests[req.ID].Status)
	assert.True(t, repo.balances[userID].Equal(decimal.NewFromInt(50)))
}

func TestWithdrawalService_RevertRequestEntryPoint(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc, _ := newTestService(t, repo, false)

	userID := uuid.New()
	repo.balances[userID] = decimal.NewFromInt(100)
	req := seedRequest(t, repo, "W6", userID, 25, "a@x.com")

	_, err := svc.Confirm(context.Background(), req.ID)
	require.NoError(t, err)

	// second entry point: revert driven from the request row
	err = svc.RevertRequest(context.Background(), req.ID)
	require.NoError(t, err)

	assert.NotContains(t, repo.ledger, "W6")
	assert.Equal(t, models.WithdrawalStatusPending, repo.requests[req.ID].Status)
}

func TestWithdrawalService_Search(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc, _ := newTestService(t, repo, false)

	userID := uuid.New()
	repo.balances[userID] = decimal.NewFromInt(100)
	req := seedRequest(t, repo, "W7", userID, 10, "a@x.com")
	_, err := svc.Confirm(context.Background(), req.ID)
	require.NoError(t, err)

	tests := []struct {
		name            string
		byWithdrawalID  bool
		term            string
		wantErr         error
		wantRequests    int
		wantWithdrawals int
	}{
		{
			name:            "match_by_withdrawal_id",
			byWithdrawalID:  true,
			term:            "W7",
			wantRequests:    1,
			wantWithdrawals: 1,
		},
		{
			name:            "match_by_email",
			byWithdrawalID:  false,
			term:            "a@x.com",
			wantRequests:    1,
			wantWithdrawals: 1,
		},
		{
			name:           "no_results_in_either_collection",
			byWithdrawalID: false,
			term:           "b@y.com",
			wantErr:        models.ErrNoResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Search(context.Background(), tt.byWithdrawalID, tt.term)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Requests, tt.wantRequests)
			assert.Len(t, result.Withdrawals, tt.wantWithdrawals)
		})
	}
}

func TestWithdrawalService_ListRequestsPagination(t *testing.T) {
	repo := newFakeWithdrawalRepo()
	svc, _ := newTestService(t, repo, false)

	userID := uuid.New()
	base := time.Now().Truncate(time.Second)

	const total = 120
	for i := 0; i < total; i++ {
		req := &models.WithdrawalRequest{
			ID:           uuid.New(),
			WithdrawalID: fmt.Sprintf("W-%03d", i),
			UserID:       userID,
			UserEmail:    "a@x.com",
			Username:     "tester",
			Amount:       decimal.NewFromInt(1),
			Address:      testAddress,
			RequestedAt:  base.Add(time.Duration(i) * time.Second),
			Status:       models.WithdrawalStatusPending,
		}
		_, err := repo.CreateRequest(context.Background(), req)
		require.NoError(t, err)
	}

	var (
		cursor models.Cursor
		seen   []models.WithdrawalRequest
	)
	for {
		page, err := svc.ListRequests(context.Background(), cursor)
		require.NoError(t, err)
		if len(page.Requests) == 0 {
			break
		}
		seen = append(seen, page.Requests...)
		cursor = page.Cursor
	}

	// the cursor walk yields the whole collection exactly once, newest
	// first, in pages of PageSize
	require.Len(t, seen, total)
	ids := make(map[string]struct{}, total)
	for i, req := range seen {
		ids[req.WithdrawalID] = struct{}{}
		if i > 0 {
			assert.False(t, seen[i-1].RequestedAt.Before(req.RequestedAt), "records must be in descending date order")
		}
	}
	assert.Len(t, ids, total, "no record may be delivered twice")
}

func TestWithdrawalService_SubmitRequest(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		address string
		wantErr error
	}{
		{
			name:    "valid_request",
			amount:  decimal.NewFromInt(5),
			address: testAddress,
		},
		{
			name:    "zero_amount",
			amount:  decimal.Zero,
			address: testAddress,
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:    "negative_amount",
			amount:  decimal.NewFromInt(-3),
			address: testAddress,
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:    "bad_address",
			amount:  decimal.NewFromInt(5),
			address: "not-an-address",
			wantErr: models.ErrInvalidAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeWithdrawalRepo()
			svc, queue := newTestService(t, repo, false)

			req := &models.WithdrawalRequest{
				UserID:    uuid.New(),
				UserEmail: "a@x.com",
				Username:  "tester",
				Amount:    tt.amount,
				Address:   tt.address,
			}

			created, err := svc.SubmitRequest(context.Background(), req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, queue.enqueued)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, created.WithdrawalID)
			assert.Equal(t, models.WithdrawalStatusPending, created.Status)
			require.Len(t, queue.enqueued, 1)
			assert.Equal(t, models.TemplateWithdrawalRequested, queue.enqueued[0].Template)
		})
	}
}
