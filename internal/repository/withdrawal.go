package repository

import (
	"context"
	"errors"
	"time"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const pgErrUniqueViolationCode = "23505"

const (
	insertRequestQuery = `
						INSERT INTO withdrawal_requests (id, withdrawal_id, user_id, user_email, username, amount, address, status)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
						RETURNING id, withdrawal_id, user_id, user_email, username, amount, address, requested_at, status
`
	selectRequestByIDQuery = `
						SELECT id, withdrawal_id, user_id, user_email, username, amount, address, requested_at, status
						FROM withdrawal_requests
						WHERE id = $1
`
	selectRequestsFirstPageQuery = `
						SELECT id, withdrawal_id, user_id, user_email, username, amount, address, requested_at, status
						FROM withdrawal_requests
						ORDER BY requested_at DESC, id DESC
						LIMIT $1
`
	selectRequestsAfterQuery = `
						SELECT id, withdrawal_id, user_id, user_email, username, amount, address, requested_at, status
						FROM withdrawal_requests
						WHERE (requested_at, id) < ($1, $2::uuid)
						ORDER BY requested_at DESC, id DESC
						LIMIT $3
`
	selectRequestsByWithdrawalIDQuery = `
						SELECT id, withdrawal_id, user_id, user_email, username, amount, address, requested_at, status
						FROM withdrawal_requests
						WHERE withdrawal_id = $1
`
	selectRequestsByEmailQuery = `
						SELECT id, withdrawal_id, user_id, user_email, username, amount, address, requested_at, status
						FROM withdrawal_requests
						WHERE user_email = $1
						ORDER BY requested_at DESC, id DESC
`
	selectWithdrawalsFirstPageQuery = `
						SELECT withdrawal_id, user_email, username, amount, address, status, confirmed_at
						FROM withdrawals
						ORDER BY confirmed_at DESC, withdrawal_id DESC
						LIMIT $1
`
	selectWithdrawalsAfterQuery = `
						SELECT withdrawal_id, user_email, username, amount, address, status, confirmed_at
						FROM withdrawals
						WHERE (confirmed_at, withdrawal_id) < ($1, $2)
						ORDER BY confirmed_at DESC, withdrawal_id DESC
						LIMIT $3
`
	selectWithdrawalsByWithdrawalIDQuery = `
						SELECT withdrawal_id, user_email, username, amount, address, status, confirmed_at
						FROM withdrawals
						WHERE withdrawal_id = $1
`
	selectWithdrawalsByEmailQuery = `
						SELECT withdrawal_id, user_email, username, amount, address, status, confirmed_at
						FROM withdrawals
						WHERE user_email = $1
						ORDER BY confirmed_at DESC, withdrawal_id DESC
`
	lockRequestByIDQuery = `
						SELECT id, withdrawal_id, user_id, user_email, username, amount, address, requested_at, status
						FROM withdrawal_requests
						WHERE id = $1
						FOR UPDATE
`
	lockRequestByWithdrawalIDQuery = `
						SELECT id, user_id, amount
						FROM withdrawal_requests
						WHERE withdrawal_id = $1
						FOR UPDATE
`
	upsertWithdrawalQuery = `
						INSERT INTO withdrawals (withdrawal_id, user_email, username, amount, address, status, confirmed_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						ON CONFLICT (withdrawal_id) DO UPDATE
						SET user_email = EXCLUDED.user_email,
							username = EXCLUDED.username,
							amount = EXCLUDED.amount,
							address = EXCLUDED.address,
							status = EXCLUDED.status,
							confirmed_at = EXCLUDED.confirmed_at
`
	deleteWithdrawalQuery = `
						DELETE FROM withdrawals WHERE withdrawal_id = $1
`
	updateRequestStatusQuery = `
						UPDATE withdrawal_requests SET status = $1 WHERE id = $2
`
	debitWalletQuery = `
						UPDATE wallets SET balance = balance - $1
						WHERE user_id = $2 AND balance >= $1
`
	creditWalletQuery = `
						INSERT INTO wallets (user_id, balance)
						VALUES ($1, $2)
						ON CONFLICT (user_id) DO UPDATE
						SET balance = wallets.balance + EXCLUDED.balance
`
)

// WithdrawalRepository gives access to withdrawal requests and the
// withdrawals ledger, and runs the confirm/revert transitions that keep
// the two collections and the wallet balance in lockstep.
type WithdrawalRepository struct {
	db *postgres.DB
}

// NewWithdrawalRepository creates new WithdrawalRepository instance
func NewWithdrawalRepository(db *postgres.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// CreateRequest inserts new withdrawal request
func (wr *WithdrawalRepository) CreateRequest(ctx context.Context, req *models.WithdrawalRequest) (*models.WithdrawalRequest, error) {
	err := wr.db.QueryRow(ctx, insertRequestQuery,
		req.ID, req.WithdrawalID, req.UserID, req.UserEmail, req.Username, req.Amount, req.Address, req.Status,
	).Scan(&req.ID, &req.WithdrawalID, &req.UserID, &req.UserEmail, &req.Username, &req.Amount, &req.Address, &req.RequestedAt, &req.Status)
	if err != nil {
		if errCode := wr.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return req, nil
}

// GetRequestByID returns withdrawal request by its store id
func (wr *WithdrawalRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	req := models.WithdrawalRequest{}
	err := wr.db.QueryRow(ctx, selectRequestByIDQuery, id).Scan(
		&req.ID, &req.WithdrawalID, &req.UserID, &req.UserEmail, &req.Username, &req.Amount, &req.Address, &req.RequestedAt, &req.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &req, nil
}

// ListRequests returns one page of withdrawal requests, newest first.
// A zero cursor selects the first page.
func (wr *WithdrawalRepository) ListRequests(ctx context.Context, cursor models.Cursor, limit int) ([]models.WithdrawalRequest, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor.IsZero() {
		rows, err = wr.db.Query(ctx, selectRequestsFirstPageQuery, limit)
	} else {
		rows, err = wr.db.Query(ctx, selectRequestsAfterQuery, cursor.Time, cursor.ID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// SearchRequests returns requests matching the search key exactly
func (wr *WithdrawalRepository) SearchRequests(ctx context.Context, byWithdrawalID bool, term string) ([]models.WithdrawalRequest, error) {
	query := selectRequestsByEmailQuery
	if byWithdrawalID {
		query = selectRequestsByWithdrawalIDQuery
	}

	rows, err := wr.db.Query(ctx, query, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ListWithdrawals returns one page of ledger entries, newest first
func (wr *WithdrawalRepository) ListWithdrawals(ctx context.Context, cursor models.Cursor, limit int) ([]models.Withdrawal, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor.IsZero() {
		rows, err = wr.db.Query(ctx, selectWithdrawalsFirstPageQuery, limit)
	} else {
		rows, err = wr.db.Query(ctx, selectWithdrawalsAfterQuery, cursor.Time, cursor.ID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// SearchWithdrawals returns ledger entries matching the search key exactly
func (wr *WithdrawalRepository) SearchWithdrawals(ctx context.Context, byWithdrawalID bool, term string) ([]models.Withdrawal, error) {
	query := selectWithdrawalsByEmailQuery
	if byWithdrawalID {
		query = selectWithdrawalsByWithdrawalIDQuery
	}

	rows, err := wr.db.Query(ctx, query, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// ConfirmRequest executes the pending -> confirmed transition in a single
// transaction: writes the ledger entry under the shared withdrawal id
// (overwrite on repeat), debits the wallet, and flips the request status.
// The ledger write is only visible if the debit succeeded.
func (wr *WithdrawalRepository) ConfirmRequest(ctx context.Context, requestID uuid.UUID, confirmedAt time.Time) (*models.Withdrawal, error) {
	tx, err := wr.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	req := models.WithdrawalRequest{}
	err = tx.QueryRow(ctx, lockRequestByIDQuery, requestID).Scan(
		&req.ID, &req.WithdrawalID, &req.UserID, &req.UserEmail, &req.Username, &req.Amount, &req.Address, &req.RequestedAt, &req.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	withdrawal := models.Withdrawal{
		WithdrawalID: req.WithdrawalID,
		UserEmail:    req.UserEmail,
		Username:     req.Username,
		Amount:       req.Amount,
		Address:      req.Address,
		Status:       models.WithdrawalStatusConfirmed,
		ConfirmedAt:  confirmedAt,
	}

	if _, err := tx.Exec(ctx, upsertWithdrawalQuery,
		withdrawal.WithdrawalID, withdrawal.UserEmail, withdrawal.Username,
		withdrawal.Amount, withdrawal.Address, withdrawal.Status, withdrawal.ConfirmedAt); err != nil {
		return nil, err
	}

	// debit only the request that was not already confirmed, otherwise a
	// repeated confirm would charge the wallet twice
	if req.Status != models.WithdrawalStatusConfirmed {
		tag, err := tx.Exec(ctx, debitWalletQuery, req.Amount, req.UserID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, models.ErrInsufficientBalance
		}
	}

	if _, err := tx.Exec(ctx, updateRequestStatusQuery, models.WithdrawalStatusConfirmed, req.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &withdrawal, nil
}

// RevertWithdrawal executes the confirmed -> pending transition: deletes
// the ledger entry and returns the originating request to pending. When
// refund is set the debited amount is credited back to the wallet. If no
// ledger entry exists under withdrawalID nothing is written and
// models.ErrNoMatchingWithdrawal is returned.
func (wr *WithdrawalRepository) RevertWithdrawal(ctx context.Context, withdrawalID string, refund bool) error {
	tx, err := wr.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, deleteWithdrawalQuery, withdrawalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNoMatchingWithdrawal
	}

	var (
		requestID uuid.UUID
		userID    uuid.UUID
		amount    decimal.Decimal
	)
	err = tx.QueryRow(ctx, lockRequestByWithdrawalIDQuery, withdrawalID).Scan(&requestID, &userID, &amount)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// orphan ledger entry, nothing to flip back
	case err != nil:
		return err
	default:
		if _, err := tx.Exec(ctx, updateRequestStatusQuery, models.WithdrawalStatusPending, requestID); err != nil {
			return err
		}
		if refund {
			if _, err := tx.Exec(ctx, creditWalletQuery, userID, amount); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func scanRequests(rows pgx.Rows) ([]models.WithdrawalRequest, error) {
	var reqs []models.WithdrawalRequest

	for rows.Next() {
		req := models.WithdrawalRequest{}
		if err := rows.Scan(&req.ID, &req.WithdrawalID, &req.UserID, &req.UserEmail, &req.Username,
			&req.Amount, &req.Address, &req.RequestedAt, &req.Status); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

func scanWithdrawals(rows pgx.Rows) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal

	for rows.Next() {
		w := models.Withdrawal{}
		if err := rows.Scan(&w.WithdrawalID, &w.UserEmail, &w.Username, &w.Amount, &w.Address, &w.Status, &w.ConfirmedAt); err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ws, nil
}
