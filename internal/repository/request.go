package repository

import (
	"context"
	"errors"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	insertDepositQuery = `
						INSERT INTO deposit_requests (id, user_id, user_email, username, amount, method, status)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING id, user_id, user_email, username, amount, method, requested_at, status
`
	selectDepositsQuery = `
						SELECT id, user_id, user_email, username, amount, method, requested_at, status
						FROM deposit_requests
						ORDER BY requested_at DESC, id DESC
						LIMIT $1
`
	lockDepositByIDQuery = `
						SELECT id, user_id, user_email, username, amount, method, requested_at, status
						FROM deposit_requests
						WHERE id = $1
						FOR UPDATE
`
	updateDepositStatusQuery = `
						UPDATE deposit_requests SET status = $1 WHERE id = $2
`
	insertInvoiceQuery = `
						INSERT INTO invoice_requests (id, user_id, user_email, username, amount, description, status)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING id, user_id, user_email, username, amount, description, requested_at, status
`
	selectInvoicesQuery = `
						SELECT id, user_id, user_email, username, amount, description, requested_at, status
						FROM invoice_requests
						ORDER BY requested_at DESC, id DESC
						LIMIT $1
`
	updateInvoiceStatusQuery = `
						UPDATE invoice_requests SET status = $1 WHERE id = $2
						RETURNING id, user_id, user_email, username, amount, description, requested_at, status
`
)

// RequestRepository implements access to deposit and invoice requests
type RequestRepository struct {
	db *postgres.DB
}

// NewRequestRepository creates new RequestRepository instance
func NewRequestRepository(db *postgres.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// CreateDeposit inserts new deposit request
func (rr *RequestRepository) CreateDeposit(ctx context.Context, dep *models.DepositRequest) (*models.DepositRequest, error) {
	err := rr.db.QueryRow(ctx, insertDepositQuery,
		dep.ID, dep.UserID, dep.UserEmail, dep.Username, dep.Amount, dep.Method, dep.Status,
	).Scan(&dep.ID, &dep.UserID, &dep.UserEmail, &dep.Username, &dep.Amount, &dep.Method, &dep.RequestedAt, &dep.Status)
	if err != nil {
		return nil, err
	}
	return dep, nil
}

// ListDeposits returns newest deposit requests
func (rr *RequestRepository) ListDeposits(ctx context.Context, limit int) ([]models.DepositRequest, error) {
	rows, err := rr.db.Query(ctx, selectDepositsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []models.DepositRequest
	for rows.Next() {
		dep := models.DepositRequest{}
		if err := rows.Scan(&dep.ID, &dep.UserID, &dep.UserEmail, &dep.Username, &dep.Amount, &dep.Method, &dep.RequestedAt, &dep.Status); err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return deps, nil
}

// ConfirmDeposit flips the deposit to confirmed and credits the wallet
// in the same transaction. Confirming an already confirmed deposit is a
// no-op and does not credit twice.
func (rr *RequestRepository) ConfirmDeposit(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error) {
	tx, err := rr.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	dep := models.DepositRequest{}
	err = tx.QueryRow(ctx, lockDepositByIDQuery, id).
		Scan(&dep.ID, &dep.UserID, &dep.UserEmail, &dep.Username, &dep.Amount, &dep.Method, &dep.RequestedAt, &dep.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	if dep.Status == models.DepositStatusConfirmed {
		return &dep, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, updateDepositStatusQuery, models.DepositStatusConfirmed, dep.ID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, creditWalletQuery, dep.UserID, dep.Amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	dep.Status = models.DepositStatusConfirmed
	return &dep, nil
}

// CreateInvoice inserts new invoice request
func (rr *RequestRepository) CreateInvoice(ctx context.Context, inv *models.InvoiceRequest) (*models.InvoiceRequest, error) {
	err := rr.db.QueryRow(ctx, insertInvoiceQuery,
		inv.ID, inv.UserID, inv.UserEmail, inv.Username, inv.Amount, inv.Description, inv.Status,
	).Scan(&inv.ID, &inv.UserID, &inv.UserEmail, &inv.Username, &inv.Amount, &inv.Description, &inv.RequestedAt, &inv.Status)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns newest invoice requests
func (rr *RequestRepository) ListInvoices(ctx context.Context, limit int) ([]models.InvoiceRequest, error) {
	rows, err := rr.db.Query(ctx, selectInvoicesQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []models.InvoiceRequest
	for rows.Next() {
		inv := models.InvoiceRequest{}
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.UserEmail, &inv.Username, &inv.Amount, &inv.Description, &inv.RequestedAt, &inv.Status); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return invs, nil
}

// MarkInvoicePaid flips the invoice to paid and returns the updated row
func (rr *RequestRepository) MarkInvoicePaid(ctx context.Context, id uuid.UUID) (*models.InvoiceRequest, error) {
	inv := models.InvoiceRequest{}
	err := rr.db.QueryRow(ctx, updateInvoiceStatusQuery, models.InvoiceStatusPaid, id).
		Scan(&inv.ID, &inv.UserID, &inv.UserEmail, &inv.Username, &inv.Amount, &inv.Description, &inv.RequestedAt, &inv.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}
	return &inv, nil
}
