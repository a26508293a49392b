package service

import (
	"context"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PageSize is the fixed page size of withdrawal listings
const PageSize = 50

// WithdrawalRepository is interface for interacting with withdrawal-related data
type WithdrawalRepository interface {
	// CreateRequest inserts new withdrawal request
	CreateRequest(ctx context.Context, req *models.WithdrawalRequest) (*models.WithdrawalRequest, error)
	// GetRequestByID returns withdrawal request by its store id
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	// ListRequests returns one page of withdrawal requests, newest first
	ListRequests(ctx context.Context, cursor models.Cursor, limit int) ([]models.WithdrawalRequest, error)
	// SearchRequests returns requests matching the search key exactly
	SearchRequests(ctx context.Context, byWithdrawalID bool, term string) ([]models.WithdrawalRequest, error)
	// ListWithdrawals returns one page of ledger entries, newest first
	ListWithdrawals(ctx context.Context, cursor models.Cursor, limit int) ([]models.Withdrawal, error)
	// SearchWithdrawals returns ledger entries matching the search key exactly
	SearchWithdrawals(ctx context.Context, byWithdrawalID bool, term string) ([]models.Withdrawal, error)
	// ConfirmRequest executes the pending -> confirmed transition
	ConfirmRequest(ctx context.Context, requestID uuid.UUID, confirmedAt time.Time) (*models.Withdrawal, error)
	// RevertWithdrawal executes the confirmed -> pending transition
	RevertWithdrawal(ctx context.Context, withdrawalID string, refund bool) error
}

// NotificationQueue enqueues outgoing mail for the dispatch worker
type NotificationQueue interface {
	Enqueue(ctx context.Context, n *models.Notification) error
}

// RequestPage is one page of withdrawal requests together with the
// cursor pointing at its last record
type RequestPage struct {
	Requests []models.WithdrawalRequest
	Cursor   models.Cursor
	Pages    int
}

// WithdrawalPage is one page of ledger entries together with the cursor
// pointing at its last record
type WithdrawalPage struct {
	Withdrawals []models.Withdrawal
	Cursor      models.Cursor
	Pages       int
}

// SearchResult holds exact-match hits from both collections. The result
// replaces any previously listed records, it is not merged or paginated.
type SearchResult struct {
	Requests    []models.WithdrawalRequest
	Withdrawals []models.Withdrawal
}

// WithdrawalService manages the withdrawal lifecycle: user-submitted
// requests, the admin confirm/revert transitions and the paginated
// views the back-office screens are built on.
type WithdrawalService struct {
	repo           WithdrawalRepository
	queue          NotificationQueue
	logger         *zap.Logger
	refundOnRevert bool
}

// NewWithdrawalService creates new WithdrawalService instance.
// refundOnRevert controls whether reverting a confirmed withdrawal
// credits the debited amount back to the wallet.
func NewWithdrawalService(repo WithdrawalRepository, queue NotificationQueue, logger *zap.Logger, refundOnRevert bool) *WithdrawalService {
	return &WithdrawalService{
		repo:           repo,
		queue:          queue,
		logger:         logger,
		refundOnRevert: refundOnRevert,
	}
}

// SubmitRequest validates and stores a user withdrawal request
func (ws *WithdrawalService) SubmitRequest(ctx context.Context, req *models.WithdrawalRequest) (*models.WithdrawalRequest, error) {
	if !req.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	if _, _, err := base58.CheckDecode(req.Address); err != nil {
		return nil, models.ErrInvalidAddress
	}

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.WithdrawalID == "" {
		req.WithdrawalID = uuid.NewString()
	}
	req.Status = models.WithdrawalStatusPending

	req, err := ws.repo.CreateRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	ws.notify(ctx, models.TemplateWithdrawalRequested, req.UserEmail, map[string]string{
		"withdrawal_id": req.WithdrawalID,
		"amount":        req.Amount.String(),
		"currency":      models.Currency,
	})

	return req, nil
}

// ListRequests returns the page of withdrawal requests after cursor.
// A zero cursor selects the first page.
func (ws *WithdrawalService) ListRequests(ctx context.Context, cursor models.Cursor) (*RequestPage, error) {
	reqs, err := ws.repo.ListRequests(ctx, cursor, PageSize)
	if err != nil {
		return nil, err
	}

	page := RequestPage{
		Requests: reqs,
		Cursor:   cursor,
		Pages:    pageCount(len(reqs)),
	}
	if n := len(reqs); n > 0 {
		page.Cursor = models.Cursor{Time: reqs[n-1].RequestedAt, ID: reqs[n-1].ID.String()}
	}

	return &page, nil
}

// ListWithdrawals returns the page of ledger entries after cursor
func (ws *WithdrawalService) ListWithdrawals(ctx context.Context, cursor models.Cursor) (*WithdrawalPage, error) {
	wds, err := ws.repo.ListWithdrawals(ctx, cursor, PageSize)
	if err != nil {
		return nil, err
	}

	page := WithdrawalPage{
		Withdrawals: wds,
		Cursor:      cursor,
		Pages:       pageCount(len(wds)),
	}
	if n := len(wds); n > 0 {
		page.Cursor = models.Cursor{Time: wds[n-1].ConfirmedAt, ID: wds[n-1].WithdrawalID}
	}

	return &page, nil
}

// Search performs an exact-match lookup by withdrawal id or user email
// against both collections in parallel. It returns
// models.ErrNoResults when neither collection has a match.
func (ws *WithdrawalService) Search(ctx context.Context, byWithdrawalID bool, term string) (*SearchResult, error) {
	var result SearchResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reqs, err := ws.repo.SearchRequests(gctx, byWithdrawalID, term)
		if err != nil {
			return err
		}
		result.Requests = reqs
		return nil
	})
	g.Go(func() error {
		wds, err := ws.repo.SearchWithdrawals(gctx, byWithdrawalID, term)
		if err != nil {
			return err
		}
		result.Withdrawals = wds
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(result.Requests) == 0 && len(result.Withdrawals) == 0 {
		return nil, models.ErrNoResults
	}

	return &result, nil
}

// Confirm transitions a pending request to confirmed: the ledger entry
// is written under the shared withdrawal id, the wallet is debited and
// the request status flips, all atomically. An insufficient balance
// rejects the whole transition.
func (ws *WithdrawalService) Confirm(ctx context.Context, requestID uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, err := ws.repo.ConfirmRequest(ctx, requestID, time.Now())
	if err != nil {
		ws.logger.Error("confirm withdrawal request",
			zap.String("request_id", requestID.String()),
			zap.Error(err))
		return nil, err
	}

	ws.notify(ctx, models.TemplateWithdrawalConfirmed, withdrawal.UserEmail, map[string]string{
		"withdrawal_id": withdrawal.WithdrawalID,
		"amount":        withdrawal.Amount.String(),
		"currency":      models.Currency,
	})

	return withdrawal, nil
}

// Revert transitions a confirmed withdrawal back to pending by its
// ledger id. A withdrawal id without a ledger entry is a no-op and
// returns models.ErrNoMatchingWithdrawal.
func (ws *WithdrawalService) Revert(ctx context.Context, withdrawalID string) error {
	if err := ws.repo.RevertWithdrawal(ctx, withdrawalID, ws.refundOnRevert); err != nil {
		if err != models.ErrNoMatchingWithdrawal {
			ws.logger.Error("revert withdrawal",
				zap.String("withdrawal_id", withdrawalID),
				zap.Error(err))
		}
		return err
	}
	return nil
}

// RevertRequest reverts starting from the originating request row. It
// resolves the shared withdrawal id and follows the same path as Revert.
func (ws *WithdrawalService) RevertRequest(ctx context.Context, requestID uuid.UUID) error {
	req, err := ws.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	return ws.Revert(ctx, req.WithdrawalID)
}

// notify enqueues outgoing mail, delivery failures are logged and never
// fail the transition that triggered them
func (ws *WithdrawalService) notify(ctx context.Context, template, recipient string, payload map[string]string) {
	n := models.Notification{
		Template:  template,
		Recipient: recipient,
		Payload:   payload,
	}
	if err := ws.queue.Enqueue(ctx, &n); err != nil {
		ws.logger.Error("enqueue notification",
			zap.String("template", template),
			zap.Error(err))
	}
}

func pageCount(snapshotSize int) int {
	return (snapshotSize + PageSize - 1) / PageSize
}
