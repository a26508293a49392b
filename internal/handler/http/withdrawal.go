package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coinport/backoffice/internal/middleware"
	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalService interface {
	// SubmitRequest validates and stores a user withdrawal request
	SubmitRequest(ctx context.Context, req *models.WithdrawalRequest) (*models.WithdrawalRequest, error)
	// ListRequests returns the page of withdrawal requests after cursor
	ListRequests(ctx context.Context, cursor models.Cursor) (*service.RequestPage, error)
	// ListWithdrawals returns the page of ledger entries after cursor
	ListWithdrawals(ctx context.Context, cursor models.Cursor) (*service.WithdrawalPage, error)
	// Search performs an exact-match lookup against both collections
	Search(ctx context.Context, byWithdrawalID bool, term string) (*service.SearchResult, error)
	// Confirm transitions a pending request to confirmed
	Confirm(ctx context.Context, requestID uuid.UUID) (*models.Withdrawal, error)
	// Revert transitions a confirmed withdrawal back to pending
	Revert(ctx context.Context, withdrawalID string) error
	// RevertRequest reverts starting from the originating request row
	RevertRequest(ctx context.Context, requestID uuid.UUID) error
}

// WithdrawalHandler represents HTTP handler for withdrawal-related
// requests, both the user-facing submission and the admin back-office
type WithdrawalHandler struct {
	svc WithdrawalService
}

// NewWithdrawalHandler creates new WithdrawalHandler instance
func NewWithdrawalHandler(svc WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

type submitWithdrawalRequest struct {
	WithdrawalID string          `json:"withdrawal_id"`
	Amount       decimal.Decimal `json:"amount"`
	Address      string          `json:"address"`
}

type withdrawalRequestResponse struct {
	ID           string          `json:"id"`
	WithdrawalID string          `json:"withdrawal_id"`
	UserEmail    string          `json:"user_email"`
	Username     string          `json:"username"`
	Amount       decimal.Decimal `json:"amount"`
	Address      string          `json:"address"`
	RequestedAt  string          `json:"requested_at"`
	Status       string          `json:"status"`
}

type withdrawalResponse struct {
	WithdrawalID string          `json:"withdrawal_id"`
	UserEmail    string          `json:"user_email"`
	Username     string          `json:"username"`
	Amount       decimal.Decimal `json:"amount"`
	Address      string          `json:"address"`
	Status       string          `json:"status"`
	ConfirmedAt  string          `json:"confirmed_at"`
}

type requestPageResponse struct {
	Requests   []withdrawalRequestResponse `json:"requests"`
	CursorTime string                      `json:"cursor_time,omitempty"`
	CursorID   string                      `json:"cursor_id,omitempty"`
	Pages      int                         `json:"pages"`
}

type withdrawalPageResponse struct {
	Withdrawals []withdrawalResponse `json:"withdrawals"`
	CursorTime  string               `json:"cursor_time,omitempty"`
	CursorID    string               `json:"cursor_id,omitempty"`
	Pages       int                  `json:"pages"`
}

// SubmitWithdrawal stores a withdrawal request for the authenticated user
// 200 — request accepted
// 400 — malformed request, bad amount or address
// 401 — not authenticated
// 409 — withdrawal id already used
// 500 — internal error
func (wh *WithdrawalHandler) SubmitWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitWithdrawalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		wreq := models.WithdrawalRequest{
			WithdrawalID: req.WithdrawalID,
			UserID:       payload.UserID,
			UserEmail:    payload.Email,
			Username:     payload.Username,
			Amount:       req.Amount,
			Address:      req.Address,
		}

		created, err := wh.svc.SubmitRequest(r.Context(), &wreq)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidAmount):
				http.Error(w, "amount must be positive", http.StatusBadRequest)
			case errors.Is(err, models.ErrInvalidAddress):
				http.Error(w, "invalid wallet address", http.StatusBadRequest)
			case errors.Is(err, models.ErrConflictData):
				http.Error(w, "withdrawal id already used", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toRequestResponse(*created)); err != nil {
			return
		}
	}
}

// ListWithdrawalRequests returns one admin page of withdrawal requests.
// Pagination continues from the after_time/after_id query parameters.
// 200 — page returned
// 400 — malformed cursor
// 500 — internal error
func (wh *WithdrawalHandler) ListWithdrawalRequests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cursor, err := cursorFromQuery(r)
		if err != nil {
			http.Error(w, "bad cursor", http.StatusBadRequest)
			return
		}

		page, err := wh.svc.ListRequests(r.Context(), cursor)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := requestPageResponse{Pages: page.Pages}
		for _, req := range page.Requests {
			resp.Requests = append(resp.Requests, toRequestResponse(req))
		}
		if !page.Cursor.IsZero() {
			resp.CursorTime = page.Cursor.Time.Format(time.RFC3339Nano)
			resp.CursorID = page.Cursor.ID
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

// ListWithdrawals returns one admin page of confirmed ledger entries
// 200 — page returned
// 400 — malformed cursor
// 500 — internal error
func (wh *WithdrawalHandler) ListWithdrawals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cursor, err := cursorFromQuery(r)
		if err != nil {
			http.Error(w, "bad cursor", http.StatusBadRequest)
			return
		}

		page, err := wh.svc.ListWithdrawals(r.Context(), cursor)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := withdrawalPageResponse{Pages: page.Pages}
		for _, wd := range page.Withdrawals {
			resp.Withdrawals = append(resp.Withdrawals, toWithdrawalResponse(wd))
		}
		if !page.Cursor.IsZero() {
			resp.CursorTime = page.Cursor.Time.Format(time.RFC3339Nano)
			resp.CursorID = page.Cursor.ID
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

type searchResponse struct {
	Requests    []withdrawalRequestResponse `json:"requests"`
	Withdrawals []withdrawalResponse        `json:"withdrawals"`
}

// SearchWithdrawals looks up both collections by withdrawal id or email
// 200 — matches returned
// 204 — no results in either collection
// 400 — missing search term
// 500 — internal error
func (wh *WithdrawalHandler) SearchWithdrawals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("term")
		if term == "" {
			http.Error(w, "search term is required", http.StatusBadRequest)
			return
		}
		byWithdrawalID := r.URL.Query().Get("by") == "withdrawal_id"

		result, err := wh.svc.Search(r.Context(), byWithdrawalID, term)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrNoResults):
				w.WriteHeader(http.StatusNoContent)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		resp := searchResponse{}
		for _, req := range result.Requests {
			resp.Requests = append(resp.Requests, toRequestResponse(req))
		}
		for _, wd := range result.Withdrawals {
			resp.Withdrawals = append(resp.Withdrawals, toWithdrawalResponse(wd))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

// ConfirmWithdrawal confirms a pending withdrawal request
// 200 — confirmed, ledger entry returned
// 400 — malformed request id
// 402 — insufficient wallet balance
// 404 — request not found
// 500 — internal error
func (wh *WithdrawalHandler) ConfirmWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "bad request id", http.StatusBadRequest)
			return
		}

		withdrawal, err := wh.svc.Confirm(r.Context(), requestID)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "request not found", http.StatusNotFound)
			case errors.Is(err, models.ErrInsufficientBalance):
				http.Error(w, "insufficient balance", http.StatusPaymentRequired)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toWithdrawalResponse(*withdrawal)); err != nil {
			return
		}
	}
}

// RevertWithdrawal reverts a confirmed withdrawal by its ledger id
// 200 — reverted
// 404 — no matching withdrawal to revert
// 500 — internal error
func (wh *WithdrawalHandler) RevertWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withdrawalID := chi.URLParam(r, "id")

		if err := wh.svc.Revert(r.Context(), withdrawalID); err != nil {
			switch {
			case errors.Is(err, models.ErrNoMatchingWithdrawal):
				http.Error(w, "no matching withdrawal found to revert", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// RevertWithdrawalRequest reverts starting from the request row
// 200 — reverted
// 400 — malformed request id
// 404 — request or matching withdrawal not found
// 500 — internal error
func (wh *WithdrawalHandler) RevertWithdrawalRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "bad request id", http.StatusBadRequest)
			return
		}

		if err := wh.svc.RevertRequest(r.Context(), requestID); err != nil {
			switch {
			case errors.Is(err, models.ErrDataNotFound), errors.Is(err, models.ErrNoMatchingWithdrawal):
				http.Error(w, "no matching withdrawal found to revert", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func cursorFromQuery(r *http.Request) (models.Cursor, error) {
	rawTime := r.URL.Query().Get("after_time")
	rawID := r.URL.Query().Get("after_id")
	if rawTime == "" && rawID == "" {
		return models.Cursor{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return models.Cursor{}, err
	}

	return models.Cursor{Time: t, ID: rawID}, nil
}

func toRequestResponse(req models.WithdrawalRequest) withdrawalRequestResponse {
	return withdrawalRequestResponse{
		ID:           req.ID.String(),
		WithdrawalID: req.WithdrawalID,
		UserEmail:    req.UserEmail,
		Username:     req.Username,
		Amount:       req.Amount,
		Address:      req.Address,
		RequestedAt:  req.RequestedAt.Format(time.RFC3339),
		Status:       req.Status,
	}
}

func toWithdrawalResponse(wd models.Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		WithdrawalID: wd.WithdrawalID,
		UserEmail:    wd.UserEmail,
		Username:     wd.Username,
		Amount:       wd.Amount,
		Address:      wd.Address,
		Status:       wd.Status,
		ConfirmedAt:  wd.ConfirmedAt.Format(time.RFC3339),
	}
}
