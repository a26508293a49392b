package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coinport/backoffice/internal/middleware"
	"github.com/coinport/backoffice/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestService interface {
	// SubmitDeposit stores a user deposit request
	SubmitDeposit(ctx context.Context, dep *models.DepositRequest) (*models.DepositRequest, error)
	// ListDeposits returns newest deposit requests
	ListDeposits(ctx context.Context) ([]models.DepositRequest, error)
	// ConfirmDeposit confirms a pending deposit and credits the wallet
	ConfirmDeposit(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error)
	// SubmitInvoice stores a user invoice request
	SubmitInvoice(ctx context.Context, inv *models.InvoiceRequest) (*models.InvoiceRequest, error)
	// ListInvoices returns newest invoice requests
	ListInvoices(ctx context.Context) ([]models.InvoiceRequest, error)
	// MarkInvoicePaid flips a pending invoice to paid
	MarkInvoicePaid(ctx context.Context, id uuid.UUID) (*models.InvoiceRequest, error)
}

// RequestHandler represents HTTP handler for deposit and invoice
// request workflows
type RequestHandler struct {
	svc RequestService
}

// NewRequestHandler creates new RequestHandler instance
func NewRequestHandler(svc RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

type submitDepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

type depositResponse struct {
	ID          string          `json:"id"`
	UserEmail   string          `json:"user_email"`
	Username    string          `json:"username"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	RequestedAt string          `json:"requested_at"`
	Status      string          `json:"status"`
}

// SubmitDeposit stores a deposit request for the authenticated user
// 200 — request accepted
// 400 — malformed request or bad amount
// 401 — not authenticated
// 500 — internal error
func (rh *RequestHandler) SubmitDeposit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitDepositRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		dep := models.DepositRequest{
			UserID:    payload.UserID,
			UserEmail: payload.Email,
			Username:  payload.Username,
			Amount:    req.Amount,
			Method:    req.Method,
		}

		created, err := rh.svc.SubmitDeposit(r.Context(), &dep)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidAmount):
				http.Error(w, "amount must be positive", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toDepositResponse(*created)); err != nil {
			return
		}
	}
}

// ListDeposits returns newest deposit requests for the admin screen
// 200 — list returned
// 500 — internal error
func (rh *RequestHandler) ListDeposits() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps, err := rh.svc.ListDeposits(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		var resp []depositResponse
		for _, dep := range deps {
			resp = append(resp, toDepositResponse(dep))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

// ConfirmDeposit confirms a pending deposit and credits the wallet
// 200 — confirmed
// 400 — malformed deposit id
// 404 — deposit not found
// 500 — internal error
func (rh *RequestHandler) ConfirmDeposit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "bad deposit id", http.StatusBadRequest)
			return
		}

		dep, err := rh.svc.ConfirmDeposit(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "deposit not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toDepositResponse(*dep)); err != nil {
			return
		}
	}
}

type submitInvoiceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type invoiceResponse struct {
	ID          string          `json:"id"`
	UserEmail   string          `json:"user_email"`
	Username    string          `json:"username"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	RequestedAt string          `json:"requested_at"`
	Status      string          `json:"status"`
}

// SubmitInvoice stores an invoice request for the authenticated user
// 200 — request accepted
// 400 — malformed request or bad amount
// 401 — not authenticated
// 500 — internal error
func (rh *RequestHandler) SubmitInvoice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		inv := models.InvoiceRequest{
			UserID:      payload.UserID,
			UserEmail:   payload.Email,
			Username:    payload.Username,
			Amount:      req.Amount,
			Description: req.Description,
		}

		created, err := rh.svc.SubmitInvoice(r.Context(), &inv)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidAmount):
				http.Error(w, "amount must be positive", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toInvoiceResponse(*created)); err != nil {
			return
		}
	}
}

// ListInvoices returns newest invoice requests for the admin screen
// 200 — list returned
// 500 — internal error
func (rh *RequestHandler) ListInvoices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invs, err := rh.svc.ListInvoices(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		var resp []invoiceResponse
		for _, inv := range invs {
			resp = append(resp, toInvoiceResponse(inv))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

// MarkInvoicePaid flips a pending invoice to paid
// 200 — invoice marked paid
// 400 — malformed invoice id
// 404 — invoice not found
// 500 — internal error
func (rh *RequestHandler) MarkInvoicePaid() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "bad invoice id", http.StatusBadRequest)
			return
		}

		inv, err := rh.svc.MarkInvoicePaid(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "invoice not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toInvoiceResponse(*inv)); err != nil {
			return
		}
	}
}

func toDepositResponse(dep models.DepositRequest) depositResponse {
	return depositResponse{
		ID:          dep.ID.String(),
		UserEmail:   dep.UserEmail,
		Username:    dep.Username,
		Amount:      dep.Amount,
		Method:      dep.Method,
		RequestedAt: dep.RequestedAt.Format(time.RFC3339),
		Status:      dep.Status,
	}
}

func toInvoiceResponse(inv models.InvoiceRequest) invoiceResponse {
	return invoiceResponse{
		ID:          inv.ID.String(),
		UserEmail:   inv.UserEmail,
		Username:    inv.Username,
		Amount:      inv.Amount,
		Description: inv.Description,
		RequestedAt: inv.RequestedAt.Format(time.RFC3339),
		Status:      inv.Status,
	}
}
