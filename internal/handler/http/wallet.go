package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coinport/backoffice/internal/middleware"
	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletService interface {
	// GetBalance returns current wallet balance of user
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// WalletHandler represents HTTP handler for wallet-related requests
type WalletHandler struct {
	svc WalletService
}

// NewWalletHandler creates new WalletHandler instance
func NewWalletHandler(svc WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

type balanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// GetUserBalance returns current wallet balance
// 200 — balance returned
// 401 — not authenticated
// 500 — internal error
func (wh *WalletHandler) GetUserBalance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		balance, err := wh.svc.GetBalance(r.Context(), payload.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(balanceResponse{
			Balance:  balance,
			Currency: models.Currency,
		}); err != nil {
			return
		}
	}
}
