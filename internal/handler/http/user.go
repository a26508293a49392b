package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coinport/backoffice/internal/middleware"
	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
)

type UserService interface {
	// Register creates a new account with an empty wallet
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	// DeleteAccount removes the user and every record belonging to them
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type AuthService interface {
	// Login verifies credentials and returns a signed auth token
	Login(ctx context.Context, email, password string) (string, error)
}

// UserHandler represents HTTP handler for account-related requests
type UserHandler struct {
	users UserService
	auth  AuthService
}

// NewUserHandler creates new UserHandler instance
func NewUserHandler(users UserService, auth AuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// RegisterUser registers a new portal account
// 200 — account created
// 400 — malformed request
// 409 — email already registered
// 500 — internal error
func (uh *UserHandler) RegisterUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if req.Email == "" || req.Password == "" {
			http.Error(w, "email and password are required", http.StatusBadRequest)
			return
		}

		user, err := uh.users.Register(r.Context(), req.Email, req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrConflictData):
				http.Error(w, "email already registered", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(registerResponse{
			ID:       user.ID.String(),
			Email:    user.Email,
			Username: user.Username,
		}); err != nil {
			return
		}
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser verifies credentials and sets the auth cookie
// 200 — authenticated
// 400 — malformed request
// 401 — invalid login or password
// 500 — internal error
func (uh *UserHandler) LoginUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		token, err := uh.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidCredentials):
				http.Error(w, "invalid login or password", http.StatusUnauthorized)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			Path:     "/",
			HttpOnly: true,
		})

		w.WriteHeader(http.StatusOK)
	}
}

// DeleteAccount removes the authenticated user's account and data
// 200 — account removed
// 401 — not authenticated
// 500 — internal error
func (uh *UserHandler) DeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := uh.users.DeleteAccount(r.Context(), payload.UserID); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
