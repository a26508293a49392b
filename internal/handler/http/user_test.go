package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserService struct {
	register func(ctx context.Context, email, username, password string) (*models.User, error)
	delete   func(ctx context.Context, userID uuid.UUID) error
}

func (s *stubUserService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	return s.register(ctx, email, username, password)
}

func (s *stubUserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return s.delete(ctx, userID)
}

type stubAuthService struct {
	login func(ctx context.Context, email, password string) (string, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return s.login(ctx, email, password)
}

func TestUserHandler_RegisterUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		register       func(ctx context.Context, email, username, password string) (*models.User, error)
		wantStatusCode int
	}{
		{
			name: "valid_request_return_200",
			body: `{"email":"a@x.com","username":"tester","password":"secret"}`,
			register: func(ctx context.Context, email, username, password string) (*models.User, error) {
				return &models.User{ID: uuid.New(), Email: email, Username: username}, nil
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_credentials_return_400",
			body:           `{"username":"tester"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "duplicate_email_return_409",
			body: `{"email":"a@x.com","password":"secret"}`,
			register: func(ctx context.Context, email, username, password string) (*models.User, error) {
				return nil, models.ErrConflictData
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "malformed_body_return_400",
			body:           `{`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "/api/user/register", strings.NewReader(tt.body))
			require.NoError(t, err)

			w := httptest.NewRecorder()
			h := NewUserHandler(&stubUserService{register: tt.register}, &stubAuthService{}).RegisterUser()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}

func TestUserHandler_LoginUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		login          func(ctx context.Context, email, password string) (string, error)
		wantStatusCode int
		wantCookie     bool
	}{
		{
			name: "valid_credentials_return_200_and_cookie",
			body: `{"email":"a@x.com","password":"secret"}`,
			login: func(ctx context.Context, email, password string) (string, error) {
				return "signed.token.value", nil
			},
			wantStatusCode: http.StatusOK,
			wantCookie:     true,
		},
		{
			name: "wrong_password_return_401",
			body: `{"email":"a@x.com","password":"wrong"}`,
			login: func(ctx context.Context, email, password string) (string, error) {
				return "", models.ErrInvalidCredentials
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "malformed_body_return_400",
			body:           `{`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(tt.body))
			require.NoError(t, err)

			w := httptest.NewRecorder()
			h := NewUserHandler(&stubUserService{}, &stubAuthService{login: tt.login}).LoginUser()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			var authCookie *http.Cookie
			for _, c := range res.Cookies() {
				if c.Name == "auth_token" {
					authCookie = c
				}
			}
			if tt.wantCookie {
				require.NotNil(t, authCookie)
				assert.Equal(t, "signed.token.value", authCookie.Value)
				assert.True(t, authCookie.HttpOnly)
			} else {
				assert.Nil(t, authCookie)
			}
		})
	}
}
