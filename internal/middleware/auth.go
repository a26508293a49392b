package middleware

import (
	"context"
	"net/http"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/service"
)

type contextKey string

const authPayloadKey contextKey = "auth_payload"

// Auth gets the token from the cookie and passes its payload to the
// request context
func Auth(ts service.TokenService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				http.Error(w, "can not get cookie", http.StatusUnauthorized)
				return
			}

			payload, err := ts.VerifyToken(cookie.Value)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects requests whose auth payload does not carry the
// admin role. It must run after Auth.
func AdminOnly() func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := AuthPayload(r.Context())
			if !ok || payload.Role != models.RoleAdmin {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthPayload extracts authorization token payload from context
func AuthPayload(ctx context.Context) (*models.TokenPayload, bool) {
	payload, ok := ctx.Value(authPayloadKey).(*models.TokenPayload)
	return payload, ok
}

// WithAuthPayload returns a context carrying payload. It is used by
// handler tests to simulate an authenticated request.
func WithAuthPayload(ctx context.Context, payload *models.TokenPayload) context.Context {
	return context.WithValue(ctx, authPayloadKey, payload)
}
