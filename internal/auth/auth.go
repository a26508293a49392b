package auth

import (
	"errors"
	"time"

	"github.com/coinport/backoffice/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

var errInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthToken issues and verifies signed JWTs carrying the user identity
// and role
type AuthToken struct {
	key []byte
}

// NewAuthToken creates new AuthToken with signing key
func NewAuthToken(key []byte) *AuthToken {
	return &AuthToken{key: key}
}

// CreateToken returns signed token for user
func (at *AuthToken) CreateToken(user *models.User) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	})

	return token.SignedString(at.key)
}

// VerifyToken parses and validates tokenString and returns its payload
func (at *AuthToken) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	var c claims

	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return at.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errInvalidToken
	}

	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, errInvalidToken
	}

	return &models.TokenPayload{
		UserID:   userID,
		Email:    c.Email,
		Username: c.Username,
		Role:     c.Role,
	}, nil
}
