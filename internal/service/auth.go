package service

import (
	"context"
	"errors"

	"github.com/coinport/backoffice/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// AuthService implements credential verification and token issuing
type AuthService struct {
	repo  UserRepository
	token TokenService
}

// NewAuthService creates new AuthService instance
func NewAuthService(repo UserRepository, token TokenService) *AuthService {
	return &AuthService{repo: repo, token: token}
}

// Login verifies credentials and returns a signed auth token
func (as *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := as.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return as.token.CreateToken(user)
}
