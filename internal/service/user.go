package service

import (
	"context"
	"errors"

	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is interface for interacting with user accounts
type UserRepository interface {
	// CreateUser inserts new user
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail returns user by email
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns user by id
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// DeleteUserData removes the account and all rows referencing it
	DeleteUserData(ctx context.Context, userID uuid.UUID) error
}

// UserService implements account registration and removal
type UserService struct {
	repo    UserRepository
	wallets WalletRepository
}

// NewUserService creates new UserService instance
func NewUserService(repo UserRepository, wallets WalletRepository) *UserService {
	return &UserService{repo: repo, wallets: wallets}
}

// Register creates a new account with a hashed password and an empty
// wallet
func (us *UserService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	created, err := us.repo.CreateUser(ctx, &user)
	if err != nil {
		return nil, err
	}

	if err := us.wallets.CreateWallet(ctx, created.ID, decimal.Zero); err != nil && !errors.Is(err, models.ErrConflictData) {
		return nil, err
	}

	return created, nil
}

// DeleteAccount removes the user and every record belonging to them
func (us *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return us.repo.DeleteUserData(ctx, userID)
}
