package repository

import (
	"context"
	"errors"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	insertUserQuery = `
						INSERT INTO users (id, email, username, password_hash, role)
						VALUES ($1, $2, $3, $4, $5)
						RETURNING id, email, username, password_hash, role, registered_at
`
	selectUserByEmailQuery = `
						SELECT id, email, username, password_hash, role, registered_at
						FROM users
						WHERE email = $1
`
	selectUserByIDQuery = `
						SELECT id, email, username, password_hash, role, registered_at
						FROM users
						WHERE id = $1
`
)

// deleteUserDataQueries removes every row belonging to a user. The order
// matters only for readability, the foreign keys cascade anyway.
var deleteUserDataQueries = []string{
	`DELETE FROM withdrawal_requests WHERE user_id = $1`,
	`DELETE FROM deposit_requests WHERE user_id = $1`,
	`DELETE FROM invoice_requests WHERE user_id = $1`,
	`DELETE FROM wallets WHERE user_id = $1`,
	`DELETE FROM users WHERE id = $1`,
}

// UserRepository implements access to user accounts
type UserRepository struct {
	db *postgres.DB
}

// NewUserRepository creates new UserRepository instance
func NewUserRepository(db *postgres.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts new user
func (ur *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := ur.db.QueryRow(ctx, insertUserQuery, user.ID, user.Email, user.Username, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.RegisteredAt)
	if err != nil {
		if errCode := ur.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return user, nil
}

// GetUserByEmail returns user by email
func (ur *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := models.User{}
	err := ur.db.QueryRow(ctx, selectUserByEmailQuery, email).
		Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}

// GetUserByID returns user by id
func (ur *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	err := ur.db.QueryRow(ctx, selectUserByIDQuery, id).
		Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}

// DeleteUserData removes the account and all rows that reference it in
// one batched transaction
func (ur *UserRepository) DeleteUserData(ctx context.Context, userID uuid.UUID) error {
	tx, err := ur.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, q := range deleteUserDataQueries {
		if _, err := tx.Exec(ctx, q, userID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
