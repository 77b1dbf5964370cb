package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/hiretree/internal/store"
	"github.com/jonathan/hiretree/internal/types"
)

// CreateUser inserts an account. It implements store.UserStore.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string) (types.Account, error) {
	acc := types.Account{
		User: types.User{
			ID:    uuid.New(),
			Email: store.NormalizeEmail(email),
		},
		PasswordHash: passwordHash,
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3) RETURNING created_at`,
		acc.ID, acc.Email, passwordHash,
	).Scan(&acc.CreatedAt)
	if isUniqueViolation(err) {
		return types.Account{}, fmt.Errorf("%w: %s", store.ErrEmailTaken, acc.Email)
	}
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to create user: %w", err)
	}
	acc.CreatedAt = acc.CreatedAt.UTC()
	return acc, nil
}

// GetUserByEmail looks an account up by normalized email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (types.Account, error) {
	return db.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		store.NormalizeEmail(email))
}

// GetUser looks an account up by id.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (types.Account, error) {
	return db.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (types.Account, error) {
	var (
		acc     types.Account
		created time.Time
	)
	err := db.pool.QueryRow(ctx, query, arg).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Account{}, store.ErrUserNotFound
	}
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to get user: %w", err)
	}
	acc.CreatedAt = created.UTC()
	return acc, nil
}
