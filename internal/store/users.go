package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hiretree/internal/types"
)

// UserStore persists accounts. Emails are compared after NormalizeEmail.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (types.Account, error)
	GetUserByEmail(ctx context.Context, email string) (types.Account, error)
	GetUser(ctx context.Context, id uuid.UUID) (types.Account, error)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryUsers keeps accounts in memory for servers without a database.
type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]types.Account
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewMemoryUsers creates an empty account store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[uuid.UUID]types.Account),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// CreateUser adds an account or fails with ErrEmailTaken.
func (m *MemoryUsers) CreateUser(_ context.Context, email, passwordHash string) (types.Account, error) {
	email = NormalizeEmail(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[email]; ok {
		return types.Account{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}
	acc := types.Account{
		User:         types.User{ID: uuid.New(), Email: email, CreatedAt: m.now().UTC()},
		PasswordHash: passwordHash,
	}
	m.byID[acc.ID] = acc
	m.byEmail[email] = acc.ID
	return acc, nil
}

// GetUserByEmail looks an account up by address.
func (m *MemoryUsers) GetUserByEmail(_ context.Context, email string) (types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return types.Account{}, ErrUserNotFound
	}
	return m.byID[id], nil
}

// GetUser looks an account up by id.
func (m *MemoryUsers) GetUser(_ context.Context, id uuid.UUID) (types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.byID[id]
	if !ok {
		return types.Account{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return acc, nil
}
