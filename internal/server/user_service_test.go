package server

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/hiretree/internal/config"
	"github.com/jonathan/hiretree/internal/store"
	"github.com/jonathan/hiretree/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

func newTestUserService(users store.UserStore) *UserService {
	return NewUserService(users, &config.PasswordConfig{BcryptCost: bcrypt.MinCost})
}

type brokenUsers struct{ store.UserStore }

func (brokenUsers) GetUserByEmail(context.Context, string) (types.Account, error) {
	return types.Account{}, errors.New("connection reset")
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryUsers()
	svc := newTestUserService(users)

	user, err := svc.Register(ctx, &types.CredentialsRequest{Email: "Dev@HireTree.io ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "dev@hiretree.io", user.Email)

	acc, err := users.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", acc.PasswordHash)

	got, err := svc.Login(ctx, &types.LoginRequest{Email: "dev@hiretree.io", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = svc.Login(ctx, &types.LoginRequest{Email: "dev@hiretree.io", Password: "nope"})
	var invalid *ErrInvalidCredentials
	assert.ErrorAs(t, err, &invalid)

	got, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = svc.Get(ctx, uuid.New())
	var missing *ErrUserNotFound
	assert.ErrorAs(t, err, &missing)
}

func TestUserService_ConcurrentRegistration(t *testing.T) {
	svc := newTestUserService(store.NewMemoryUsers())

	results := make([]error, 8)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			_, results[i] = svc.Register(context.Background(), &types.CredentialsRequest{Email: "race@hiretree.io", Password: "password123"})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok, conflicts := 0, 0
	for _, err := range results {
		var exists *ErrEmailAlreadyExists
		switch {
		case err == nil:
			ok++
		case errors.As(err, &exists):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, len(results)-1, conflicts)
}

func TestUserService_StoreFailure(t *testing.T) {
	svc := newTestUserService(brokenUsers{store.NewMemoryUsers()})

	_, err := svc.Register(context.Background(), &types.CredentialsRequest{Email: "a@b.io", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, 500, HTTPStatus(err))

	_, err = svc.Login(context.Background(), &types.LoginRequest{Email: "a@b.io", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, 500, HTTPStatus(err))
}
