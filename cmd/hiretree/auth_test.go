package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiretree/internal/client"
	"github.com/jonathan/hiretree/internal/config"
)

func TestAuthFlow(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")

	out, err := env.run(t, "register", "--email", "dev@hiretree.io", "--password", "supersecret")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered as dev@hiretree.io")
	assert.Contains(t, out, "Session saved to "+env.configPath)

	saved, err := config.LoadConfig(env.configPath)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Token)

	out, err = env.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "dev@hiretree.io")

	out, err = env.run(t, "logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", out)

	saved, err = config.LoadConfig(env.configPath)
	require.NoError(t, err)
	assert.Empty(t, saved.Token)

	_, err = env.run(t, "whoami")
	require.Error(t, err)

	t.Setenv("HIRETREE_PASSWORD", "supersecret")
	out, err = env.run(t, "login", "--email", "DEV@hiretree.io")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as dev@hiretree.io")

	out, err = env.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "dev@hiretree.io")
}

func TestAuth_Errors(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "register", "--email", "dev@hiretree.io", "--password", "supersecret")
	require.NoError(t, err)

	_, err = env.run(t, "login", "--email", "dev@hiretree.io", "--password", "wrong-password")
	assert.True(t, client.IsUnauthorized(err))

	_, err = env.run(t, "register", "--email", "dev@hiretree.io", "--password", "supersecret")
	assert.Equal(t, 409, client.StatusCode(err))

	_, err = env.run(t, "register", "--email", "new@hiretree.io")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HIRETREE_PASSWORD is required")

	_, err = env.run(t, "login", "--password", "supersecret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "email" not set`)
}
