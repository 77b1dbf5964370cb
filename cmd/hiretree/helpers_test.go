package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiretree/internal/client"
	"github.com/jonathan/hiretree/internal/config"
	"github.com/jonathan/hiretree/internal/types"
)

// cliEnv is an in-memory API server plus a private CLI config file.
type cliEnv struct {
	url        string
	configPath string
	api        *client.Client
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "cli-test-secret-0123456789")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PARSER_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("HIRETREE_PASSWORD", "")

	cfg, err := config.LoadServerConfig()
	require.NoError(t, err)
	srv, cleanup, err := buildServer(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	api, err := client.New(ts.URL)
	require.NoError(t, err)

	return &cliEnv{
		url:        ts.URL,
		configPath: filepath.Join(t.TempDir(), config.DefaultFileName),
		api:        api,
	}
}

// run executes the CLI against the test server.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.configPath, "--server", e.url}, args...)...)
}

func (e *cliEnv) createResume(t *testing.T, name string, active bool, skills ...types.Skill) types.Resume {
	t.Helper()
	r, err := e.api.CreateResume(context.Background(), types.CreateResumeRequest{Name: name, Skills: skills, IsActive: active})
	require.NoError(t, err)
	return r
}

// execute runs rootCmd in-process. Flag values are package globals, so they
// are reset to their defaults first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
