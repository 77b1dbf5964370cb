// Package main provides the hiretree command: the API server and a terminal
// client for the job board and resumes.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/hiretree/internal/client"
	"github.com/jonathan/hiretree/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "hiretree",
	Short:         "HireTree job application tracker",
	Long:          "HireTree tracks clipped job postings through an application pipeline and scores them against your active resume.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	serverURL  string
	authToken  string
	timeout    time.Duration
	logLevel   string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.hiretree.yaml)")
	flags.StringVar(&serverURL, "server", "", "API server URL")
	flags.StringVar(&authToken, "token", "", "Session token for authenticated calls")
	flags.DurationVar(&timeout, "timeout", 0, "Per-request timeout")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolvedConfigPath is --config, falling back to ~/.hiretree.yaml.
func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadClientConfig merges flags over the config file over the defaults.
func loadClientConfig(cmd *cobra.Command) (config.Config, error) {
	fileCfg, err := config.LoadOptional(resolvedConfigPath())
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		fileCfg.Server = serverURL
	}
	if flags.Changed("token") {
		fileCfg.Token = authToken
	}
	if flags.Changed("timeout") {
		fileCfg.Timeout = timeout
	}
	if flags.Changed("log-level") {
		fileCfg.LogLevel = logLevel
	}
	if err := fileCfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return fileCfg.MergeWithDefaults(config.Defaults()), nil
}

func newLogger(cmd *cobra.Command, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: config.ParseLogLevel(level)}))
}

// newClient builds an API client from the merged configuration.
func newClient(cmd *cobra.Command) (*client.Client, config.Config, *slog.Logger, error) {
	cfg, err := loadClientConfig(cmd)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	logger := newLogger(cmd, cfg.LogLevel)

	opts := []client.Option{client.WithLogger(logger)}
	if cfg.Timeout > 0 {
		opts = append(opts, client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	if cfg.Token != "" {
		opts = append(opts, client.WithToken(cfg.Token))
	}
	c, err := client.New(cfg.Server, opts...)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return c, cfg, logger, nil
}
