package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiretree/internal/client"
	"github.com/jonathan/hiretree/internal/config"
	"github.com/jonathan/hiretree/internal/types"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and save the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return startSession(cmd, (*client.Client).Register, "Registered")
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return startSession(cmd, (*client.Client).Login, "Signed in")
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the saved token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var (
	email    string
	password string
)

func init() {
	for _, cmd := range []*cobra.Command{registerCmd, loginCmd} {
		cmd.Flags().StringVar(&email, "email", "", "Account email")
		cmd.Flags().StringVar(&password, "password", "", "Account password (default $HIRETREE_PASSWORD)")
		_ = cmd.MarkFlagRequired("email")
	}
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}

type sessionFunc func(c *client.Client, ctx context.Context, email, password string) (types.User, error)

func startSession(cmd *cobra.Command, start sessionFunc, verb string) error {
	pw := password
	if pw == "" {
		pw = os.Getenv("HIRETREE_PASSWORD")
	}
	if pw == "" {
		return errors.New("--password or HIRETREE_PASSWORD is required")
	}

	c, _, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	user, err := start(c, cmd.Context(), email, pw)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s as %s\n", verb, user.Email)
	path, err := saveToken(c.SessionToken())
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(out, "Session saved to %s\n", path)
	}
	return nil
}

// saveToken stores token in the config file, keeping its other settings.
func saveToken(token string) (string, error) {
	path := resolvedConfigPath()
	if path == "" {
		return "", nil
	}
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return "", err
	}
	cfg.Token = token
	if err := cfg.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	c, cfg, logger, err := newClient(cmd)
	if err != nil {
		return err
	}
	if cfg.Token != "" {
		if err := c.Logout(cmd.Context()); err != nil {
			logger.Warn("server logout failed", "error", err)
		}
	}
	if _, err := saveToken(""); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	c, _, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	user, err := c.Me(cmd.Context())
	if client.IsUnauthorized(err) {
		return errors.New("not signed in; run 'hiretree login'")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Email, user.ID)
	return nil
}
