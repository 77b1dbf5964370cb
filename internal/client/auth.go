package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jonathan/hiretree/internal/types"
)

// sessionCookie is the cookie name the server uses for sessions.
const sessionCookie = "session"

// Register creates an account and starts a session.
func (c *Client) Register(ctx context.Context, email, password string) (types.User, error) {
	var out types.User
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", types.CredentialsRequest{Email: email, Password: password}, &out)
	return out, err
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, email, password string) (types.User, error) {
	var out types.User
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", types.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var out types.User
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	var out struct {
		Success bool `json:"success"`
	}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, &out)
}

// SessionToken returns the session cookie the server set, falling back to
// the configured bearer token.
func (c *Client) SessionToken() string {
	if u, err := url.Parse(c.baseURL); err == nil && c.http.Jar != nil {
		for _, ck := range c.http.Jar.Cookies(u) {
			if ck.Name == sessionCookie && ck.Value != "" {
				return ck.Value
			}
		}
	}
	return c.token
}
