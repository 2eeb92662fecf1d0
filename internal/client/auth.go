package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"remnawave.dev/internal/ids"
	"remnawave.dev/internal/rbac"
	"remnawave.dev/internal/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Account is the backend's view of the authenticated admin account.
type Account struct {
	ID       string
	Username string
	Role     string
	RoleID   *int64
	Grants   []rbac.Grant
}

type meResponse struct {
	UUID        string       `json:"uuid"`
	Username    string       `json:"username"`
	Role        string       `json:"role"`
	RoleID      *int64       `json:"role_id"`
	Permissions []rbac.Grant `json:"permissions"`
}

// Login exchanges credentials for a token pair and stores it in the session.
// A 401 here is a credential failure, not an expired session, so the refresh
// interceptor is bypassed.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("encode login request: %w", err)
	}
	var pair tokenPair
	if err := c.attempt(ctx, http.MethodPost, "/auth/login", nil, payload, "", ids.New(), &pair); err != nil {
		return err
	}
	creds := session.Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if !creds.Valid() {
		return fmt.Errorf("client: login response missing tokens")
	}
	return c.session.Set(creds)
}

// Refresh forces a token rotation outside the 401 path. Concurrent callers
// share one in-flight refresh; failure tears the session down the same way
// the interceptor does.
func (c *Client) Refresh(ctx context.Context) error {
	creds := c.session.Current()
	if !creds.Valid() {
		return ErrNotAuthenticated
	}
	_, err := c.refreshCredentials(ctx, creds)
	return err
}

// Logout invalidates the session server-side on a best-effort basis and
// always clears the local credential record.
func (c *Client) Logout(ctx context.Context) error {
	creds := c.session.Current()
	if creds.Valid() {
		if err := c.attempt(ctx, http.MethodPost, "/auth/logout", nil, nil, creds.AccessToken, ids.New(), nil); err != nil {
			c.log.Debug("server-side logout failed", zap.Error(err))
		}
	}
	return c.session.Clear()
}

// Me fetches the authenticated account with its role and grants.
func (c *Client) Me(ctx context.Context) (Account, error) {
	var resp meResponse
	if err := c.Get(ctx, "/auth/me", nil, &resp); err != nil {
		return Account{}, err
	}
	return Account{
		ID:       resp.UUID,
		Username: resp.Username,
		Role:     resp.Role,
		RoleID:   resp.RoleID,
		Grants:   resp.Permissions,
	}, nil
}

// Identity satisfies rbac.Fetcher.
func (c *Client) Identity(ctx context.Context) (rbac.Identity, error) {
	account, err := c.Me(ctx)
	if err != nil {
		return rbac.Identity{}, err
	}
	return rbac.Identity{
		Role:   account.Role,
		RoleID: account.RoleID,
		Grants: account.Grants,
	}, nil
}
