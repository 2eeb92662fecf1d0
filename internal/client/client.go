// Package client issues authenticated HTTP requests against the panel
// backend. It attaches the current access token to every request and
// recovers from a single expired-token failure per request by refreshing the
// pair and retrying transparently. Every other failure mode passes through
// to the caller unchanged.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"remnawave.dev/internal/ids"
	"remnawave.dev/internal/obs"
	"remnawave.dev/internal/session"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "rwctl"
	apiPrefix        = "/api"
)

// Client dispatches requests to the panel API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	session   *session.Session
	log       *zap.Logger
	limiter   *rate.Limiter
	userAgent string
	onLogout  func()

	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client) error

// WithTimeout overrides the fixed per-request upper bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("client: timeout must be positive")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient substitutes the underlying transport. The configured
// timeout is kept unless the replacement sets its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("client: http client is required")
		}
		if hc.Timeout == 0 {
			hc.Timeout = c.http.Timeout
		}
		c.http = hc
		return nil
	}
}

// WithLogger overrides the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) error {
		if log != nil {
			c.log = log
		}
		return nil
	}
}

// WithLogoutHook registers the navigation primitive invoked after a session
// teardown (refresh failed irrecoverably).
func WithLogoutHook(fn func()) Option {
	return func(c *Client) error {
		c.onLogout = fn
		return nil
	}
}

// WithRateLimit enables a client-side token bucket on outbound requests.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) error {
		if perSecond <= 0 || burst <= 0 {
			return errors.New("client: rate limit must be positive")
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
		return nil
	}
}

// New constructs a client for the panel at baseURL, reading and writing
// credentials through sess.
func New(baseURL string, sess *session.Session, opts ...Option) (*Client, error) {
	if sess == nil {
		return nil, errors.New("client: session is required")
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: defaultTimeout},
		session:   sess,
		log:       obs.Logger(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Session exposes the credential holder, for embedding programs.
func (c *Client) Session() *session.Session { return c.session }

// Do issues one API request and decodes the JSON response into out (which
// may be nil). A 401 triggers at most one token refresh followed by one
// retry carrying the rotated access token; the retry's outcome, whatever it
// is, goes back to the caller.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	var idemKey string
	if isMutating(method) {
		idemKey = ids.New()
	}

	creds := c.session.Current()
	err := c.attempt(ctx, method, path, query, payload, creds.AccessToken, idemKey, out)
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}
	if creds.RefreshToken == "" {
		return err
	}

	fresh, refreshErr := c.refreshCredentials(ctx, creds)
	if refreshErr != nil {
		c.log.Debug("token refresh failed",
			zap.String("method", method), zap.String("path", path), zap.Error(refreshErr))
		return &expiredError{cause: err}
	}
	return c.attempt(ctx, method, path, query, payload, fresh.AccessToken, idemKey, out)
}

// Get is shorthand for Do with no request body.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post is shorthand for a JSON POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, token, idemKey string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		obs.ObserveRequest(method, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	obs.ObserveRequest(method, resp.StatusCode, time.Since(start))
	c.log.Debug("panel request",
		zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiErrorFromResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// refreshCredentials funnels concurrent refresh attempts through one
// in-flight call: late arrivals wait for the running refresh instead of
// re-triggering it, and a pair rotated since the caller's failed attempt is
// reused as-is.
func (c *Client) refreshCredentials(ctx context.Context, stale session.Credentials) (session.Credentials, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		current := c.session.Current()
		if current.Valid() && current.AccessToken != stale.AccessToken {
			return current, nil
		}
		if current.RefreshToken == "" {
			return session.Credentials{}, ErrNotAuthenticated
		}
		fresh, err := c.redeemRefreshToken(ctx, current.RefreshToken)
		if err != nil {
			obs.ObserveRefresh("failure")
			c.teardown()
			return session.Credentials{}, err
		}
		if err := c.session.Set(fresh); err != nil {
			// The backend already rotated the pair; a half-persisted
			// session is worse than a forced re-login.
			obs.ObserveRefresh("failure")
			c.teardown()
			return session.Credentials{}, err
		}
		obs.ObserveRefresh("success")
		return fresh, nil
	})
	if err != nil {
		return session.Credentials{}, err
	}
	return v.(session.Credentials), nil
}

// redeemRefreshToken performs the refresh sub-call. It bypasses the 401
// interceptor and carries no bearer header; the refresh token travels in the
// body. The call shares the client's timeout, no exemption.
func (c *Client) redeemRefreshToken(ctx context.Context, refreshToken string) (session.Credentials, error) {
	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return session.Credentials{}, fmt.Errorf("encode refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/auth/refresh", nil), bytes.NewReader(payload))
	if err != nil {
		return session.Credentials{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return session.Credentials{}, fmt.Errorf("refresh: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return session.Credentials{}, apiErrorFromResponse(resp)
	}
	var pair tokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return session.Credentials{}, fmt.Errorf("decode refresh response: %w", err)
	}
	creds := session.Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if !creds.Valid() {
		return session.Credentials{}, errors.New("client: refresh response missing tokens")
	}
	return creds, nil
}

// teardown ends the session after an irrecoverable auth failure and fires
// the logout hook. Runs once per failed refresh; concurrent waiters share
// the outcome through the singleflight group.
func (c *Client) teardown() {
	if err := c.session.Clear(); err != nil {
		c.log.Warn("clear session", zap.Error(err))
	}
	if c.onLogout != nil {
		c.onLogout()
	}
}

// endpoint joins the base URL, the API prefix and a caller-built path.
// Callers escape individual segments themselves, so the escaped form goes
// into RawPath to keep String from encoding it a second time.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	raw := strings.TrimRight(u.EscapedPath(), "/") + apiPrefix + path
	u.RawPath = raw
	if clean, err := url.PathUnescape(raw); err == nil {
		u.Path = clean
	} else {
		u.Path = raw
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
