package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the access token could not be decoded.
var ErrInvalidToken = errors.New("session: invalid token")

// Claims carries the access-token fields the client surfaces for display
// and diagnostics. The signature is not verified here; trust decisions stay
// with the backend and the only authorization signal this client acts on is
// an HTTP 401.
type Claims struct {
	Subject   string    `json:"sub"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

type accessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// DecodeClaims extracts claims from the access token without verifying it.
func DecodeClaims(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidToken
	}
	var parsed accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &parsed); err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims := Claims{
		Subject:  parsed.Subject,
		Username: parsed.Username,
		Role:     parsed.Role,
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}

// Expired reports whether the token expiry has passed. A zero expiry is
// treated as not expired; the backend remains the authority.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
