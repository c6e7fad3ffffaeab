// Package jwtx implements the signed-claims format shared by every service
// in the backend: RS256 JWTs carrying subject, roles, flattened permissions
// and a token-kind tag. The auth service holds the private key; consumers
// verify with the public key published through the JWKS endpoint.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds. An Access claim must never be accepted where a Refresh claim
// is required, and vice versa.
const (
	TokenTypeAccess  = "Access"
	TokenTypeRefresh = "Refresh"
)

// Default token TTLs. Overridable per-service through configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrMalformed = errors.New("jwtx: malformed token")
	ErrExpired   = errors.New("jwtx: token expired")
	ErrWrongKind = errors.New("jwtx: wrong token kind")
)

// Claims are the signed payload of a token. Additive changes only, to keep
// compatibility with services that already parse these.
type Claims struct {
	jwt.RegisteredClaims

	// Roles granted to the subject, in grant order.
	Roles []string `json:"roles"`

	// Permissions is the union of permission keys across all granted roles.
	Permissions []string `json:"permissions"`

	// TokenType is "Access" or "Refresh".
	TokenType string `json:"token_type"`
}

// NewAccessClaims builds Access-kind claims for a user. Timestamps are whole
// seconds since epoch.
func NewAccessClaims(subject string, roles, permissions []string, ttl time.Duration, now time.Time) Claims {
	now = now.UTC().Truncate(time.Second)
	if roles == nil {
		roles = []string{}
	}
	if permissions == nil {
		permissions = []string{}
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles:       roles,
		Permissions: permissions,
		TokenType:   TokenTypeAccess,
	}
}

// NewRefreshClaims builds Refresh-kind claims. A refresh token carries no
// authorization claims: it is redeemed, never used for access decisions.
func NewRefreshClaims(subject string, ttl time.Duration, now time.Time) Claims {
	now = now.UTC().Truncate(time.Second)
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles:       []string{},
		Permissions: []string{},
		TokenType:   TokenTypeRefresh,
	}
}

// RequireKind checks the token-kind tag.
func (c *Claims) RequireKind(kind string) error {
	if c.TokenType != kind {
		return ErrWrongKind
	}
	return nil
}

// RemainingLifetime returns how long the claim is still valid at the given
// instant, saturating at zero. Used to size blacklist TTLs so a revocation
// entry never outlives the token it shadows.
func (c *Claims) RemainingLifetime(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := c.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
