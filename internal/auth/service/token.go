package service

import (
	"context"
	"errors"
	"time"

	"github.com/harborworks/gatehouse/internal/auth/cache"
	"github.com/harborworks/gatehouse/internal/auth/domain"
	"github.com/harborworks/gatehouse/pkg/jwtx"
)

const blacklistKeyPrefix = "blacklist:"

// TokenService issues, validates, rotates and revokes the signed tokens
// every other service hands out. Revocation lives in the cache under
// "blacklist:<token>" with a TTL equal to the token's remaining life, so
// a blacklist entry never outlives the token it shadows.
type TokenService struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Cache      cache.KV
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssueAccess signs a short-lived access token carrying the user's roles
// and flattened permissions.
func (s *TokenService) IssueAccess(userID string, roles, permissions []string) (string, error) {
	claims := jwtx.NewAccessClaims(userID, roles, permissions, s.accessTTL(), s.now())
	return s.Signer.Sign(claims)
}

// IssueRefresh signs a long-lived refresh token. Refresh tokens carry no
// authorization data, only the subject.
func (s *TokenService) IssueRefresh(userID string) (string, error) {
	claims := jwtx.NewRefreshClaims(userID, s.refreshTTL(), s.now())
	return s.Signer.Sign(claims)
}

// IssuePair issues an access and refresh token together, as login and
// refresh both do.
func (s *TokenService) IssuePair(userID string, roles, permissions []string) (domain.TokenPair, error) {
	access, err := s.IssueAccess(userID, roles, permissions)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.IssueRefresh(userID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL().Seconds()),
	}, nil
}

// Validate verifies signature, expiry and kind. It does not consult the
// blacklist; callers on revocable paths follow up with IsBlacklisted,
// since that check is I/O-bound while this one is not.
func (s *TokenService) Validate(token, kind string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return jwtx.Claims{}, ErrTokenExpired
		}
		return jwtx.Claims{}, ErrInvalidToken
	}
	if err := claims.RequireKind(kind); err != nil {
		if kind == jwtx.TokenTypeRefresh {
			return jwtx.Claims{}, ErrNotRefreshKind
		}
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// IsBlacklisted reports whether the token has been revoked.
func (s *TokenService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	ok, err := s.Cache.Exists(ctx, blacklistKeyPrefix+token)
	if err != nil {
		return false, ErrUnavailable
	}
	return ok, nil
}

// IsRevoked satisfies the transport middleware's revocation check.
func (s *TokenService) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.IsBlacklisted(ctx, token)
}

// Blacklist revokes the token for ttl. A non-positive ttl still writes a
// short-lived entry so an in-flight check cannot miss the revocation.
func (s *TokenService) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.Cache.Set(ctx, blacklistKeyPrefix+token, "1", ttl); err != nil {
		return ErrUnavailable
	}
	return nil
}

// Revoke blacklists the token unless it already is. Check and write are
// one SetNX, so of two concurrent revocations of the same token exactly
// one succeeds and the other fails with ErrTokenRevoked.
func (s *TokenService) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	won, err := s.Cache.SetNX(ctx, blacklistKeyPrefix+token, "1", ttl)
	if err != nil {
		return ErrUnavailable
	}
	if !won {
		return ErrTokenRevoked
	}
	return nil
}

// RotateRefresh exchanges oldToken for a fresh refresh token, revoking
// the old one. At most one rotation can succeed per token value: Revoke
// is a SetNX, so a concurrent rotation of the same token loses the race
// and fails before any new token is issued.
func (s *TokenService) RotateRefresh(ctx context.Context, oldToken, userID string) (string, error) {
	claims, err := s.Validate(oldToken, jwtx.TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	if claims.Subject != userID {
		return "", ErrSubjectMismatch
	}

	if err := s.Revoke(ctx, oldToken, claims.RemainingLifetime(s.now())); err != nil {
		return "", err
	}

	return s.IssueRefresh(userID)
}
