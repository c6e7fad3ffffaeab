package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/harborworks/gatehouse/internal/auth/cache"
)

const sessionKeyPrefix = "session:"

// SessionManager maps a user id to their currently valid refresh token
// under "session:<user_id>". Exactly one session exists per user; a new
// login replaces the old record.
type SessionManager struct {
	Cache cache.KV
	TTL   time.Duration // matches the refresh token lifetime
}

// CreateOrReplace stores refreshToken as the user's current session,
// overwriting any previous one.
func (m *SessionManager) CreateOrReplace(ctx context.Context, userID, refreshToken string) error {
	if err := m.Cache.Set(ctx, sessionKeyPrefix+userID, refreshToken, m.TTL); err != nil {
		return ErrUnavailable
	}
	return nil
}

// Get returns the user's current refresh token, or ErrInvalidToken when
// no session exists.
func (m *SessionManager) Get(ctx context.Context, userID string) (string, error) {
	val, err := m.Cache.Get(ctx, sessionKeyPrefix+userID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", ErrUnavailable
	}
	return val, nil
}

// IsCurrent reports whether refreshToken matches the stored session.
// The comparison is constant time.
func (m *SessionManager) IsCurrent(ctx context.Context, userID, refreshToken string) (bool, error) {
	current, err := m.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return false, nil
		}
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(current), []byte(refreshToken)) == 1, nil
}

// Delete removes the user's session. Missing sessions are not an error,
// so logout is idempotent.
func (m *SessionManager) Delete(ctx context.Context, userID string) error {
	if err := m.Cache.Delete(ctx, sessionKeyPrefix+userID); err != nil {
		return ErrUnavailable
	}
	return nil
}
