package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/harborworks/gatehouse/internal/auth/domain"
	"github.com/harborworks/gatehouse/internal/auth/ratelimit"
	"github.com/harborworks/gatehouse/internal/auth/store"
	"github.com/harborworks/gatehouse/pkg/cryptox"
	"github.com/harborworks/gatehouse/pkg/idx"
	"github.com/harborworks/gatehouse/pkg/jwtx"
	"github.com/harborworks/gatehouse/pkg/slogx"
)

// DefaultRoleName is granted to every newly registered account.
const DefaultRoleName = "member"

// AuthService implements registration and the login, refresh and logout
// lifecycle. Every credential-bearing call passes the rate limiter
// before touching the credential store.
type AuthService struct {
	Store    store.Store
	Tokens   *TokenService
	Sessions *SessionManager
	Limiter  *ratelimit.Limiter
}

// Register creates a local account after validating the username, email
// and password rules. The new account gets the default role when one is
// configured in the store.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return domain.User{}, err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return domain.User{}, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, ErrUnavailable
	}

	s.assignDefaultRole(ctx, user.ID)

	return user, nil
}

// assignDefaultRole is best effort: a missing default role leaves the
// account with no roles rather than failing registration.
func (s *AuthService) assignDefaultRole(ctx context.Context, userID string) {
	log := slogx.FromContext(ctx)

	role, err := s.Store.Roles().GetRoleByName(ctx, DefaultRoleName)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("default role lookup failed", "err", err)
		}
		return
	}
	if err := s.Store.Roles().AssignRole(ctx, userID, role.ID); err != nil {
		log.Warn("default role assignment failed", "err", err)
	}
}

// Profile returns the account behind an authenticated subject together
// with its role names.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.User, []string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, nil, ErrInvalidToken
		}
		return domain.User{}, nil, ErrUnavailable
	}

	roles, err := s.Store.Roles().GetRolesForUser(ctx, userID)
	if err != nil {
		return domain.User{}, nil, ErrUnavailable
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return user, names, nil
}

// Login checks credentials and issues a token pair. clientKey groups
// attempts for rate limiting, typically the client IP. A rate-limited
// attempt returns the same error as wrong credentials so the two cases
// cannot be told apart.
func (s *AuthService) Login(ctx context.Context, identifier, password, clientKey string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	if !s.Limiter.IsAllowed(clientKey) {
		log.Info("login rejected by rate limiter", slog.String("key", clientKey))
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, ErrUnavailable
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// issueSession flattens the user's roles, issues a token pair and writes
// the session record. A failed session write fails the whole login:
// tokens must never outlive the record that tracks them.
func (s *AuthService) issueSession(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	roles, err := s.Store.Roles().GetRolesForUser(ctx, user.ID)
	if err != nil {
		return domain.TokenPair{}, ErrUnavailable
	}
	names, permissions := domain.FlattenRoles(roles)

	pair, err := s.Tokens.IssuePair(user.ID, names, permissions)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.Sessions.CreateOrReplace(ctx, user.ID, pair.RefreshToken); err != nil {
		return domain.TokenPair{}, err
	}

	return pair, nil
}

// Refresh rotates a refresh token and issues a new pair. Within one call
// the writes happen strictly in order: validate, blacklist old, issue
// new, update session. A crash mid-sequence leaves the user logged out,
// never with two live refresh tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientKey string) (domain.TokenPair, error) {
	if !s.Limiter.IsAllowed(clientKey) {
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	claims, err := s.Tokens.Validate(refreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}
	userID := claims.Subject

	newRefresh, err := s.Tokens.RotateRefresh(ctx, refreshToken, userID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	roles, err := s.Store.Roles().GetRolesForUser(ctx, userID)
	if err != nil {
		return domain.TokenPair{}, ErrUnavailable
	}
	names, permissions := domain.FlattenRoles(roles)

	access, err := s.Tokens.IssueAccess(userID, names, permissions)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.Sessions.CreateOrReplace(ctx, userID, newRefresh); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: newRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Tokens.accessTTL().Seconds()),
	}, nil
}

// Logout revokes the refresh token for its remaining lifetime and
// deletes the session. The revocation is check-and-set, so of two
// logouts with the same token only the first succeeds, concurrent or
// not; the loser gets ErrTokenRevoked.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.Tokens.Validate(refreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		return err
	}

	ttl := claims.RemainingLifetime(s.Tokens.now())
	if err := s.Tokens.Revoke(ctx, refreshToken, ttl); err != nil {
		return err
	}

	return s.Sessions.Delete(ctx, claims.Subject)
}
