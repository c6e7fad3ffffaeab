package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/harborworks/gatehouse/internal/auth/cache"
	"github.com/harborworks/gatehouse/internal/auth/domain"
	"github.com/harborworks/gatehouse/internal/auth/store"
	"github.com/harborworks/gatehouse/pkg/cryptox"
	"github.com/harborworks/gatehouse/pkg/idx"
	"github.com/harborworks/gatehouse/pkg/slogx"
)

const (
	handshakeKeyPrefix = "oauth_session:"

	// HandshakeTTL bounds how long a login redirect may stay in flight.
	HandshakeTTL = 5 * time.Minute
)

// Provider is one upstream identity provider in the authorization-code
// with PKCE flow.
type Provider interface {
	// Name is the stable provider slug, e.g. "google".
	Name() string

	// AuthorizeURL builds the URL the user is redirected to, carrying
	// the state parameter and the S256 code challenge.
	AuthorizeURL(state, codeChallenge string) string

	// Exchange trades the authorization code and PKCE verifier for the
	// user's profile.
	Exchange(ctx context.Context, code, codeVerifier string) (domain.Profile, error)
}

// FederatedService runs the PKCE handshake against upstream providers
// and terminates in the same issue-tokens-then-write-session sequence as
// password login. Handshake state lives in the cache under
// "oauth_session:<state>" and is consumed exactly once.
type FederatedService struct {
	Store     store.Store
	Cache     cache.KV
	Tokens    *TokenService
	Sessions  *SessionManager
	Providers map[string]Provider

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func (s *FederatedService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Begin starts a handshake with the named provider. It stores the CSRF
// token and PKCE verifier keyed by the state parameter and returns the
// provider's authorization URL.
func (s *FederatedService) Begin(ctx context.Context, providerName string) (string, error) {
	provider, ok := s.Providers[providerName]
	if !ok {
		return "", ErrUnknownProvider
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", err
	}
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	record := domain.HandshakeState{
		CSRFToken:    state,
		PKCEVerifier: verifier,
		Provider:     providerName,
		CreatedAt:    s.now().UTC(),
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	if err := s.Cache.Set(ctx, handshakeKeyPrefix+state, string(encoded), HandshakeTTL); err != nil {
		return "", ErrUnavailable
	}

	return provider.AuthorizeURL(state, cryptox.CodeChallengeS256(verifier)), nil
}

// Complete finishes the handshake after the provider redirects back. The
// state record is read with a GetDel, so a second call with the same
// state fails with ErrHandshakeNotFound whatever happened to the first.
func (s *FederatedService) Complete(ctx context.Context, state, code string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	raw, err := s.Cache.GetDel(ctx, handshakeKeyPrefix+state)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return domain.TokenPair{}, ErrHandshakeNotFound
		}
		return domain.TokenPair{}, ErrUnavailable
	}

	var record domain.HandshakeState
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return domain.TokenPair{}, ErrHandshakeNotFound
	}
	if subtle.ConstantTimeCompare([]byte(record.CSRFToken), []byte(state)) != 1 {
		return domain.TokenPair{}, ErrHandshakeNotFound
	}

	provider, ok := s.Providers[record.Provider]
	if !ok {
		return domain.TokenPair{}, ErrUnknownProvider
	}

	profile, err := provider.Exchange(ctx, code, record.PKCEVerifier)
	if err != nil {
		log.Warn("provider code exchange failed", "provider", record.Provider, "err", err)
		return domain.TokenPair{}, ErrUnavailable
	}

	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		return domain.TokenPair{}, err
	}

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

// findOrCreateUser links the provider profile to a local account by
// email, creating one on first login. The provider must attest the
// email, otherwise anyone controlling an unverified upstream address
// could claim the matching local account. Federated accounts get a
// random password so the password path stays unusable for them.
func (s *FederatedService) findOrCreateUser(ctx context.Context, profile domain.Profile) (domain.User, error) {
	if !profile.Verified {
		return domain.User{}, ErrEmailUnverified
	}
	if err := domain.ValidateEmail(profile.Email); err != nil {
		return domain.User{}, err
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUnavailable
	}

	password, err := cryptox.GeneratePassword()
	if err != nil {
		return domain.User{}, err
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user = domain.User{
		ID:           idx.New().String(),
		Username:     federatedUsername(profile),
		Email:        profile.Email,
		PasswordHash: hash,
		Provider:     profile.Provider,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUnavailable
		}
		// Either a concurrent first login for this email won the race,
		// or the derived username belongs to another account.
		if existing, lookupErr := s.Store.Users().GetUserByEmail(ctx, profile.Email); lookupErr == nil {
			return existing, nil
		}
		user.Username = uniquifyUsername(user.Username)
		if err := s.Store.Users().CreateUser(ctx, user); err != nil {
			return domain.User{}, ErrUnavailable
		}
	}
	return user, nil
}

// federatedUsername derives a valid username from the email local part.
// Characters outside the username alphabet become underscores; a local
// part too short to qualify is prefixed with the provider name. The
// result stays within the 32 character username limit.
func federatedUsername(profile domain.Profile) string {
	local, _, _ := strings.Cut(profile.Email, "@")
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, local)
	if len(name) < 3 {
		name = profile.Provider + "_" + name
	}
	if len(name) > 32 {
		name = name[:32]
	}
	return name
}

// uniquifyUsername appends random ULID tail characters so a second
// account whose email local part collides with an existing username can
// still be created.
func uniquifyUsername(name string) string {
	id := idx.New().String()
	suffix := "_" + id[len(id)-8:]
	if len(name)+len(suffix) > 32 {
		name = name[:32-len(suffix)]
	}
	return name + suffix
}
