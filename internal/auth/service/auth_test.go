package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborworks/gatehouse/internal/auth/domain"
	"github.com/harborworks/gatehouse/internal/auth/service"
	"github.com/harborworks/gatehouse/pkg/jwtx"
)

func TestRegisterValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Auth.Register(ctx, "ab", "alice@example.com", "Abcdef1!")
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	_, err = env.Auth.Register(ctx, "alice", "not-an-email", "Abcdef1!")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = env.Auth.Register(ctx, "alice", "alice@example.com", "weak")
	assert.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcdef1!")

	_, err := env.Auth.Register(ctx, "alice", "other@example.com", "Abcdef1!")
	assert.ErrorIs(t, err, service.ErrUserExists)

	_, err = env.Auth.Register(ctx, "alice2", "alice@example.com", "Abcdef1!")
	assert.ErrorIs(t, err, service.ErrUserExists)
}

func TestLoginWithUsernameOrEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcdef1!")

	byUsername, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, byUsername.AccessToken)

	byEmail, err := env.Auth.Login(ctx, "alice@example.com", "Abcdef1!", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, byEmail.RefreshToken)
}

func TestLoginWrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcdef1!")

	_, errWrong := env.Auth.Login(ctx, "alice", "WrongPass1!", "10.0.0.1")
	_, errUnknown := env.Auth.Login(ctx, "nobody", "Abcdef1!", "10.0.0.1")

	assert.ErrorIs(t, errWrong, service.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, service.ErrInvalidCredentials)
}

func TestLoginRateLimitedLooksLikeBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcdef1!")

	// Use up the allowed attempts, counting every attempt including the
	// ones with the right password.
	for i := 0; i < 5; i++ {
		_, _ = env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.9")
	}

	_, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.9")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials,
		"rate limited response is indistinguishable from wrong credentials")

	// A different client key is unaffected.
	_, err = env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.10")
	assert.NoError(t, err)
}

func TestLoginWritesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "alice", "alice@example.com", "Abcdef1!")

	pair, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.1")
	require.NoError(t, err)

	current, err := env.Sessions.IsCurrent(ctx, user.ID, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, current)
}

func TestLoginFailsWhenSessionWriteFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcdef1!")

	env.Redis.SetError("redis is down")
	defer env.Redis.SetError("")

	_, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.1")
	assert.ErrorIs(t, err, service.ErrUnavailable)
}

func TestLifecycleEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "alice", "alice@example.com", "Abcdef1!")
	require.NotEmpty(t, user.ID)

	pair, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.1")
	require.NoError(t, err)

	claims, err := env.Tokens.Validate(pair.AccessToken, jwtx.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)

	refreshed, err := env.Auth.Refresh(ctx, pair.RefreshToken, "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	revoked, err := env.Tokens.IsBlacklisted(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, revoked, "rotated-away refresh token is blacklisted")

	current, err := env.Sessions.IsCurrent(ctx, user.ID, refreshed.RefreshToken)
	require.NoError(t, err)
	assert.True(t, current)

	require.NoError(t, env.Auth.Logout(ctx, refreshed.RefreshToken))

	_, err = env.Sessions.Get(ctx, user.ID)
	assert.ErrorIs(t, err, service.ErrInvalidToken, "session deleted at logout")

	_, err = env.Auth.Refresh(ctx, refreshed.RefreshToken, "10.0.0.2")
	assert.ErrorIs(t, err, service.ErrTokenRevoked, "refresh after logout fails")
}

func TestRefreshRejectsAlreadyRotatedToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcdef1!")
	pair, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.1")
	require.NoError(t, err)

	_, err = env.Auth.Refresh(ctx, pair.RefreshToken, "10.0.0.1")
	require.NoError(t, err)

	_, err = env.Auth.Refresh(ctx, pair.RefreshToken, "10.0.0.1")
	assert.ErrorIs(t, err, service.ErrTokenRevoked)
}

func TestLogoutTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcdef1!")
	pair, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, env.Auth.Logout(ctx, pair.RefreshToken))
	assert.ErrorIs(t, env.Auth.Logout(ctx, pair.RefreshToken), service.ErrTokenRevoked)
}

func TestConcurrentLogoutOnlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcdef1!")
	pair, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.1")
	require.NoError(t, err)

	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			results <- env.Auth.Logout(ctx, pair.RefreshToken)
		}()
	}

	var wins, losses int
	for i := 0; i < 8; i++ {
		if err := <-results; err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, service.ErrTokenRevoked)
			losses++
		}
	}
	assert.Equal(t, 1, wins, "exactly one logout may revoke a token")
	assert.Equal(t, 7, losses)
}

func TestDefaultRoleGrantedWhenPresent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Store.Roles().CreateRole(ctx, domain.Role{
		ID:          "role-member",
		Name:        service.DefaultRoleName,
		Permissions: []string{"profile:read"},
	}))

	env.register(t, "alice", "alice@example.com", "Abcdef1!")
	pair, err := env.Auth.Login(ctx, "alice", "Abcdef1!", "10.0.0.1")
	require.NoError(t, err)

	claims, err := env.Tokens.Validate(pair.AccessToken, jwtx.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, []string{service.DefaultRoleName}, claims.Roles)
	assert.Equal(t, []string{"profile:read"}, claims.Permissions)
}
