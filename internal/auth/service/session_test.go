package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborworks/gatehouse/internal/auth/service"
)

func TestSessionReplacement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Sessions.CreateOrReplace(ctx, "user-1", "token-1"))
	require.NoError(t, env.Sessions.CreateOrReplace(ctx, "user-1", "token-2"))

	current, err := env.Sessions.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "token-2", current)

	old, err := env.Sessions.IsCurrent(ctx, "user-1", "token-1")
	require.NoError(t, err)
	assert.False(t, old)

	latest, err := env.Sessions.IsCurrent(ctx, "user-1", "token-2")
	require.NoError(t, err)
	assert.True(t, latest)
}

func TestSessionGetMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Sessions.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestSessionDeleteIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Sessions.CreateOrReplace(ctx, "user-1", "token-1"))
	require.NoError(t, env.Sessions.Delete(ctx, "user-1"))
	require.NoError(t, env.Sessions.Delete(ctx, "user-1"))

	ok, err := env.Sessions.IsCurrent(ctx, "user-1", "token-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionExpiresWithTTL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Sessions.CreateOrReplace(ctx, "user-1", "token-1"))

	env.Redis.FastForward(env.Sessions.TTL + time.Second)

	_, err := env.Sessions.Get(ctx, "user-1")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
