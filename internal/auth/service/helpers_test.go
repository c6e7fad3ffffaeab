package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/harborworks/gatehouse/internal/auth/cache"
	"github.com/harborworks/gatehouse/internal/auth/domain"
	"github.com/harborworks/gatehouse/internal/auth/ratelimit"
	"github.com/harborworks/gatehouse/internal/auth/service"
	"github.com/harborworks/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/harborworks/gatehouse/pkg/cryptox"
	"github.com/harborworks/gatehouse/pkg/jwtx"
)

type testEnv struct {
	Store    *sqlite.Store
	Cache    *cache.Redis
	Redis    *miniredis.Miniredis
	Tokens   *service.TokenService
	Sessions *service.SessionManager
	Auth     *service.AuthService
	Limiter  *ratelimit.Limiter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	kv := cache.NewRedisFromClient(client)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	signer, err := jwtx.NewSignerRS256(pemKey)
	require.NoError(t, err)

	tokens := &service.TokenService{
		Signer:     signer,
		Verifier:   jwtx.NewVerifierRS256(signer.Public()),
		Cache:      kv,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	sessions := &service.SessionManager{Cache: kv, TTL: tokens.RefreshTTL}
	limiter := ratelimit.New(ratelimit.DefaultConfig(), slog.New(slog.DiscardHandler))

	return &testEnv{
		Store:    st,
		Cache:    kv,
		Redis:    mr,
		Tokens:   tokens,
		Sessions: sessions,
		Limiter:  limiter,
		Auth: &service.AuthService{
			Store:    st,
			Tokens:   tokens,
			Sessions: sessions,
			Limiter:  limiter,
		},
	}
}

func (e *testEnv) register(t *testing.T, username, email, password string) domain.User {
	t.Helper()

	user, err := e.Auth.Register(context.Background(), username, email, password)
	require.NoError(t, err)
	return user
}
