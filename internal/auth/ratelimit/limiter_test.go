package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *time.Time) {
	t.Helper()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(DefaultConfig(), slog.New(slog.DiscardHandler))
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllowsUpToMaxAttempts(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 5; i++ {
		require.True(t, l.IsAllowed("10.0.0.1"), "attempt %d", i+1)
	}
	require.False(t, l.IsAllowed("10.0.0.1"), "sixth attempt starts a ban")
}

func TestBanRejectsUntilExpiry(t *testing.T) {
	l, now := newTestLimiter(t)

	for i := 0; i < 6; i++ {
		l.IsAllowed("10.0.0.1")
	}

	*now = now.Add(30 * time.Minute)
	assert.False(t, l.IsAllowed("10.0.0.1"), "still banned mid-way")

	*now = now.Add(31 * time.Minute)
	assert.True(t, l.IsAllowed("10.0.0.1"), "ban expired, attempt allowed")
}

func TestIdleWindowResetsCount(t *testing.T) {
	l, now := newTestLimiter(t)

	for i := 0; i < 4; i++ {
		require.True(t, l.IsAllowed("10.0.0.1"))
	}

	*now = now.Add(5 * time.Minute)

	// The count reset to zero, so five fresh attempts fit again.
	for i := 0; i < 5; i++ {
		assert.True(t, l.IsAllowed("10.0.0.1"), "attempt %d after idle window", i+1)
	}
	assert.False(t, l.IsAllowed("10.0.0.1"))
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 6; i++ {
		l.IsAllowed("10.0.0.1")
	}

	assert.False(t, l.IsAllowed("10.0.0.1"))
	assert.True(t, l.IsAllowed("10.0.0.2"))
}

func TestPrune(t *testing.T) {
	l, now := newTestLimiter(t)

	l.IsAllowed("idle")
	for i := 0; i < 6; i++ {
		l.IsAllowed("banned")
	}
	require.Equal(t, 2, l.Len())

	*now = now.Add(6 * time.Minute)

	removed := l.Prune()
	assert.Equal(t, 1, removed, "idle entry pruned, banned entry kept")
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.IsAllowed("banned"))
}

func TestConcurrentAttemptsSerializePerKey(t *testing.T) {
	l := New(Config{MaxAttempts: 50, Window: time.Minute, BanDuration: time.Hour}, slog.New(slog.DiscardHandler))

	var wg sync.WaitGroup
	allowed := make([]int, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if l.IsAllowed("shared") {
					allowed[g]++
				}
				l.IsAllowed(fmt.Sprintf("other-%d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, n := range allowed {
		total += n
	}
	assert.Equal(t, 50, total, "exactly MaxAttempts succeed across goroutines")
}
