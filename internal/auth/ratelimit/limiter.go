// Package ratelimit bounds credential-check attempts per client key and
// bans keys that exceed the limit. It counts every attempt, not only
// failures, so probing an account is throttled even with a valid password.
package ratelimit

import (
	"hash/fnv"
	"log/slog"
	"sync"
	"time"
)

const shardCount = 16

// Config controls the attempt window and ban duration.
type Config struct {
	// MaxAttempts allowed within Window before a ban starts.
	MaxAttempts int
	// Window after which an idle key's count resets.
	Window time.Duration
	// BanDuration is how long a banned key stays rejected.
	BanDuration time.Duration
}

// DefaultConfig allows 5 attempts per 5 minutes with a 1 hour ban.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      5 * time.Minute,
		BanDuration: time.Hour,
	}
}

type entry struct {
	attempts    int
	lastAttempt time.Time
	banExpires  time.Time // zero when not banned
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Limiter is a sharded in-memory attempt counter. Each shard has its own
// lock so unrelated keys never serialize on each other.
type Limiter struct {
	config Config
	shards [shardCount]*shard
	logger *slog.Logger
	now    func() time.Time
}

func New(config Config, logger *slog.Logger) *Limiter {
	l := &Limiter{
		config: config,
		logger: logger,
		now:    time.Now,
	}
	for i := range l.shards {
		l.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return l
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}

// IsAllowed records an attempt for key and reports whether it may
// proceed. The decision sequence per key: an expired ban resets the
// count; an idle window resets the count; hitting MaxAttempts starts a
// ban and rejects; otherwise the attempt is counted and allowed.
func (l *Limiter) IsAllowed(key string) bool {
	s := l.shardFor(key)
	now := l.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{lastAttempt: now}
		s.entries[key] = e
	}

	if !e.banExpires.IsZero() {
		if now.Before(e.banExpires) {
			return false
		}
		e.attempts = 0
		e.banExpires = time.Time{}
	}

	if now.Sub(e.lastAttempt) >= l.config.Window {
		e.attempts = 0
	}

	if e.attempts >= l.config.MaxAttempts {
		e.banExpires = now.Add(l.config.BanDuration)
		l.logger.Warn("rate limit ban started",
			"key", key,
			"ban_seconds", int(l.config.BanDuration.Seconds()),
		)
		return false
	}

	e.attempts++
	e.lastAttempt = now
	return true
}

// Prune drops entries that are neither banned nor inside an active
// window. The housekeeping loop calls this periodically so the table
// does not grow without bound.
func (l *Limiter) Prune() int {
	now := l.now()
	removed := 0

	for _, s := range l.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if !e.banExpires.IsZero() && now.Before(e.banExpires) {
				continue
			}
			if now.Sub(e.lastAttempt) < l.config.Window {
				continue
			}
			delete(s.entries, key)
			removed++
		}
		s.mu.Unlock()
	}

	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	total := 0
	for _, s := range l.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}
