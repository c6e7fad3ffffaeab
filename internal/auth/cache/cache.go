package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get and GetDel when the key does not exist.
var ErrNotFound = errors.New("cache: not found")

// KV is the key/value contract the auth services depend on. The redis
// driver implements it; tests run it against miniredis.
type KV interface {
	// Set writes value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// GetDel atomically reads and removes key, or returns ErrNotFound.
	// Single-use records (federated handshakes) depend on the atomicity.
	GetDel(ctx context.Context, key string) (string, error)

	// SetNX writes key only if it does not exist. Returns true when the
	// write happened. Refresh rotation uses this as its check-and-set.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}
