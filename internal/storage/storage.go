// Package storage provides the key/value store plugins keep their state
// in, with optional per-key expiry.
package storage

import (
	"context"
	"time"
)

// Storage is a key/value store with optional per-key expiry. A key written
// with a ttl becomes invisible to Get and Has once the ttl elapses; expiry
// is checked lazily at read time, never actively swept. Backend errors are
// passed through unmodified.
type Storage interface {
	// Init prepares the backend for use.
	Init(ctx context.Context) error

	// Close releases backend resources.
	Close() error

	// Get returns the value for a key, or nil when the key is absent or
	// expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or replaces a key. A ttl of zero stores the key without
	// expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Has reports whether a key is present and not expired.
	Has(ctx context.Context, key string) (bool, error)

	// GetExpire returns the expiry of a key. The zero time means the key is
	// absent, expired, or stored without expiry.
	GetExpire(ctx context.Context, key string) (time.Time, error)

	// Size returns the number of logical entries, including entries whose
	// ttl has elapsed but which have not been touched since.
	Size(ctx context.Context) (int, error)
}
