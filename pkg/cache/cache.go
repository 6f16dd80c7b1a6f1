// Package cache provides a small key/value cache for rendered artifacts and
// bookkeeping, plus the retry helpers shared by the storage backends.
//
// # Backends
//
//   - [NullCache]: never stores anything; caching disabled
//   - [FileCache]: one JSON file per key, for the CLI
//   - [RedisCache]: shared cache for multi-instance servers
//
// # Keys
//
// A [Keyer] derives keys from content hashes, so a changed garden or a
// changed render option never reads a stale entry:
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "user:"+userID+":")
//	key := k.RenderKey(cache.Hash(stateJSON), cache.RenderKeyOpts{Format: "svg"})
//
// # Retries
//
// [Retryable] marks an error as transient and [Retry] retries
// such errors with exponential backoff.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	// TTLRender is how long a rendered image stays cached.
	TTLRender = 10 * time.Minute

	// TTLSnapshot is how long the hash of the last persisted snapshot is kept.
	TTLSnapshot = 24 * time.Hour
)

// Cache is the interface for cache backends. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}

// RenderKeyOpts are the render options that change the output bytes.
type RenderKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// RenderKey keys a rendered artifact by the hash of the rendered state.
	RenderKey(stateHash string, opts RenderKeyOpts) string

	// SnapshotKey keys the hash of a user's last persisted snapshot.
	SnapshotKey(userID string) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey returns "render:<hash(stateHash, opts)>".
func (DefaultKeyer) RenderKey(stateHash string, opts RenderKeyOpts) string {
	return hashKey("render", stateHash, opts)
}

// SnapshotKey returns "snapshot:<userID>".
func (DefaultKeyer) SnapshotKey(userID string) string {
	return "snapshot:" + userID
}
