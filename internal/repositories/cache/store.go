// Package cache provides the key/value store that sits in front of every
// read path, and the fail-open helpers the services use with it.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key/value store with glob pattern deletion. Values are
// serialized as JSON.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// DeleteMany removes every key matching pattern. A pattern without glob
	// characters removes that exact key. No match is not an error.
	DeleteMany(ctx context.Context, pattern string) error

	// Generation returns the invalidation counter of entity, zero when unset.
	Generation(ctx context.Context, entity string) (int64, error)
	// Bump advances the invalidation counter of entity.
	Bump(ctx context.Context, entity string) error
	// SetIfGeneration stores value only while the counter of entity still
	// equals gen. The check and the write are atomic.
	SetIfGeneration(ctx context.Context, entity string, gen int64, key string, value interface{}, ttl time.Duration) (bool, error)
}
