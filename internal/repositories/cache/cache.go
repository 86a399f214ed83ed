package cache

import (
	"context"
	"strings"
	"time"

	"dompet/internal/observability"
)

// Cache wraps a Store with the fail-open policy: every store error is logged,
// counted and then treated as a miss.
type Cache struct {
	store Store
	obs   observability.Observer
}

func New(store Store, obs observability.Observer) *Cache {
	if store == nil {
		panic("cache store is required")
	}
	return &Cache{store: store, obs: obs.WithDefaults().Component("cache")}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	found, err := c.store.Get(ctx, key, dest)
	entity := entityOf(key)
	if err != nil {
		c.obs.Metrics.RecordCacheError("get")
		c.obs.Log.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		c.obs.Metrics.RecordCacheMiss(entity)
		return false
	}
	if found {
		c.obs.Metrics.RecordCacheHit(entity)
	} else {
		c.obs.Metrics.RecordCacheMiss(entity)
	}
	return found
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.obs.Metrics.RecordCacheError("set")
		c.obs.Log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Invalidate bumps the generation of every entity the patterns touch, then
// deletes every pattern, continuing past failures. A read that started
// loading before the bump can no longer store its result.
func (c *Cache) Invalidate(ctx context.Context, patterns ...string) {
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		entity := entityOf(p)
		if _, ok := seen[entity]; ok {
			continue
		}
		seen[entity] = struct{}{}
		if err := c.store.Bump(ctx, entity); err != nil {
			c.obs.Metrics.RecordCacheError("generation")
			c.obs.Log.Warn().Err(err).Str("entity", entity).Msg("cache generation bump failed")
		}
	}
	for _, p := range patterns {
		if err := c.store.DeleteMany(ctx, p); err != nil {
			c.obs.Metrics.RecordCacheError("delete")
			c.obs.Log.Warn().Err(err).Str("pattern", p).Msg("cache invalidation failed")
		}
	}
}

// GetOrLoad is the cache-aside read: a hit returns the cached value, a miss
// calls load and stores its result for ttl. Load errors are returned and
// never cached. The result is dropped when the entity was invalidated while
// load ran, since it may predate the mutation that invalidated it.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	entity := entityOf(key)
	gen, genErr := c.store.Generation(ctx, entity)
	if genErr != nil {
		c.obs.Metrics.RecordCacheError("generation")
		c.obs.Log.Warn().Err(genErr).Str("entity", entity).Msg("cache generation read failed, result will not be cached")
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if genErr == nil {
		c.setIfGeneration(ctx, entity, gen, key, value, ttl)
	}
	return value, nil
}

func (c *Cache) setIfGeneration(ctx context.Context, entity string, gen int64, key string, value interface{}, ttl time.Duration) {
	written, err := c.store.SetIfGeneration(ctx, entity, gen, key, value, ttl)
	if err != nil {
		c.obs.Metrics.RecordCacheError("set")
		c.obs.Log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		return
	}
	if !written {
		c.obs.Log.Debug().Str("key", key).Msg("entity invalidated during load, result not cached")
	}
}

func entityOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
