package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cachekeys "dompet/internal/utils/cache"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// setIfGeneration writes KEYS[2] only while the counter in KEYS[1] equals
// ARGV[1]. ARGV[3] is the ttl in milliseconds, zero for no expiry.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if (current or '0') ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// RedisStore bounds every call by timeout so a slow Redis degrades to a miss.
type RedisStore struct {
	client    redis.UniversalClient
	timeout   time.Duration
	scanBatch int64
}

func NewRedisStore(client redis.UniversalClient, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	return &RedisStore{client: client, timeout: timeout, scanBatch: 100}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, key, data, ttl).Err()
}

// DeleteMany walks the keyspace with SCAN MATCH rather than KEYS so large
// keyspaces do not block the server.
func (s *RedisStore) DeleteMany(ctx context.Context, pattern string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if !cachekeys.IsPattern(pattern) {
		return s.client.Del(ctx, pattern).Err()
	}

	var batch []string
	iter := s.client.Scan(ctx, 0, pattern, s.scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= s.scanBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Generation(ctx context.Context, entity string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gen, err := s.client.Get(ctx, cachekeys.GenerationKey(entity)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func (s *RedisStore) Bump(ctx context.Context, entity string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Incr(ctx, cachekeys.GenerationKey(entity)).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

func (s *RedisStore) SetIfGeneration(ctx context.Context, entity string, gen int64, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	written, err := setIfGeneration.Run(ctx, s.client,
		[]string{cachekeys.GenerationKey(entity), key},
		gen, data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to set cache value: %w", err)
	}
	return written == 1, nil
}

// HealthCheck pings the server.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}
