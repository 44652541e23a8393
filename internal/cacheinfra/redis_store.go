package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/cache"
	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the redis-backed KeyValue store.
type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// RedisStore adapts a redis client to the cache.KeyValue contract. Network
// failures surface as academy.CategoryUnavailable so the cache-aside store
// can fall through to the durable store instead of failing the request.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates the redis backend.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &RedisStore{rdb: rdb}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return academy.WrapError(academy.CategoryUnavailable, err, "redis ping")
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Get implements cache.KeyValue.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, academy.WrapError(academy.CategoryUnavailable, err, "redis get %q", key)
	}
	return raw, true, nil
}

// Set implements cache.KeyValue.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return academy.WrapError(academy.CategoryUnavailable, err, "redis set %q", key)
	}
	return nil
}

// Del implements cache.KeyValue. Absent keys are ignored by redis.
func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return academy.WrapError(academy.CategoryUnavailable, err, "redis del")
	}
	return nil
}

// ScanKeys implements cache.KeyValue with a cursor SCAN, never KEYS, so a
// large key space does not block the server.
func (s *RedisStore) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, escapeMatch(prefix)+"*", 256).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, academy.WrapError(academy.CategoryUnavailable, err, "redis scan %q", prefix)
	}
	return keys, nil
}

// escapeMatch neutralizes glob metacharacters so a literal prefix cannot
// match unrelated keys.
func escapeMatch(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
	return r.Replace(prefix)
}

var _ cache.KeyValue = (*RedisStore)(nil)
