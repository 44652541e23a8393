package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// KeyValue is the cache backend contract. Implementations must be safe for
// concurrent use. Get reports ok=false on miss without error; errors signal
// backend trouble (academy.CategoryUnavailable) and callers are expected to
// degrade to the durable store.
//
// ScanKeys is best-effort and may be slow; it backs infrequent pattern
// invalidation, never hot-path reads.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
}

// LoadFn fetches a value from the source of truth.
type LoadFn[T any] func(ctx context.Context) (T, error)

// Store is a generic cache-aside wrapper around a KeyValue backend. The
// backend is an optimization, never a dependency for correctness: every
// backend failure degrades to the durable load and is logged, not returned.
type Store[T any] struct {
	kv     KeyValue
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore creates a Store with the given entry TTL. A nil logger falls back
// to slog.Default().
func NewStore[T any](kv KeyValue, ttl time.Duration, logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T]{kv: kv, ttl: ttl, logger: logger}
}

// GetOrLoad returns the cached value for key, loading from the source of
// truth on miss and writing the loaded value back. The write-back must
// complete before returning; when it fails the loaded value is still
// returned and the failure is logged as non-fatal.
func (s *Store[T]) GetOrLoad(ctx context.Context, key string, load LoadFn[T]) (T, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get failed, falling back to durable store",
			slog.String("key", key), slog.Any("error", err))
	}
	if ok && err == nil {
		var value T
		if err := msgpack.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
		// Undecodable entry: treat as a miss and overwrite below.
		s.logger.Warn("cache entry undecodable, reloading", slog.String("key", key))
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.writeBack(ctx, key, value)
	return value, nil
}

// Put writes through: the durable write runs first, and the cache entry is
// written only after the durable write is acknowledged. When the durable
// write fails, no cache entry is written.
func (s *Store[T]) Put(ctx context.Context, key string, write LoadFn[T]) (T, error) {
	value, err := write(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.writeBack(ctx, key, value)
	return value, nil
}

// Invalidate deletes the given exact keys. Deleting an absent key is a no-op.
func (s *Store[T]) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.kv.Del(ctx, keys...)
}

// InvalidatePattern deletes every entry whose key starts with prefix via a
// scan over the backend key space. Callers must treat failure as non-fatal:
// stale entries self-heal at TTL expiry.
func (s *Store[T]) InvalidatePattern(ctx context.Context, prefix string) error {
	keys, err := s.kv.ScanKeys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.kv.Del(ctx, keys...)
}

// Refresh repopulates the entry for key with a value that is already known
// fresh (just written durably). Failures are logged, never returned.
func (s *Store[T]) Refresh(ctx context.Context, key string, value T) {
	s.writeBack(ctx, key, value)
}

func (s *Store[T]) writeBack(ctx context.Context, key string, value T) {
	raw, err := msgpack.Marshal(value)
	if err != nil {
		s.logger.Warn("cache encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := s.kv.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
	}
}
