package cacheinfra

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-academy-core/cache"
)

// IndexedKeyValue retrofits ScanKeys onto a backend that cannot enumerate
// its key space (a plain memcache-style store). It keeps a secondary index
// of every key written through it.
//
// The index is not TTL-aware: entries evicted by the backend may linger in
// the index until the next matching invalidation. That is harmless, deleting
// an absent key is a no-op, but it means ScanKeys can over-report.
type IndexedKeyValue struct {
	inner cache.KeyValue
	index sync.Map // key -> struct{}
}

// NewIndexedKeyValue wraps inner with a key index.
func NewIndexedKeyValue(inner cache.KeyValue) *IndexedKeyValue {
	return &IndexedKeyValue{inner: inner}
}

// Get implements cache.KeyValue.
func (s *IndexedKeyValue) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, key)
}

// Set implements cache.KeyValue, recording the key only after the backend
// write succeeds.
func (s *IndexedKeyValue) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.inner.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	s.index.Store(key, struct{}{})
	return nil
}

// Del implements cache.KeyValue. Index entries are dropped even when the
// backend delete fails: the backend entry expires by TTL anyway and a stale
// index entry would only resurface it on the next scan.
func (s *IndexedKeyValue) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.index.Delete(key)
	}
	return s.inner.Del(ctx, keys...)
}

// ScanKeys implements cache.KeyValue from the secondary index alone.
func (s *IndexedKeyValue) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var matched []string
	s.index.Range(func(k, _ any) bool {
		if key, ok := k.(string); ok && strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
		return true
	})
	return matched, nil
}

var _ cache.KeyValue = (*IndexedKeyValue)(nil)
