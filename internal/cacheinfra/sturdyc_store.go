// Package cacheinfra contains the KeyValue backend adapters. The sturdyc
// store serves single-node deployments; the redis store serves shared cache
// clusters; IndexedKeyValue retrofits prefix scanning onto backends that
// cannot enumerate their key space.
package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-academy-core/cache"
	"github.com/viccon/sturdyc"
)

// SturdycStore adapts a sturdyc client to the cache.KeyValue contract. It is
// an in-memory, sharded backend with native key enumeration, so prefix
// invalidation needs no secondary index.
//
// sturdyc applies the client-level TTL to every entry; the per-call ttl
// argument is accepted for contract compatibility and ignored.
type SturdycStore struct {
	client *sturdyc.Client[[]byte]
}

// NewSturdycStore builds the in-memory backend from the shared cache config.
func NewSturdycStore(cfg cache.Config) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := sturdyc.New[[]byte](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage)
	return &SturdycStore{client: client}, nil
}

// Get implements cache.KeyValue.
func (s *SturdycStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Set implements cache.KeyValue.
func (s *SturdycStore) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	s.client.Set(key, value)
	return nil
}

// Del implements cache.KeyValue. Absent keys are ignored.
func (s *SturdycStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// ScanKeys implements cache.KeyValue by filtering the client's key space.
func (s *SturdycStore) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var matched []string
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}
	return matched, nil
}

// Size reports the number of live entries, for monitoring.
func (s *SturdycStore) Size() int {
	return s.client.Size()
}

var _ cache.KeyValue = (*SturdycStore)(nil)
