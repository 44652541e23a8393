// Package testsupport provides in-memory fakes for the module's collaborator
// contracts: a recording cache backend and durable-store fakes, so package
// tests exercise real control flow without external processes.
package testsupport

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryKV is an in-memory cache.KeyValue that records call counts and
// deleted keys, with per-operation error injection. TTLs are ignored.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string][]byte

	GetErr  error
	SetErr  error
	DelErr  error
	ScanErr error

	GetCalls  int
	SetCalls  int
	DelCalls  int
	ScanCalls int
	Deleted   []string
}

// NewMemoryKV creates an empty fake backend.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: map[string][]byte{}}
}

// Get implements cache.KeyValue.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

// Set implements cache.KeyValue.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

// Del implements cache.KeyValue.
func (m *MemoryKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DelCalls++
	if m.DelErr != nil {
		return m.DelErr
	}
	for _, key := range keys {
		delete(m.entries, key)
		m.Deleted = append(m.Deleted, key)
	}
	return nil
}

// ScanKeys implements cache.KeyValue.
func (m *MemoryKV) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanCalls++
	if m.ScanErr != nil {
		return nil, m.ScanErr
	}
	var keys []string
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Has reports whether a key is currently cached.
func (m *MemoryKV) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Len returns the number of cached entries.
func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Keys returns every cached key, sorted.
func (m *MemoryKV) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Put seeds an entry directly, bypassing call counting.
func (m *MemoryKV) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
}
