package repositorycache

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-academy-core/cache"
)

// ScopedStore binds a cache-aside Store to one entity kind and a key
// builder, so call sites spell out only the identifier kind, the scope and
// the values, so the key shape stays in one place per entity.
type ScopedStore[T any] struct {
	entity string
	store  *cache.Store[T]
	keys   *cache.KeyBuilder
	coord  *Coordinator
}

// NewScopedStore creates a scoped store for one entity kind.
func NewScopedStore[T any](entity string, kv cache.KeyValue, cfg cache.Config, coord *Coordinator, logger *slog.Logger) *ScopedStore[T] {
	return &ScopedStore[T]{
		entity: entity,
		store:  cache.NewStore[T](kv, cfg.TTL, logger),
		keys:   cache.NewKeyBuilder(cfg.Namespace),
		coord:  coord,
	}
}

// Key builds the exact key for an identifier within a scope.
func (s *ScopedStore[T]) Key(sc cache.Scope, identifierKind string, values ...string) string {
	return s.keys.Entity(sc, s.entity, identifierKind, values...)
}

// Prefix builds an invalidation prefix for an identifier kind within a scope.
func (s *ScopedStore[T]) Prefix(sc cache.Scope, identifierKind string, values ...string) string {
	return s.keys.Prefix(sc, s.entity, identifierKind, values...)
}

// EntityPrefix covers every key cached for this entity kind within a scope.
func (s *ScopedStore[T]) EntityPrefix(sc cache.Scope) string {
	return s.keys.EntityPrefix(sc, s.entity)
}

// GetOrLoad serves one lookup cache-aside.
func (s *ScopedStore[T]) GetOrLoad(ctx context.Context, sc cache.Scope, identifierKind string, values []string, load cache.LoadFn[T]) (T, error) {
	return s.store.GetOrLoad(ctx, s.Key(sc, identifierKind, values...), load)
}

// Mutate runs the durable write, then applies the invalidation plan, then
// optionally repopulates the entity's primary key with the fresh value.
// The plan only runs after write succeeds; an aborted write invalidates
// nothing.
func (s *ScopedStore[T]) Mutate(ctx context.Context, write cache.LoadFn[T], plan Plan, repopulateKey string) (T, error) {
	value, err := write(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.coord.Apply(ctx, plan)
	if repopulateKey != "" {
		s.store.Refresh(ctx, repopulateKey, value)
	}
	return value, nil
}

// Invalidate applies an ad-hoc plan, for mutations that do not flow through
// Mutate (batch writes owned by a coordinator).
func (s *ScopedStore[T]) Invalidate(ctx context.Context, plan Plan) {
	s.coord.Apply(ctx, plan)
}
