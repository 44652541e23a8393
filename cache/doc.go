// Package cache provides the scoped key builder and the generic cache-aside
// store that every tenant-scoped read in this module goes through.
//
// # Scoped keys
//
// Every cached value is addressed by a deterministic key encoding the entity
// kind, the identifier kind and value, and the isolation scope (tenant and
// academic year). Two requests that could return different underlying data
// never share a key; two requests with identical scope and identifier always
// do. Call sites must pass exactly the dimensions the underlying query
// filters by; omitting the tenant on a tenant-scoped query is a cross-tenant
// leak, and adding one to a global query needlessly fragments the cache.
//
//	kb := cache.NewKeyBuilder("")
//	key := kb.Entity(cache.Scope{TenantID: academyID}, "course", "code", "MATH101")
//
// # Cache-aside store
//
// Store[T] wraps a KeyValue backend with read-through and write-invalidate
// behavior. The backend is strictly an optimization: any backend failure is
// logged and the call degrades to the durable store, so an unavailable cache
// slows the system down without making it wrong.
//
//	course, err := store.GetOrLoad(ctx, key, func(ctx context.Context) (*academy.Course, error) {
//		return courses.ByCode(ctx, academyID, "MATH101")
//	})
//
// Writes always reach the durable store first; the cache entry is written
// only after the durable write is acknowledged, so the cache can never run
// ahead of the source of truth.
//
// Values are encoded with msgpack. Backends live in internal/cacheinfra; the
// invalidation planning on top of this package lives in repositorycache.
package cache
