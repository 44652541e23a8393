// Package repositorycache layers scope-aware caching and invalidation
// planning on top of the cache package.
//
// A ScopedStore binds one entity kind to the key builder so every call site
// produces keys with exactly the isolation dimensions its query uses. A Plan
// is the invalidation set computed for a mutation, the entity's exact keys
// across every identifier kind it is cached under, plus every list prefix
// whose contents could have changed. When a field that partitions a list
// cache changes (a course moving category), the planner derives the plan
// from both the old and the new value so both partitions are evicted.
//
// The Coordinator applies plans strictly after the durable write commits,
// exact keys before prefixes, and logs-and-swallows every cache failure:
// invalidation trouble never rolls back or surfaces a committed write, it
// just leaves entries to expire by TTL.
package repositorycache
