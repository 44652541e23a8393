package repositorycache

import "context"

type invalidationTagsKey struct{}

// WithInvalidationTags attaches additional invalidation prefixes to the
// context. Call sites that know a mutation's blast radius is wider than the
// entity's own plan (a seed job, a cross-entity migration) use this to widen
// the next Apply without changing the planner.
func WithInvalidationTags(ctx context.Context, prefixes ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(prefixes) == 0 {
		return ctx
	}
	existing := tagsFromContext(ctx)
	combined := dedupeStrings(append(existing.Prefixes, prefixes...))
	return context.WithValue(ctx, invalidationTagsKey{}, combined)
}

func tagsFromContext(ctx context.Context) Plan {
	if ctx == nil {
		return Plan{}
	}
	if prefixes, ok := ctx.Value(invalidationTagsKey{}).([]string); ok {
		return Plan{Prefixes: append([]string(nil), prefixes...)}
	}
	return Plan{}
}
