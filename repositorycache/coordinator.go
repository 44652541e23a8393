package repositorycache

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-academy-core/cache"
)

// Coordinator applies invalidation plans against the cache backend. It runs
// strictly after the durable write has committed: exact keys first, then
// prefix scans. Every failure is logged and swallowed: once the durable
// write is in, cache invalidation must never surface as a user-visible error
// (stale entries self-heal at TTL expiry).
type Coordinator struct {
	kv     cache.KeyValue
	logger *slog.Logger
}

// NewCoordinator builds a coordinator. A nil logger falls back to
// slog.Default().
func NewCoordinator(kv cache.KeyValue, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{kv: kv, logger: logger}
}

// Apply executes the plan, widened by any tags attached to the context.
func (c *Coordinator) Apply(ctx context.Context, plan Plan) {
	plan = plan.Merge(tagsFromContext(ctx))

	if len(plan.Keys) > 0 {
		if err := c.kv.Del(ctx, plan.Keys...); err != nil {
			c.logger.Warn("cache invalidation failed",
				slog.Int("keys", len(plan.Keys)), slog.Any("error", err))
		}
	}

	for _, prefix := range plan.Prefixes {
		keys, err := c.kv.ScanKeys(ctx, prefix)
		if err != nil {
			c.logger.Warn("cache pattern scan failed",
				slog.String("prefix", prefix), slog.Any("error", err))
			continue
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.kv.Del(ctx, keys...); err != nil {
			c.logger.Warn("cache pattern invalidation failed",
				slog.String("prefix", prefix), slog.Any("error", err))
		}
	}
}
