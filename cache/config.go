package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds the knobs shared by every KeyValue backend.
type Config struct {
	// Capacity caps the number of entries for in-memory backends.
	Capacity int

	// NumShards sets the shard count for in-memory backends. Higher values
	// improve concurrency at some memory cost.
	NumShards int

	// TTL is the time-to-live applied to every entry. Stale entries left
	// behind by a failed invalidation self-heal within one TTL window.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when an in-memory
	// backend reaches capacity. Must be between 1 and 100.
	EvictionPercentage int

	// Namespace, when non-empty, prefixes every key. Set it when several
	// deployments share one backend.
	Namespace string
}

// DefaultConfig returns a Config with defaults suitable for most setups.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
	)
}
