package resource

import (
	"fmt"

	"github.com/vedro-universe/shared-resource/policy"
)

// DefaultMaxInstances bounds a cache when no explicit limit is given.
// Unbounded caches are deliberately not supported: a shared-resource cache
// that grows without limit is a leak, not a feature.
const DefaultMaxInstances = 128

// Options configures a Cache. The zero value is usable; defaults are
// applied in New():
//   - MaxInstances == 0 => DefaultMaxInstances
//   - nil Policy        => LRU
//   - nil Metrics       => NopMetrics
type Options[K comparable, V any] struct {
	// MaxInstances is the entry count limit. Inserting past the limit
	// evicts the least-recently-used entry first. Zero selects
	// DefaultMaxInstances; a negative value is a configuration error.
	MaxInstances int

	// Policy is a pluggable recency policy; nil selects LRU.
	Policy policy.Policy[K, V]

	// Metrics receives Hit/Miss/Evict/Size signals.
	Metrics Metrics

	// OnEvict is called for every eviction, under the store lock; keep
	// callbacks lightweight. Eviction drops the mapping entry only — it is
	// the constructor's job to finalize the resource via the suite
	// lifecycle, so OnEvict must not tear the resource down on behalf of
	// callers that may still hold it.
	OnEvict func(k K, v V, reason EvictReason)
}

func (o Options[K, V]) validate() error {
	if o.MaxInstances < 0 {
		return fmt.Errorf("%w: MaxInstances must be a positive integer, got %d",
			ErrConfiguration, o.MaxInstances)
	}
	return nil
}
