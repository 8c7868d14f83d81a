package resource

// EvictReason explains why an entry was dropped from the mapping.
// Eviction removes the entry only; it never finalizes the resource.
type EvictReason int

const (
	// EvictCapacity — dropped to keep the entry count within MaxInstances.
	EvictCapacity EvictReason = iota
	// EvictPolicy — dropped at the request of the active recency policy.
	EvictPolicy
)

// Metrics exposes cache-level observability hooks.
// A NopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// NopMetrics is a drop-in Metrics implementation that does nothing.
// Safe for concurrent use; the default when no backend is configured.
type NopMetrics struct{}

func (NopMetrics) Hit()              {}
func (NopMetrics) Miss()             {}
func (NopMetrics) Evict(EvictReason) {}
func (NopMetrics) Size(int)          {}

var _ Metrics = NopMetrics{}

// Stats is a point-in-time snapshot of the store counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}
