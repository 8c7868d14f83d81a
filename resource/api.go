package resource

import "context"

// Constructor produces a resource on a cache miss. The context is the one
// supplied to GetOrCreate by the leading caller; followers that abandon
// their wait do not cancel it.
type Constructor[V any] func(ctx context.Context) (V, error)

// Cache is a bounded, call-keyed, in-memory store for shared resources.
// All methods are safe for concurrent use by multiple goroutines.
//
// Typical operation cost is amortized O(1): a map lookup plus
// constant-time adjustments of an intrusive recency list under the store
// lock.
type Cache[K comparable, V any] interface {
	// Get returns the resource for k and a presence flag.
	// On hit, the entry is promoted according to the active policy.
	Get(k K) (V, bool)

	// Add inserts k→v only if k is not present.
	// Returns false if the key already exists (no update is performed).
	Add(k K, v V) bool

	// Set inserts or updates k→v and promotes the entry according to the
	// active policy.
	Set(k K, v V)

	// Remove deletes k if present and returns true on success.
	// Like eviction, it drops the mapping entry without finalizing the
	// resource.
	Remove(k K) bool

	// Len returns the number of resident entries.
	Len() int

	// Stats returns a snapshot of the hit/miss/eviction counters.
	Stats() Stats

	// Close marks the cache closed. Subsequent mutating calls are ignored
	// and GetOrCreate returns ErrClosed.
	Close() error

	// GetOrCreate returns the resource for k, running ctor on a miss.
	// Concurrent misses for the same key are coalesced: ctor runs exactly
	// once and every caller observes the same result. A ctor error is
	// propagated unchanged and never memoized. Cancelling ctx while
	// waiting on another caller's run abandons only this caller; the
	// in-flight ctor completes and its result still populates the cache.
	GetOrCreate(ctx context.Context, k K, ctor Constructor[V]) (V, error)
}
