package resource

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vedro-universe/shared-resource/internal/flight"
	"github.com/vedro-universe/shared-resource/internal/util"
	"github.com/vedro-universe/shared-resource/policy"
	"github.com/vedro-universe/shared-resource/policy/lru"
)

// store is the Cache implementation: a single map plus an intrusive
// MRU↔LRU doubly linked list, guarded by one lock. The store is not
// sharded: recency order is an observable contract here (callers reason
// about exactly which entry an insert evicts), and per-decoration caches
// stay small, so strict global LRU wins over lock spreading.
type store[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu   sync.Mutex
	m    map[K]*node[K, V]
	head *node[K, V] // MRU
	tail *node[K, V] // LRU
	len  int
	max  int

	pol policy.StorePolicy[K, V]
	opt Options[K, V]

	closed atomic.Bool

	// In-flight constructor runs, coalesced per key.
	flights flight.Group[K, V]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
	evicts util.PaddedAtomicUint64
}

// New constructs a Cache with the provided Options. It returns
// ErrConfiguration (wrapped) for a negative MaxInstances; zero-value
// fields get defaults as documented on Options.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if opt.MaxInstances == 0 {
		opt.MaxInstances = DefaultMaxInstances
	}
	if opt.Metrics == nil {
		opt.Metrics = NopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[K, V]()
	}

	s := &store[K, V]{
		m:   make(map[K]*node[K, V], opt.MaxInstances),
		max: opt.MaxInstances,
		opt: opt,
	}
	s.pol = opt.Policy.New(storeHooks[K, V]{s: s})
	return s, nil
}

// ---- Cache[K,V] implementation ----

// Add inserts k→v only if absent.
func (s *store[K, V]) Add(k K, v V) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.m[k]; exists {
		return false
	}
	s.insertLocked(k, v)
	return true
}

// Set inserts or updates k→v and promotes the entry.
func (s *store[K, V]) Set(k K, v V) {
	if s.closed.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.m[k]; ok {
		n.val = v
		s.pol.OnUpdate(n)
		return
	}
	s.insertLocked(k, v)
}

// Get returns the resource and promotes the entry on hit.
func (s *store[K, V]) Get(k K) (V, bool) {
	if s.closed.Load() {
		var zero V
		return zero, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	s.pol.OnGet(n)
	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return n.val, true
}

// Remove deletes an entry by key. Returns true if the entry existed.
// Explicit removal is not counted as an eviction.
func (s *store[K, V]) Remove(k K) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		return false
	}
	s.pol.OnRemove(n)
	s.removeNode(n)
	delete(s.m, k)
	s.opt.Metrics.Size(s.len)
	return true
}

// Len returns the number of resident entries.
func (s *store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.len
}

// Stats returns a snapshot of the store counters.
func (s *store[K, V]) Stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evicts.Load(),
		Entries:   s.Len(),
	}
}

// Close marks the cache as closed. Resident resources are not finalized:
// their cleanup belongs to the suite lifecycle their constructors
// registered with.
func (s *store[K, V]) Close() error {
	s.closed.Store(true)
	return nil
}

// GetOrCreate returns the resource for k; on miss it runs ctor once per
// key, coalescing concurrent misses.
func (s *store[K, V]) GetOrCreate(ctx context.Context, k K, ctor Constructor[V]) (V, error) {
	var zero V
	if s.closed.Load() {
		return zero, ErrClosed
	}
	// fast path
	if v, ok := s.Get(k); ok {
		return v, nil
	}
	if ctor == nil {
		return zero, fmt.Errorf("%w: nil constructor", ErrConfiguration)
	}

	return s.flights.Do(ctx, k, func() (V, error) {
		// Double-check after joining the flight: an earlier leader may
		// have populated the entry between our miss and our takeoff.
		if v, ok := s.Get(k); ok {
			return v, nil
		}
		v, err := ctor(ctx)
		if err == nil {
			s.Set(k, v)
		}
		return v, err
	})
}

// ---- internals (mu held) ----

// insertLocked admits a new entry via the policy and enforces the entry
// count limit.
func (s *store[K, V]) insertLocked(k K, v V) {
	n := &node[K, V]{key: k, val: v}
	s.m[k] = n

	// Let the policy place the entry (and optionally suggest an eviction).
	if ev := s.pol.OnAdd(n); ev != nil {
		s.evictNode(ev.(*node[K, V]), EvictPolicy)
	}
	s.enforceLimitLocked()
}

// insertFront inserts n at MRU in O(1).
func (s *store[K, V]) insertFront(n *node[K, V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
}

// moveToFront promotes n to MRU in O(1).
func (s *store[K, V]) moveToFront(n *node[K, V]) {
	if n == s.head {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// removeNode removes n from the list and updates counters in O(1).
func (s *store[K, V]) removeNode(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
}

// back returns the current LRU node in O(1).
func (s *store[K, V]) back() *node[K, V] { return s.tail }

// evictNode drops the node from map and list, updates metrics, and calls
// OnEvict. The resource itself is left untouched.
func (s *store[K, V]) evictNode(n *node[K, V], reason EvictReason) {
	s.pol.OnRemove(n)
	s.removeNode(n)
	delete(s.m, n.key)
	s.evicts.Add(1)
	s.opt.Metrics.Evict(reason)
	logger().Debug("evicted cached resource", "key", fmt.Sprint(n.key), "resident", s.len)
	if cb := s.opt.OnEvict; cb != nil {
		// Called under the store lock; callbacks must stay lightweight.
		cb(n.key, n.val, reason)
	}
}

// enforceLimitLocked evicts LRU entries until the count limit is satisfied.
func (s *store[K, V]) enforceLimitLocked() {
	for s.len > s.max {
		tail := s.back()
		if tail == nil {
			break
		}
		s.evictNode(tail, EvictCapacity)
	}
	s.opt.Metrics.Size(s.len)
}

// ---- policy hooks ----

// storeHooks adapts the store's list operations to policy.Hooks.
type storeHooks[K comparable, V any] struct{ s *store[K, V] }

func (h storeHooks[K, V]) MoveToFront(x policy.Node[K, V]) { h.s.moveToFront(x.(*node[K, V])) }
func (h storeHooks[K, V]) PushFront(x policy.Node[K, V])   { h.s.insertFront(x.(*node[K, V])) }
func (h storeHooks[K, V]) Remove(x policy.Node[K, V]) {
	// Policies call Remove while the store lock is held.
	// Map bookkeeping is performed by the store itself.
	h.s.removeNode(x.(*node[K, V]))
}
func (h storeHooks[K, V]) Back() policy.Node[K, V] { return h.s.back() }
func (h storeHooks[K, V]) Len() int                { return h.s.len }
