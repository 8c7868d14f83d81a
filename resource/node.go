package resource

// node is an intrusive doubly linked list element owned by the store.
// It carries the key/value alongside the list links used for recency
// bookkeeping (head is MRU, tail is LRU).
type node[K comparable, V any] struct {
	key K
	val V

	prev *node[K, V]
	next *node[K, V]
}

// Key returns the node key (part of policy.Node interface).
func (n *node[K, V]) Key() K { return n.key }

// Value returns a pointer to the stored resource (part of policy.Node
// interface). Callers must only touch the pointee while holding the store
// lock.
func (n *node[K, V]) Value() *V { return &n.val }
