// Package policy defines the pluggable recency/eviction contract used by
// the resource store. LRU is the default implementation; alternatives can
// be supplied without changing the store itself.
package policy

// Node is the minimal contract a cache entry must satisfy for a policy.
// It provides read-only access to the key and a pointer to the value.
type Node[K comparable, V any] interface {
	Key() K
	Value() *V
}

// Hooks expose O(1) list operations a policy can use to manipulate the
// store's intrusive MRU/LRU list. Implementations are provided by the store.
//
// Concurrency: all hook calls happen under the store lock.
// Hooks manage only the list; the store owns the key->node map.
type Hooks[K comparable, V any] interface {
	// MoveToFront promotes the node to MRU.
	MoveToFront(Node[K, V])
	// PushFront inserts the node at MRU (used on admission).
	PushFront(Node[K, V])
	// Remove detaches the node from the list (map bookkeeping is done by the store).
	Remove(Node[K, V])
	// Back returns the current LRU node (or nil if empty).
	Back() Node[K, V]
	// Len returns the number of resident nodes.
	Len() int
}

// StorePolicy is a policy instance bound to one store's hooks.
// All methods are invoked under the store lock.
//
// Semantics:
//   - OnAdd may return an eviction candidate. The store evicts that node
//     and subsequently calls OnRemove for it.
//   - OnGet/OnUpdate typically promote the node.
//   - OnRemove is a notification to update policy-internal state; the
//     store performs the actual deletion.
type StorePolicy[K comparable, V any] interface {
	OnAdd(Node[K, V]) (evict Node[K, V])
	OnGet(Node[K, V])
	OnUpdate(Node[K, V])
	OnRemove(Node[K, V])
}

// Policy is a factory that creates policy instances bound to a particular
// store's hooks.
type Policy[K comparable, V any] interface {
	New(Hooks[K, V]) StorePolicy[K, V]
}
