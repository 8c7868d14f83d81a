// Package resource provides memoized sharing of expensive-to-create
// resources (network clients, browser processes, connections) across
// independent test executions.
//
// Two layers cooperate behind one public entry point:
//
//   - Wrap / MustWrap turn any constructor function into a memoizing
//     function with the identical signature. A constructor whose first
//     parameter is a context.Context is treated as suspending: the call
//     blocks for the duration of the underlying work, and concurrent
//     misses for the same key are coalesced so the constructor runs once.
//     The convention is detected once, at wrap time, not per call.
//
//   - Cache is the bounded, call-keyed store underneath: a map plus an
//     intrusive MRU↔LRU doubly linked list, with a pluggable recency
//     policy (LRU by default) and lightweight metrics hooks.
//
// Keys are built from the constructor's arguments by a Keyer. The default
// CanonicalKeyer produces a deterministic encoding: map arguments are
// encoded with sorted keys, so argument maps that differ only in insertion
// order key identically. With type sensitivity enabled, each argument's
// runtime type participates in key equality, so int(1) and float64(1)
// never collide. Arguments that cannot be canonically encoded (functions,
// channels, unbounded self-reference) fail key construction with
// ErrUnhashableArgument before the constructor runs.
//
// Eviction drops an entry from the mapping only. The cache never owns the
// underlying resource's external state: finalization stays with the
// constructor, which registers cleanup with the host suite lifecycle (see
// the suite package).
//
// Basic usage
//
//	newClient := func(endpoint string) *http.Client {
//	    return &http.Client{Transport: transportFor(endpoint)}
//	}
//	shared, err := resource.Wrap(newClient, resource.WithMaxInstances(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a := shared("https://api.example.com") // constructed
//	b := shared("https://api.example.com") // cached, a == b
//
// Suspending constructors
//
//	newBrowser := func(ctx context.Context, headless bool) (*Browser, error) {
//	    return launch(ctx, headless)
//	}
//	shared := resource.MustWrap(newBrowser)
//	// Concurrent callers with equal arguments observe one launch.
//	b, err := shared(ctx, true)
//
// Failures are never memoized: a constructor error (or panic) leaves no
// entry behind, and the next call for the same key runs the constructor
// again.
package resource
