// Package flight coalesces concurrent constructor runs for the same cache
// key so the constructor executes at most once per key at a time.
package flight

import (
	"context"
	"fmt"
	"sync"
)

// call carries one in-flight constructor run. val/err are published
// before done is closed, so any read after <-done observes final values.
type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Group deduplicates concurrent Do calls per key. The first caller for a
// key becomes the leader and runs fn; followers wait for the shared
// result. A follower whose ctx is cancelled unblocks alone with ctx.Err();
// the leader keeps running fn to completion so its result is not lost.
//
// The zero value is ready to use.
type Group[K comparable, V any] struct {
	mu       sync.Mutex
	inflight map[K]*call[V]
}

// Do runs fn at most once for key among concurrent callers and returns the
// shared (value, error). ctx cancellation is honored only while waiting on
// another caller's run; it never cancels fn itself. If cancellation of the
// underlying work is needed, thread a context into fn.
//
// If fn panics, the panic propagates to the leader; waiting followers
// receive an error instead of hanging on a flight that will never land.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.inflight == nil {
		g.inflight = make(map[K]*call[V])
	}
	if c, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.inflight[key] = c
	g.mu.Unlock()

	landed := false
	defer func() {
		if !landed {
			// fn panicked: publish an error so followers do not wait
			// forever, then let the panic continue unwinding.
			c.err = fmt.Errorf("flight: in-flight call for key %v panicked", key)
			close(c.done)
		}
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
	}()

	c.val, c.err = fn()
	landed = true
	close(c.done)
	return c.val, c.err
}

// Len reports the number of keys with an in-flight run. Intended for tests.
func (g *Group[K, V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}
