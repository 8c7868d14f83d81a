// Package suite provides the suite-lifecycle capability consumed by shared
// resource constructors: register a callback once, have it run exactly once
// after the whole test run completes.
//
// The package does not replace the host test runner; it is the minimal
// registry a runner (or a TestMain) can expose to constructors so each
// unique resource is finalized once, no matter how many tests reused it.
package suite

import (
	"errors"
	"sync"
)

// FinalizerFunc releases one resource at the end of a run.
type FinalizerFunc func() error

// Registry collects finalizers during a run and executes them exactly once
// when the run ends. Safe for concurrent use.
//
// The zero value is ready to use.
type Registry struct {
	mu        sync.Mutex
	fns       []FinalizerFunc
	finalized bool
}

// Defer registers fn to run at the end of the suite. Finalizers run in
// reverse registration order, mirroring defer. Registering after Finalize
// is a no-op: the run is over and nothing will execute fn.
func (r *Registry) Defer(fn FinalizerFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.fns = append(r.fns, fn)
}

// Finalize runs every registered finalizer exactly once, LIFO, and returns
// their errors joined. A failing finalizer does not stop the rest. Repeated
// calls return nil without running anything.
func (r *Registry) Finalize() error {
	r.mu.Lock()
	if r.finalized {
		r.mu.Unlock()
		return nil
	}
	r.finalized = true
	fns := r.fns
	r.fns = nil
	r.mu.Unlock()

	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports the number of pending finalizers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fns)
}
