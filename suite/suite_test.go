package suite

import (
	"errors"
	"sync"
	"testing"
)

// Finalizers run exactly once, in reverse registration order.
func TestRegistry_FinalizeOnceLIFO(t *testing.T) {
	t.Parallel()

	var r Registry
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		r.Defer(func() error {
			order = append(order, i)
			return nil
		})
	}

	if err := r.Finalize(); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != 2 || order[1] != 1 || order[2] != 0 {
		t.Fatalf("want LIFO order [2 1 0], got %v", order)
	}

	// Second Finalize must not re-run anything.
	if err := r.Finalize(); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 {
		t.Fatalf("finalizers ran again: %v", order)
	}
}

// A failing finalizer does not stop the rest; errors are joined.
func TestRegistry_ErrorsJoined(t *testing.T) {
	t.Parallel()

	var r Registry
	boom := errors.New("boom")
	ran := false
	r.Defer(func() error { ran = true; return nil })
	r.Defer(func() error { return boom })

	err := r.Finalize()
	if !errors.Is(err, boom) {
		t.Fatalf("want boom in joined error, got %v", err)
	}
	if !ran {
		t.Fatal("later-registered failure must not stop earlier finalizer")
	}
}

// Defer after Finalize is a no-op.
func TestRegistry_DeferAfterFinalize(t *testing.T) {
	t.Parallel()

	var r Registry
	_ = r.Finalize()

	r.Defer(func() error {
		t.Error("finalizer registered after Finalize must never run")
		return nil
	})
	if r.Len() != 0 {
		t.Fatalf("registry must stay empty, got %d", r.Len())
	}
	_ = r.Finalize()
}

// Concurrent registration is safe and every finalizer runs.
func TestRegistry_ConcurrentDefer(t *testing.T) {
	t.Parallel()

	var r Registry
	var mu sync.Mutex
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Defer(func() error {
				mu.Lock()
				count++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if err := r.Finalize(); err != nil {
		t.Fatal(err)
	}
	if count != 50 {
		t.Fatalf("want 50 finalizers run, got %d", count)
	}
}
