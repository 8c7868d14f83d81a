package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// Concurrent Do calls for the same key must run fn exactly once and share
// the result.
func TestGroup_Coalesce(t *testing.T) {
	t.Parallel()

	var g Group[string, string]
	var calls int64

	const N = 32
	var eg errgroup.Group
	for i := 0; i < N; i++ {
		eg.Go(func() error {
			v, err := g.Do(context.Background(), "k", func() (string, error) {
				atomic.AddInt64(&calls, 1)
				time.Sleep(5 * time.Millisecond)
				return "v", nil
			})
			if err != nil {
				return err
			}
			if v != "v" {
				return errors.New("wrong value: " + v)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("fn must run exactly once, got %d", got)
	}
	if g.Len() != 0 {
		t.Fatalf("flight map must be empty after landing, got %d", g.Len())
	}
}

// Distinct keys must not coalesce.
func TestGroup_DistinctKeys(t *testing.T) {
	t.Parallel()

	var g Group[int, int]
	var calls int64

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			_, _ = g.Do(context.Background(), k, func() (int, error) {
				atomic.AddInt64(&calls, 1)
				return k, nil
			})
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got != 4 {
		t.Fatalf("want 4 distinct runs, got %d", got)
	}
}

// A follower whose context is cancelled unblocks alone; the leader keeps
// running and its result remains usable.
func TestGroup_FollowerCancellation(t *testing.T) {
	t.Parallel()

	var g Group[string, string]
	leaderStarted := make(chan struct{})
	release := make(chan struct{})

	var leaderVal string
	var leaderErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		leaderVal, leaderErr = g.Do(context.Background(), "k", func() (string, error) {
			close(leaderStarted)
			<-release
			return "v", nil
		})
	}()

	<-leaderStarted

	ctx, cancel := context.WithCancel(context.Background())
	followerDone := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, "k", func() (string, error) {
			t.Error("follower must not run fn")
			return "", nil
		})
		followerDone <- err
	}()

	cancel()
	select {
	case err := <-followerDone:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("follower must observe ctx.Err(), got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled follower did not unblock")
	}

	close(release)
	<-done
	if leaderErr != nil || leaderVal != "v" {
		t.Fatalf("leader must complete normally: v=%q err=%v", leaderVal, leaderErr)
	}
}

// Errors are shared with followers and do not stick: a later Do for the
// same key runs fn again.
func TestGroup_ErrorNotSticky(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	boom := errors.New("boom")

	if _, err := g.Do(context.Background(), "k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	v, err := g.Do(context.Background(), "k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("second run must succeed: v=%d err=%v", v, err)
	}
}

// A panicking fn must propagate to the leader, hand followers an error,
// and leave no stuck flight behind.
func TestGroup_PanicDoesNotStrandFollowers(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	leaderStarted := make(chan struct{})
	followerCalling := make(chan struct{})

	followerDone := make(chan error, 1)
	go func() {
		<-leaderStarted
		close(followerCalling)
		_, err := g.Do(context.Background(), "k", func() (int, error) {
			return 1, nil
		})
		followerDone <- err
	}()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("leader must re-panic")
			}
		}()
		_, _ = g.Do(context.Background(), "k", func() (int, error) {
			close(leaderStarted)
			<-followerCalling
			time.Sleep(10 * time.Millisecond) // let the follower join the flight
			panic("constructor exploded")
		})
	}()

	select {
	case err := <-followerDone:
		// The follower either joined the doomed flight (error) or arrived
		// after it was cleared and ran fn itself (nil).
		_ = err
	case <-time.After(time.Second):
		t.Fatal("follower stranded after leader panic")
	}
	if g.Len() != 0 {
		t.Fatalf("flight map must be empty after panic, got %d", g.Len())
	}
}
