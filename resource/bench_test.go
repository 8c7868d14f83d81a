package resource

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
)

// benchmarkMix exercises a read/write mix against a warm cache.
// It uses parallel workers (RunParallel spawns GOMAXPROCS goroutines).
// String keys include strconv/concat costs and often allocate, which is
// fine for an end-to-end benchmark.
func benchmarkMix(b *testing.B, readsPct int) {
	c, err := New[string, string](Options[string, string]{MaxInstances: 100_000})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = c.Close() })

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < 50_000; i++ {
		k := "k:" + strconv.Itoa(i)
		c.Set(k, "v")
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1 // hot keyspace (power of two for fast &-mask)

	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < readsPct {
				c.Get(k)
			} else {
				c.Set(k, "v")
			}
			i++
		}
	})
}

func BenchmarkCache_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkCache_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// Hit path of a wrapped constructor: key construction + lookup.
func BenchmarkWrap_Hit(b *testing.B) {
	f := MustWrap(func(n int) *client { return &client{} })
	f(1) // warm

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f(1)
	}
}

// Key construction cost for a typical argument list.
func BenchmarkCanonicalKeyer(b *testing.B) {
	k := CanonicalKeyer{}
	args := []any{"endpoint", 8080, map[string]any{"tls": true, "retries": 3}}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := k.Key(args); err != nil {
			b.Fatal(err)
		}
	}
}
