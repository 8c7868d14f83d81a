// Command bench runs a synthetic workload against a wrapped constructor
// and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vedro-universe/shared-resource/metrics/prom"
	"github.com/vedro-universe/shared-resource/resource"
)

func main() {
	// ---- Flags ----
	var (
		maxInstances  = flag.Int("max", 100_000, "instance cap for the wrapped constructor")
		typeSensitive = flag.Bool("typed", false, "type-sensitive cache keys")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		keys     = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS    = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV    = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		ctorCost = flag.Duration("ctor_cost", 0, "simulated constructor latency")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := prom.New(nil, "sharedres", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Wrapped constructor under test ----
	var constructions uint64
	ctorCostVal := *ctorCost
	opts := []resource.WrapOption{
		resource.WithMaxInstances(*maxInstances),
		resource.WithMetrics(metrics),
	}
	if *typeSensitive {
		opts = append(opts, resource.WithTypeSensitive())
	}
	newResource, err := resource.Wrap(func(k string) string {
		atomic.AddUint64(&constructions, 1)
		if ctorCostVal > 0 {
			time.Sleep(ctorCostVal)
		}
		return "v:" + k
	}, opts...)
	if err != nil {
		log.Fatalf("wrap: %v", err)
	}

	// ---- Snapshot flags for goroutines ----
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				k := "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
				if got := newResource(k); got != "v:"+k {
					log.Fatalf("wrong value for %s: %q", k, got)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	ctors := atomic.LoadUint64(&constructions)

	reuseRate := 0.0
	if ops > 0 {
		reuseRate = float64(ops-ctors) / float64(ops) * 100
	}

	fmt.Printf("max=%d typed=%v workers=%d keys=%d dur=%v seed=%d\n",
		*maxInstances, *typeSensitive, workersN, *keys, elapsed, seedBase)
	fmt.Printf("calls=%d (%.0f calls/s)  constructions=%d  reuse-rate=%.2f%%\n",
		ops, float64(ops)/elapsed.Seconds(), ctors, reuseRate)
}
