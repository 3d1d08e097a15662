package benchmark_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/arbordb/arbor"
	"github.com/arbordb/arbor/testutil"
)

// ============================================================================
// Cache Benchmarks
// ============================================================================

// BenchmarkCacheHit measures a query served entirely from memory.
func BenchmarkCacheHit(b *testing.B) {
	f := OpenBenchForest(b)
	SeedTree(b, f, "hot", sizeSmall, dimMedium)

	rng := testutil.NewRNG(benchSeed + 1)
	queries := rng.UniformPoints(1024, dimMedium)

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := f.Nearest(ctx, "hot", queries[i%len(queries)], 1); err != nil {
			b.Fatal(err)
		}
	}

	b.StopTimer()
	hits, _, _ := f.CacheStats()
	b.ReportMetric(float64(hits)/float64(b.N), "hits/op")
}

// BenchmarkCacheChurn forces every access to load from disk: the budget
// holds one tree and the workload alternates between two. The number is
// the full miss cost of read, decode, and evict.
func BenchmarkCacheChurn(b *testing.B) {
	const (
		numPoints = 200
		dim       = dimMedium
	)

	budget := int64(numPoints) * int64(dim*8+64)
	f := OpenBenchForest(b, arbor.WithMaxMemoryBytes(budget))

	names := []string{"churn-a", "churn-b"}
	for _, name := range names {
		SeedTree(b, f, name, numPoints, dim)
	}

	rng := testutil.NewRNG(benchSeed + 1)
	queries := rng.UniformPoints(1024, dim)

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := f.Nearest(ctx, names[i%2], queries[i%len(queries)], 1); err != nil {
			b.Fatal(err)
		}
	}

	b.StopTimer()
	_, misses, _ := f.CacheStats()
	b.ReportMetric(float64(misses)/float64(b.N), "misses/op")
}

// BenchmarkConcurrentQueries measures parallel read throughput across
// resident trees.
func BenchmarkConcurrentQueries(b *testing.B) {
	const numTrees = 4

	f := OpenBenchForest(b)
	for i := range numTrees {
		SeedTree(b, f, fmt.Sprintf("par-%d", i), sizeSmall, dimMedium)
	}

	rng := testutil.NewRNG(benchSeed + 1)
	queries := rng.UniformPoints(1024, dimMedium)

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			name := fmt.Sprintf("par-%d", i%numTrees)
			if _, err := f.Nearest(ctx, name, queries[i%len(queries)], 10); err != nil {
				b.Fatal(err)
			}
			i++
		}
	})
}
