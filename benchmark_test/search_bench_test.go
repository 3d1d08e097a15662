package benchmark_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/arbordb/arbor/kdtree"
	"github.com/arbordb/arbor/testutil"
)

// ============================================================================
// Search Benchmarks
// ============================================================================

// BenchmarkNearest measures query latency through the full service path
// on a resident tree.
func BenchmarkNearest(b *testing.B) {
	dims := []int{dimSmall, dimMedium, dimLarge}

	for _, dim := range dims {
		b.Run(dimLabel(dim), func(b *testing.B) {
			f := OpenBenchForest(b)
			SeedTree(b, f, "bench", sizeSmall, dim)

			rng := testutil.NewRNG(benchSeed + 1)
			queries := rng.UniformPoints(1024, dim)

			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := f.Nearest(ctx, "bench", queries[i%len(queries)], 10); err != nil {
					b.Fatal(err)
				}
			}

			b.StopTimer()
			b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "queries/sec")
		})
	}
}

// BenchmarkNearestK sweeps the neighbor count on a fixed tree.
func BenchmarkNearestK(b *testing.B) {
	ks := []int{1, 10, 100}

	f := OpenBenchForest(b)
	SeedTree(b, f, "bench", sizeSmall, dimMedium)

	rng := testutil.NewRNG(benchSeed + 1)
	queries := rng.UniformPoints(1024, dimMedium)

	for _, k := range ks {
		b.Run("k="+strconv.Itoa(k), func(b *testing.B) {
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := f.Nearest(ctx, "bench", queries[i%len(queries)], k); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkTreeKNNSearch isolates the in-memory search from the service
// path, across dataset sizes.
func BenchmarkTreeKNNSearch(b *testing.B) {
	sizes := []int{sizeSmall, sizeMedium, sizeLarge}

	for _, size := range sizes {
		b.Run(sizeLabel(size), func(b *testing.B) {
			t := kdtree.New()

			rng := testutil.NewRNG(benchSeed)
			for _, p := range rng.UniformPoints(size, dimMedium) {
				if err := t.Insert(kdtree.Point(p)); err != nil {
					b.Fatal(err)
				}
			}
			queries := rng.UniformPoints(1024, dimMedium)

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := t.KNNSearch(kdtree.Point(queries[i%len(queries)]), 10); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
