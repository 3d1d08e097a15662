package benchmark_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/arbordb/arbor"
	"github.com/arbordb/arbor/testutil"
)

// ============================================================================
// Benchmark Configuration
// ============================================================================

// Standard dimensions used across benchmarks for consistency. KD-trees are
// a low-dimensional structure; dimLarge marks where pruning starts to fade.
const (
	dimSmall  = 2
	dimMedium = 8
	dimLarge  = 32
)

// Standard dataset sizes.
const (
	sizeSmall  = 1_000
	sizeMedium = 10_000
	sizeLarge  = 100_000
)

// Seed for deterministic benchmarks - enables reproducible comparisons.
const benchSeed = 42

// ============================================================================
// Benchmark Helpers
// ============================================================================

// OpenBenchForest creates a Forest on a throwaway directory with a budget
// large enough that nothing is evicted unless a benchmark shrinks it.
func OpenBenchForest(b *testing.B, optFns ...arbor.Option) *arbor.Forest {
	b.Helper()

	opts := append([]arbor.Option{
		arbor.WithDirectory(b.TempDir()),
		arbor.WithMaxMemoryBytes(8 << 30),
	}, optFns...)

	f, err := arbor.Open(opts...)
	if err != nil {
		b.Fatalf("open forest: %v", err)
	}
	b.Cleanup(func() { _ = f.Close() })

	return f
}

// SeedTree loads points into one tree and returns the dataset.
func SeedTree(b *testing.B, f *arbor.Forest, name string, size, dim int) [][]float64 {
	b.Helper()

	ctx := context.Background()
	rng := testutil.NewRNG(benchSeed)
	points := rng.UniformPoints(size, dim)
	for _, p := range points {
		if _, err := f.Insert(ctx, name, p); err != nil {
			b.Fatalf("seed %s: %v", name, err)
		}
	}

	return points
}

func dimLabel(dim int) string {
	return fmt.Sprintf("dim=%d", dim)
}

func sizeLabel(size int) string {
	return fmt.Sprintf("size=%d", size)
}
