package integration_test

import (
	"fmt"
	"testing"

	"github.com/arbordb/arbor"
	"github.com/arbordb/arbor/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// treeBytes mirrors the resident cost model: count*(dim*8+64).
func treeBytes(count, dim int) int64 {
	return int64(count) * int64(dim*8+64)
}

func TestEviction_ExactnessUnderChurn(t *testing.T) {
	const (
		numTrees  = 8
		numPoints = 30
		dim       = 3
		k         = 4
		seed      = 42
	)

	// Budget for two trees, so building and querying eight forces
	// constant evict-and-reload traffic.
	budget := 2 * treeBytes(numPoints, dim)

	f, err := arbor.Open(
		arbor.WithDirectory(t.TempDir()),
		arbor.WithMaxMemoryBytes(budget),
	)
	require.NoError(t, err)
	defer f.Close()

	rng := testutil.NewRNG(seed)
	datasets := make(map[string][][]float64, numTrees)

	for i := range numTrees {
		name := fmt.Sprintf("tree-%02d", i)
		points := rng.UniformPoints(numPoints, dim)
		datasets[name] = points

		for _, p := range points {
			_, err := f.Insert(t.Context(), name, p)
			require.NoError(t, err)
		}
	}

	// Every tree answers exactly, resident or reloaded.
	for name, points := range datasets {
		for range 5 {
			query := make([]float64, dim)
			rng.FillUniform(query)

			got, err := f.Nearest(t.Context(), name, query, k)
			require.NoError(t, err)
			require.Len(t, got, k)

			want := testutil.ExactKNN(points, query, k)
			for i := range want {
				assert.Equal(t, want[i].Point, []float64(got[i]))
			}
		}
	}

	assert.LessOrEqual(t, f.MemoryUsage(), f.MemoryBudget())

	_, misses, evictions := f.CacheStats()
	assert.Positive(t, misses)
	assert.Positive(t, evictions)
}

func TestEviction_SingleTreeOverBudget(t *testing.T) {
	f, err := arbor.Open(
		arbor.WithDirectory(t.TempDir()),
		arbor.WithMaxMemoryBytes(100),
	)
	require.NoError(t, err)
	defer f.Close()

	// 800 bytes of tree against a 100 byte budget: the tree being served
	// is never its own victim, so it still works.
	for i := range 10 {
		_, err := f.Insert(t.Context(), "big", []float64{float64(i), 0})
		require.NoError(t, err)
	}
	assert.Greater(t, f.MemoryUsage(), f.MemoryBudget())

	points, err := f.Nearest(t.Context(), "big", []float64{3.1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 0}, []float64(points[0]))

	// Touching another tree gives the evictor a chance to reclaim it.
	_, err = f.Insert(t.Context(), "tiny", []float64{0, 0})
	require.NoError(t, err)

	_, _, evictions := f.CacheStats()
	assert.Positive(t, evictions)

	// The evicted tree reloads on demand with nothing lost.
	points, err = f.Nearest(t.Context(), "big", []float64{9, 0}, 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, []float64{9, 0}, []float64(points[0]))
	assert.Equal(t, []float64{8, 0}, []float64(points[1]))
}

func TestEviction_StatusTracksResidency(t *testing.T) {
	// Budget for exactly one tree.
	budget := treeBytes(1, 2)

	f, err := arbor.Open(
		arbor.WithDirectory(t.TempDir()),
		arbor.WithMaxMemoryBytes(budget),
	)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Insert(t.Context(), "first", []float64{1, 1})
	require.NoError(t, err)
	_, err = f.Insert(t.Context(), "second", []float64{2, 2})
	require.NoError(t, err)

	st, err := f.Status(t.Context())
	require.NoError(t, err)
	require.Equal(t, 2, st.ActiveTrees)

	byName := make(map[string]arbor.TreeStatus, len(st.Trees))
	for _, ts := range st.Trees {
		byName[ts.Name] = ts
	}

	assert.False(t, byName["first"].InMemory)
	assert.True(t, byName["second"].InMemory)

	// Both keep their records either way.
	assert.Equal(t, 1, byName["first"].Records)
	assert.Equal(t, 1, byName["second"].Records)
}
