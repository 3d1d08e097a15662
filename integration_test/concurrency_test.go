package integration_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/arbordb/arbor"
	"github.com/arbordb/arbor/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestConcurrent_MixedLoad(t *testing.T) {
	const (
		numTrees  = 4
		numPoints = 25
		dim       = 2
		seed      = 7
	)

	// Room for half the trees keeps the cache evicting while readers and
	// writers race.
	f, err := arbor.Open(
		arbor.WithDirectory(t.TempDir()),
		arbor.WithMaxMemoryBytes(2*treeBytes(numPoints, dim)),
	)
	require.NoError(t, err)
	defer f.Close()

	rng := testutil.NewRNG(seed)
	datasets := make([][][]float64, numTrees)
	for i := range datasets {
		datasets[i] = rng.UniformPoints(numPoints, dim)
	}

	g, ctx := errgroup.WithContext(t.Context())
	for i := range numTrees {
		name := fmt.Sprintf("stream-%d", i)
		points := datasets[i]

		g.Go(func() error {
			for j, p := range points {
				res, err := f.Insert(ctx, name, p)
				if err != nil {
					return fmt.Errorf("insert %s[%d]: %w", name, j, err)
				}
				if res.Records != j+1 {
					return fmt.Errorf("%s: got %d records after insert %d", name, res.Records, j+1)
				}
			}
			return nil
		})

		g.Go(func() error {
			query := []float64{0.5, 0.5}
			for range 60 {
				_, err := f.Nearest(ctx, name, query, 1)
				// The reader may outrun the writer's first commit.
				if err != nil && !errors.Is(err, arbor.ErrNotFound) {
					return fmt.Errorf("query %s: %w", name, err)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Settled state: every tree is complete and answers exactly.
	for i := range numTrees {
		name := fmt.Sprintf("stream-%d", i)

		query := []float64{0.25, 0.75}
		got, err := f.Nearest(t.Context(), name, query, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)

		want := testutil.ExactKNN(datasets[i], query, 3)
		for j := range want {
			assert.Equal(t, want[j].Point, []float64(got[j]))
		}
	}

	st, err := f.Status(t.Context())
	require.NoError(t, err)
	require.Equal(t, numTrees, st.ActiveTrees)
	for _, ts := range st.Trees {
		assert.Equal(t, numPoints, ts.Records)
	}
}

func TestConcurrent_SameTreeInserts(t *testing.T) {
	const (
		writers   = 4
		perWriter = 10
	)

	f, err := arbor.Open(arbor.WithDirectory(t.TempDir()))
	require.NoError(t, err)
	defer f.Close()

	g, ctx := errgroup.WithContext(t.Context())
	for w := range writers {
		g.Go(func() error {
			for i := range perWriter {
				p := []float64{float64(w*100 + i), float64(w)}
				if _, err := f.Insert(ctx, "shared", p); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Writers serialize on the tree, so every insert survives.
	points, err := f.Nearest(t.Context(), "shared", []float64{0, 0}, writers*perWriter)
	require.NoError(t, err)
	require.Len(t, points, writers*perWriter)

	found := make(map[float64]bool, len(points))
	for _, p := range points {
		found[p[0]] = true
	}
	for w := range writers {
		for i := range perWriter {
			assert.True(t, found[float64(w*100+i)], "missing point from writer %d insert %d", w, i)
		}
	}
}
