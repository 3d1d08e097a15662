package queue

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue(t *testing.T) {
	t.Run("MinOrder", func(t *testing.T) {
		pq := &PriorityQueue{Order: false}
		heap.Init(pq)

		heap.Push(pq, &Item{Point: []float64{3}, Distance: 3.0})
		heap.Push(pq, &Item{Point: []float64{1}, Distance: 1.0})
		heap.Push(pq, &Item{Point: []float64{2}, Distance: 2.0})

		require.Equal(t, 3, pq.Len())
		assert.Equal(t, 1.0, pq.Top().Distance)

		got := make([]float64, 0, 3)
		for pq.Len() > 0 {
			item := heap.Pop(pq).(*Item)
			got = append(got, item.Distance)
		}
		assert.Equal(t, []float64{1.0, 2.0, 3.0}, got)
	})

	t.Run("MaxOrder", func(t *testing.T) {
		pq := &PriorityQueue{Order: true}
		heap.Init(pq)

		heap.Push(pq, &Item{Distance: 1.0})
		heap.Push(pq, &Item{Distance: 3.0})
		heap.Push(pq, &Item{Distance: 2.0})

		assert.Equal(t, 3.0, pq.Top().Distance)

		got := make([]float64, 0, 3)
		for pq.Len() > 0 {
			item := heap.Pop(pq).(*Item)
			got = append(got, item.Distance)
		}
		assert.Equal(t, []float64{3.0, 2.0, 1.0}, got)
	})

	t.Run("PopEmpty", func(t *testing.T) {
		pq := &PriorityQueue{}
		assert.Nil(t, pq.Pop())
	})

	t.Run("BoundedReplace", func(t *testing.T) {
		// Max-order queue capped at k: replacing the worst keeps the k closest.
		pq := &PriorityQueue{Order: true}
		heap.Init(pq)

		k := 2
		for _, d := range []float64{5.0, 3.0, 4.0, 1.0} {
			if pq.Len() < k {
				heap.Push(pq, &Item{Distance: d})
				continue
			}
			if d < pq.Top().Distance {
				heap.Pop(pq)
				heap.Push(pq, &Item{Distance: d})
			}
		}

		require.Equal(t, 2, pq.Len())
		assert.Equal(t, 3.0, pq.Top().Distance)
	})
}
