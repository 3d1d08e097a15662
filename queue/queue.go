// Package queue provides the candidate priority queue used by k-nearest-neighbor search.
package queue

import "container/heap"

// Compile time check to ensure PriorityQueue satisfies the heap interface.
var _ heap.Interface = (*PriorityQueue)(nil)

// Item represents a candidate in the priority queue.
type Item struct {
	Point    []float64 // Point is the candidate point.
	Distance float64   // Distance is the priority of the item in the queue.
	Index    int       // Index is maintained by the heap.Interface methods.
}

// PriorityQueue implements heap.Interface and holds candidate Items.
type PriorityQueue struct {
	Order bool    // Order false keeps the smallest distance on top, true the largest.
	Items []*Item // Items contains the elements of the priority queue.
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.Items) }

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue) Less(i, j int) bool {
	if !pq.Order {
		return pq.Items[i].Distance < pq.Items[j].Distance
	}
	return pq.Items[i].Distance > pq.Items[j].Distance
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.Items[i], pq.Items[j] = pq.Items[j], pq.Items[i]
	pq.Items[i].Index, pq.Items[j].Index = i, j
}

// Push adds x to the priority queue.
func (pq *PriorityQueue) Push(x any) {
	item, _ := x.(*Item)
	item.Index = len(pq.Items)
	pq.Items = append(pq.Items, item)
}

// Pop removes and returns the top element from the priority queue.
func (pq *PriorityQueue) Pop() any {
	if len(pq.Items) == 0 {
		return nil
	}

	old := pq.Items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // Avoid memory leak
	item.Index = -1 // For safety
	pq.Items = old[:n-1]

	return item
}

// Top returns the top element of the priority queue without removing it.
// The queue must not be empty.
func (pq *PriorityQueue) Top() *Item {
	return pq.Items[0]
}
