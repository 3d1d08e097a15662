// Package kdtree provides an implementation of a k-d tree for exact
// nearest neighbor search over float64 points.
package kdtree

import (
	"container/heap"
	"errors"
	"fmt"
	"slices"

	"github.com/arbordb/arbor/metric"
	"github.com/arbordb/arbor/queue"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyPoint is returned when a point has no coordinates.
	ErrEmptyPoint = errors.New("point has no coordinates")
)

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension is a named error type for an invalid tree dimension.
type ErrInvalidDimension struct {
	Dimension int
}

// Error returns the error message for an invalid dimension.
func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// Point is a position in the indexed vector space.
type Point []float64

// Clone returns an independent copy of the point.
func (p Point) Clone() Point {
	return Point(slices.Clone(p))
}

// Node is a single tree node. The splitting axis is not stored; it is
// derived from the node depth (depth modulo dimension).
type Node struct {
	Point Point
	Left  *Node
	Right *Node
}

// Tree is a k-d tree. It is append-only: points can be inserted but never
// removed, and the tree is never rebalanced. Tree is not safe for concurrent
// use; callers serialize access.
type Tree struct {
	root      *Node
	dimension int
	count     int
}

// New creates an empty tree. The dimensionality is locked in by the first
// inserted point.
func New() *Tree {
	return &Tree{}
}

// Rebuild constructs a tree around an existing node structure, validating
// that every node matches the given dimension. The node structure is adopted
// as-is, not copied.
func Rebuild(dimension int, root *Node) (*Tree, error) {
	if dimension < 0 || (root != nil && dimension == 0) {
		return nil, &ErrInvalidDimension{Dimension: dimension}
	}

	count := 0
	var walk func(n *Node) error
	walk = func(n *Node) error {
		if n == nil {
			return nil
		}
		if len(n.Point) != dimension {
			return &ErrDimensionMismatch{Expected: dimension, Actual: len(n.Point)}
		}
		count++
		if err := walk(n.Left); err != nil {
			return err
		}
		return walk(n.Right)
	}
	if err := walk(root); err != nil {
		return nil, err
	}

	return &Tree{root: root, dimension: dimension, count: count}, nil
}

// Insert adds a point to the tree. The first insert locks in the tree
// dimensionality; later inserts must match it. The tree stores its own copy
// of the point.
func (t *Tree) Insert(p Point) error {
	if len(p) == 0 {
		return ErrEmptyPoint
	}

	if t.dimension == 0 {
		t.dimension = len(p)
	} else if len(p) != t.dimension {
		return &ErrDimensionMismatch{Expected: t.dimension, Actual: len(p)}
	}

	cp := p.Clone()
	if t.root == nil {
		t.root = &Node{Point: cp}
	} else {
		t.insert(t.root, cp, 0)
	}

	t.count++
	return nil
}

func (t *Tree) insert(n *Node, p Point, depth int) {
	axis := depth % t.dimension
	if p[axis] < n.Point[axis] {
		if n.Left == nil {
			n.Left = &Node{Point: p}
			return
		}
		t.insert(n.Left, p, depth+1)
		return
	}
	if n.Right == nil {
		n.Right = &Node{Point: p}
		return
	}
	t.insert(n.Right, p, depth+1)
}

// Result represents a single nearest neighbor.
type Result struct {
	// Point is a copy of the matched point.
	Point Point

	// Distance is the squared L2 distance between the query and the point.
	Distance float64
}

// KNNSearch returns the k nearest neighbors of q ordered from nearest to
// farthest. If the tree holds fewer than k points, all points are returned.
func (t *Tree) KNNSearch(q Point, k int) ([]Result, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if t.root == nil {
		return []Result{}, nil
	}
	if len(q) != t.dimension {
		return nil, &ErrDimensionMismatch{Expected: t.dimension, Actual: len(q)}
	}

	// Max-order queue bounded to k: the top element is the farthest candidate
	// kept so far and the first to be replaced.
	candidates := &queue.PriorityQueue{Order: true}
	if err := t.search(t.root, q, 0, k, candidates); err != nil {
		return nil, err
	}

	results := make([]Result, candidates.Len())
	for i := len(results) - 1; i >= 0; i-- {
		item := heap.Pop(candidates).(*queue.Item)
		results[i] = Result{Point: Point(item.Point).Clone(), Distance: item.Distance}
	}
	return results, nil
}

func (t *Tree) search(n *Node, q Point, depth, k int, candidates *queue.PriorityQueue) error {
	if n == nil {
		return nil
	}

	dist, err := metric.SquaredL2(q, n.Point)
	if err != nil {
		return err
	}

	if candidates.Len() < k {
		heap.Push(candidates, &queue.Item{Point: n.Point, Distance: dist})
	} else if dist < candidates.Top().Distance {
		heap.Pop(candidates)
		heap.Push(candidates, &queue.Item{Point: n.Point, Distance: dist})
	}

	axis := depth % t.dimension
	diff := q[axis] - n.Point[axis]
	near, far := n.Left, n.Right
	if diff >= 0 {
		near, far = n.Right, n.Left
	}

	if err := t.search(near, q, depth+1, k, candidates); err != nil {
		return err
	}

	// The far side can only contain a closer point if the squared distance to
	// the splitting plane beats the farthest kept candidate, or the candidate
	// set is not full yet.
	if candidates.Len() < k || diff*diff < candidates.Top().Distance {
		return t.search(far, q, depth+1, k, candidates)
	}
	return nil
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	return t.root
}

// Len returns the number of points in the tree.
func (t *Tree) Len() int {
	return t.count
}

// Dimension returns the locked-in dimensionality, or 0 before the first insert.
func (t *Tree) Dimension() int {
	return t.dimension
}

// nodeOverheadBytes approximates the per-node cost beyond the raw
// coordinates: the node struct, the point slice header and allocator slack.
const nodeOverheadBytes = 64

// MemoryBytes estimates the resident memory footprint of the tree.
func (t *Tree) MemoryBytes() int64 {
	return int64(t.count) * (int64(t.dimension)*8 + nodeOverheadBytes)
}
