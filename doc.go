// Package arbor provides a disk-backed KD-tree index for Go.
//
// Arbor manages a forest of named KD-trees. Each tree supports point
// insertion and exact k-nearest-neighbor search under squared Euclidean
// distance, is persisted as a single binary blob, and moves between memory
// and storage under an LRU byte budget. Inserts are write-through: the
// updated tree is durable before the call returns, so evicting a resident
// tree never loses data.
//
// # Quick Start
//
// Local mode:
//
//	ctx := context.Background()
//	forest, _ := arbor.Open(arbor.WithDirectory("./data"))
//	defer forest.Close()
//
//	forest.Insert(ctx, "embeddings", []float64{0.1, 0.2, 0.3})
//	points, _ := forest.Nearest(ctx, "embeddings", []float64{0.1, 0.2, 0.25}, 5)
//
// Cloud mode:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("trees/"))
//	forest, _ := arbor.Open(arbor.WithStore(s3Store))
//
// # Memory Management
//
// The resident-memory budget is configured with WithMaxMemoryBytes. When
// the budget is exceeded, least-recently-used trees are dropped from
// memory; the next access reloads them transparently. A tree pinned by an
// in-flight operation is never evicted.
//
// # Errors
//
// Operations report a small taxonomy of errors: ErrNotFound, ErrInvalidK,
// ErrTreeName, ErrLimitExceeded, ErrCorruptData, ErrIO, and the typed
// ErrDimensionMismatch. Test with errors.Is and errors.As.
package arbor
