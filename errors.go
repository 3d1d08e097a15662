package arbor

import (
	"context"
	"errors"
	"fmt"

	"github.com/arbordb/arbor/blobstore"
	"github.com/arbordb/arbor/codec"
	"github.com/arbordb/arbor/kdtree"
)

var (
	// ErrNotFound is returned when a tree exists neither in memory nor in
	// the store.
	ErrNotFound = errors.New("tree not found")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrTreeName is returned when a tree name is not a safe storage key.
	ErrTreeName = errors.New("invalid tree name")

	// ErrEmptyPoint is returned when a point has no coordinates.
	ErrEmptyPoint = errors.New("point has no coordinates")

	// ErrLimitExceeded is returned when a request exceeds the configured
	// dimension or k limits.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrCorruptData is returned when persisted bytes fail to parse into a
	// valid tree. Not recoverable for that tree in this process.
	ErrCorruptData = errors.New("corrupt tree data")

	// ErrIO is returned when a storage read or write fails.
	ErrIO = errors.New("io failure")

	// ErrClosed is returned when operations are attempted on a closed Forest.
	ErrClosed = errors.New("forest is closed")
)

// ErrDimensionMismatch indicates a point/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError normalizes internal errors into the service taxonomy at
// the facade boundary. Anything from the storage path that has no more
// specific class reports as ErrIO.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already service-level.
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidK) ||
		errors.Is(err, ErrTreeName) || errors.Is(err, ErrEmptyPoint) ||
		errors.Is(err, ErrLimitExceeded) || errors.Is(err, ErrClosed) {
		return err
	}
	var dm *ErrDimensionMismatch
	if errors.As(err, &dm) {
		return err
	}

	// Cancellation belongs to the caller, not the taxonomy.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Dimension and argument normalization.
	var kdm *kdtree.ErrDimensionMismatch
	if errors.As(err, &kdm) {
		return &ErrDimensionMismatch{Expected: kdm.Expected, Actual: kdm.Actual, cause: err}
	}
	if errors.Is(err, kdtree.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, kdtree.ErrEmptyPoint) {
		return fmt.Errorf("%w: %w", ErrEmptyPoint, err)
	}

	if errors.Is(err, codec.ErrCorruptData) {
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	return fmt.Errorf("%w: %w", ErrIO, err)
}
