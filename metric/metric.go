// Package metric provides distance kernels for float64 vectors.
package metric

import "errors"

// ErrSizeMismatch is returned when two vectors have different lengths.
var ErrSizeMismatch = errors.New("vector sizes do not match")

// SquaredL2 calculates the squared L2 distance between two float64 slices.
// The square root is never taken; squared distances preserve ordering.
func SquaredL2(v1, v2 []float64) (float64, error) {
	if len(v1) != len(v2) {
		return 0, ErrSizeMismatch
	}

	var sum float64
	for i := range v1 {
		d := v1[i] - v2[i]
		sum += d * d
	}
	return sum, nil
}
