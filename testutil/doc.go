// Package testutil provides testing utilities for Arbor.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random points and for computing
// exact nearest neighbors by exhaustive scan as ground truth.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	points := rng.UniformPoints(1000, 8) // 1000 points in [0,1)^8
//
// # Exact Search (Ground Truth)
//
//	neighbors := testutil.ExactKNN(points, query, k)
package testutil
