// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package docstore

import "math"

// normalize returns the L2-normalized copy of v; a zero vector is
// returned unchanged since it has no direction to normalize.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	norm := math.Sqrt(sumSquares)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// cosineSimilarity assumes both vectors are already L2-normalized, so it
// reduces to a plain dot product.
func cosineSimilarity(a, b []float32) float64 {
	var dot float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
