// Package vectormath provides the vector primitives used for semantic
// comparison of embeddings.
package vectormath

import "math"

// CosineSimilarity computes the cosine of the angle between two
// equal-length vectors. Mismatched lengths, empty vectors, and
// zero-magnitude vectors all yield 0: absence of evidence is not an
// error in this domain.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// ClampedSimilarity is CosineSimilarity clamped to [0, 1]. Negative
// cosine carries no useful signal when comparing submissions, so it is
// treated as zero similarity.
func ClampedSimilarity(a, b []float64) float64 {
	return Clamp(CosineSimilarity(a, b), 0, 1)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
