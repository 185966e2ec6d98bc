// Package vectormath holds the numeric primitive behind retrieval
// ranking.
package vectormath

import (
	"math"

	"github.com/tbadri/ragchat/internal/domain/fault"
)

// Cosine computes the cosine similarity dot(a,b)/(|a||b|) in [-1, 1].
// A zero-magnitude vector on either side yields 0, not an error, so
// ranking stays total. Mismatched lengths is a caller contract
// violation; the store-wide dimension invariant means the retriever
// never passes one.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fault.Errorf(fault.InvalidInput, "vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
