// Package retriever ranks stored chunks against a query vector.
//
// This is a deliberate brute-force O(chunks x dimension) scan per
// query: no index, query latency traded for simplicity. Callers that
// need sub-linear latency at scale should swap in an indexed
// implementation behind the same TopK contract rather than patch
// around this one.
package retriever

import (
	"context"
	"sort"

	"github.com/tbadri/ragchat/internal/domain/model"
	"github.com/tbadri/ragchat/internal/rag/vectormath"
	"github.com/tbadri/ragchat/pkg/logging"
)

// ChunkSource is the full-scan read the retriever depends on.
type ChunkSource interface {
	AllChunks(ctx context.Context) ([]model.Chunk, error)
}

// Match is one scored fragment.
type Match struct {
	Content string
	Score   float64
}

type Retriever struct {
	source ChunkSource
	logger *logging.Logger
}

func New(source ChunkSource) *Retriever {
	return &Retriever{
		source: source,
		logger: logging.NewLogger("Retriever"),
	}
}

// TopK returns at most k fragments ordered by descending similarity.
// Ties keep scan order (stable sort). An empty store yields an empty
// slice, not an error.
func (r *Retriever) TopK(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	chunks, err := r.source.AllChunks(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(chunks))
	for _, c := range chunks {
		score, err := vectormath.Cosine(query, c.Embedding)
		if err != nil {
			// can only happen if the store-wide dimension invariant broke
			return nil, err
		}
		matches = append(matches, Match{Content: c.Content, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	r.logger.Debug("retrieval scan done", "candidates", len(chunks), "returned", len(matches))
	return matches, nil
}

// Contents strips scores, keeping rank order.
func Contents(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Content
	}
	return out
}
