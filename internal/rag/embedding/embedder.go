package embedding

import "context"

// Embedder is the embedding backend: fixed output dimension for the
// lifetime of the store. Transport failures come back classified
// EmbeddingUnavailable; auth/quota/request failures keep their own
// classes so the caller can tell them apart.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}
