package googleEmbedding

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/rag/embedding"
	"github.com/tbadri/ragchat/pkg/logging"
)

var logger *logging.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = int32(config.EmbeddingDimension)

type client struct {
	genAi *genai.Client
	model string
}

// GetGoogleEmbeddingClient is the alternate embedding backend for the
// "gemini" provider selection.
func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logging.NewLogger("google_embedding")
		c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
		if err != nil {
			logger.Error("Error creating Google Embedding client:", "error", err)
			return
		}
		embeddingClient = &client{genAi: c, model: modelName}
		logger.Info("Google embedding client created", "model", modelName)
	})

	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fault.Errorf(fault.EmbeddingUnavailable, "no embedding data returned")
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, contents,
		&genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
	if err != nil {
		log.Error("Error getting embeddings from Google", "error", err)
		return nil, classifyEmbedding(err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fault.Errorf(fault.EmbeddingUnavailable,
			"embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

func classifyEmbedding(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return fault.New(fault.Unauthorized, err)
		case 429:
			return fault.New(fault.RateLimited, err)
		case 400, 404, 422:
			return fault.New(fault.BadUpstreamRequest, err)
		}
	}
	return fault.New(fault.EmbeddingUnavailable, err)
}
