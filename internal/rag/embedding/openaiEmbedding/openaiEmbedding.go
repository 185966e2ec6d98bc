package openaiEmbedding

import (
	"context"
	"errors"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/httpclient"
	"github.com/tbadri/ragchat/internal/rag/embedding"
	"github.com/tbadri/ragchat/pkg/logging"
)

var logger *logging.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api   openai.Client
	model string
	dim   int64
}

// GetOpenAIEmbeddingClient returns the process-wide embedding client.
func GetOpenAIEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logging.NewLogger("openai_embedding")
		if apikey == "" {
			logger.Error("OpenAI API key is empty, embedding client not created")
			return
		}
		embeddingClient = &client{
			api: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithHTTPClient(httpclient.Pooled()),
			),
			model: modelName,
			dim:   int64(config.EmbeddingDimension),
		}
		logger.Info("OpenAI embedding client created", "model", modelName)
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

	res, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Dimensions: openai.Int(c.dim),
	})
	if err != nil {
		log.Error("Error getting embeddings from OpenAI", "error", err)
		return nil, classifyEmbedding(err)
	}
	if len(res.Data) != len(texts) {
		return nil, fault.Errorf(fault.EmbeddingUnavailable,
			"embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(res.Data))
	}

	// the API hands back float64, the store speaks float32
	vectors := make([][]float32, len(res.Data))
	for i, d := range res.Data {
		v := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			v[j] = float32(f)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func classifyEmbedding(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
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
