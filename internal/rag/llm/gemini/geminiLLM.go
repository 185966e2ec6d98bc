package gemini

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/model"
	"github.com/tbadri/ragchat/internal/rag/llm"
	"github.com/tbadri/ragchat/pkg/logging"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logging.Logger
var geminiClient *llmClient
var once sync.Once

// GetGeminiClient is the alternate generation backend, selected by
// config when GenerationProvider is "gemini".
func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logging.NewLogger("llm_gemini")
		c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
		if err != nil {
			logger.Error("Error creating Gemini client:", "error", err)
			return
		}
		geminiClient = &llmClient{client: c, modelName: modelName}
		logger.Info("Gemini client created", "model", modelName)
	})

	if geminiClient == nil {
		return nil
	}
	return geminiClient
}

func (c *llmClient) Generate(ctx context.Context, messages []model.Message) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	contents, systemText := toContents(messages)

	var contentConfig *genai.GenerateContentConfig
	if systemText != "" {
		contentConfig = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: systemText}},
			},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", classifyGeneration(err)
	}

	return result.Text(), nil
}

// toContents maps roles onto Gemini's scheme: system messages become
// the system instruction, assistant turns become role "model".
func toContents(messages []model.Message) ([]*genai.Content, string) {
	var systemText string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			systemText = m.Content
		case model.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, systemText
}

func classifyGeneration(err error) error {
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
	return fault.New(fault.UpstreamUnavailable, err)
}
