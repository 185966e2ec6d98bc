package openai

import (
	"context"
	"errors"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/model"
	"github.com/tbadri/ragchat/internal/httpclient"
	"github.com/tbadri/ragchat/internal/rag/llm"
	"github.com/tbadri/ragchat/pkg/logging"
)

type llmClient struct {
	client    openai.Client
	modelName string
}

var logger *logging.Logger
var openaiClient *llmClient
var once sync.Once

// GetOpenAIClient returns the process-wide generation client. One
// long-lived handle, lazily initialized, reused across all requests.
func GetOpenAIClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logging.NewLogger("llm_openai")
		if apikey == "" {
			logger.Error("OpenAI API key is empty, generation client not created")
			return
		}
		openaiClient = &llmClient{
			client: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithHTTPClient(httpclient.Pooled()),
			),
			modelName: modelName,
		}
		logger.Info("OpenAI generation client created", "model", modelName)
	})

	if openaiClient == nil {
		return nil
	}
	return openaiClient
}

func (c *llmClient) Generate(ctx context.Context, messages []model.Message) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.modelName),
		Messages: toChatMessages(messages),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Error("OpenAI generation failed", "error", err)
		return "", classifyGeneration(err)
	}

	// an empty completion is an empty answer, never a nil downstream
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

func toChatMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// classifyGeneration maps an upstream failure onto the stable error
// taxonomy so the transport layer can tell our bug from their outage.
func classifyGeneration(err error) error {
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
	return fault.New(fault.UpstreamUnavailable, err)
}
