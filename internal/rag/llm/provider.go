package llm

import (
	"context"

	"github.com/tbadri/ragchat/internal/domain/model"
)

// Provider is the generation backend. Implementations classify every
// failure as one of Unauthorized, RateLimited, BadUpstreamRequest or
// UpstreamUnavailable before returning it.
type Provider interface {
	Generate(ctx context.Context, messages []model.Message) (string, error)
}
