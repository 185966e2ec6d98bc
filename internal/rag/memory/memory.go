// Package memory assembles recent conversation history into the
// message shape the generation backend consumes. Thin composition over
// the conversation store; no state of its own.
package memory

import (
	"context"

	"github.com/tbadri/ragchat/internal/domain/model"
)

// TurnSource is the conversation-store read memory depends on.
type TurnSource interface {
	RecentTurns(ctx context.Context, conversationId string, limit int) ([]model.Turn, error)
}

type Memory struct {
	source TurnSource
}

func New(source TurnSource) *Memory {
	return &Memory{source: source}
}

// Recent returns up to limit prior turns, oldest first, as messages.
// An unknown conversation yields an empty slice.
func (m *Memory) Recent(ctx context.Context, conversationId string, limit int) ([]model.Message, error) {
	turns, err := m.source.RecentTurns(ctx, conversationId, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, len(turns))
	for i, t := range turns {
		messages[i] = model.Message{Role: t.Role, Content: t.Content}
	}
	return messages, nil
}
