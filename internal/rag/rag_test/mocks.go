package rag_test

import (
	"context"
	"sync"
	"time"

	"github.com/tbadri/ragchat/internal/domain/model"
)

// MockStore implements rag.Store in memory, recording appended turns
// so tests can assert persistence order.
type MockStore struct {
	mu    sync.Mutex
	Turns []model.Turn

	OnCreateDocument func(ctx context.Context, name string) (string, error)
	OnAddChunks      func(ctx context.Context, documentId string, chunks []model.Chunk) error
	OnAllChunks      func(ctx context.Context) ([]model.Chunk, error)
	OnDeleteDocument func(ctx context.Context, id string) error
	OnAppendTurn     func(ctx context.Context, conversationId string, role model.Role, content string) (model.Turn, error)
	OnRecentTurns    func(ctx context.Context, conversationId string, limit int) ([]model.Turn, error)
	OnCounts         func(ctx context.Context) (model.Counts, error)
}

func (m *MockStore) CreateDocument(ctx context.Context, name string) (string, error) {
	if m.OnCreateDocument != nil {
		return m.OnCreateDocument(ctx, name)
	}
	return "doc-1", nil
}

func (m *MockStore) AddChunks(ctx context.Context, documentId string, chunks []model.Chunk) error {
	if m.OnAddChunks != nil {
		return m.OnAddChunks(ctx, documentId, chunks)
	}
	return nil
}

func (m *MockStore) AllChunks(ctx context.Context) ([]model.Chunk, error) {
	if m.OnAllChunks != nil {
		return m.OnAllChunks(ctx)
	}
	return nil, nil
}

func (m *MockStore) DeleteDocument(ctx context.Context, id string) error {
	if m.OnDeleteDocument != nil {
		return m.OnDeleteDocument(ctx, id)
	}
	return nil
}

func (m *MockStore) AppendTurn(ctx context.Context, conversationId string, role model.Role, content string) (model.Turn, error) {
	if m.OnAppendTurn != nil {
		return m.OnAppendTurn(ctx, conversationId, role, content)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	turn := model.Turn{
		Id:             int64(len(m.Turns) + 1),
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	m.Turns = append(m.Turns, turn)
	return turn, nil
}

func (m *MockStore) RecentTurns(ctx context.Context, conversationId string, limit int) ([]model.Turn, error) {
	if m.OnRecentTurns != nil {
		return m.OnRecentTurns(ctx, conversationId, limit)
	}
	return nil, nil
}

func (m *MockStore) Counts(ctx context.Context) (model.Counts, error) {
	if m.OnCounts != nil {
		return m.OnCounts(ctx)
	}
	return model.Counts{}, nil
}

func (m *MockStore) AppendedTurns() []model.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Turn, len(m.Turns))
	copy(out, m.Turns)
	return out
}

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

// MockLLM implements llm.Provider, capturing the assembled messages.
type MockLLM struct {
	mu       sync.Mutex
	Received [][]model.Message

	OnGenerate func(ctx context.Context, messages []model.Message) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, messages []model.Message) (string, error) {
	m.mu.Lock()
	m.Received = append(m.Received, messages)
	m.mu.Unlock()
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, messages)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) LastMessages() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Received) == 0 {
		return nil
	}
	return m.Received[len(m.Received)-1]
}

// MockCache implements rag.AnswerCache
type MockCache struct {
	OnGetCachedAnswer func(ctx context.Context, queryVector []float32) (string, bool)
	OnSaveToCache     func(ctx context.Context, queryVector []float32, answer string) error
}

func (m *MockCache) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, queryVector)
	}
	return "", false
}

func (m *MockCache) SaveToCache(ctx context.Context, queryVector []float32, answer string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, queryVector, answer)
	}
	return nil
}
