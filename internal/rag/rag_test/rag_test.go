package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/model"
	"github.com/tbadri/ragchat/internal/rag"
)

func newTestService(store *MockStore, em *MockEmbedder, l *MockLLM, c *MockCache) rag.Service {
	if c == nil {
		return rag.NewService(store, l, em, nil)
	}
	return rag.NewService(store, l, em, c)
}

func TestChat_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(s *MockStore, e *MockEmbedder, l *MockLLM)
		expectedAnswer string
		expectedClass  fault.Class
		expectedTurns  int
	}{
		{
			name:           "Success_Full_Flow",
			setupMocks:     func(s *MockStore, e *MockEmbedder, l *MockLLM) {},
			expectedAnswer: "mocked llm response",
			expectedTurns:  2,
		},
		{
			name: "Failure_Embedding_Unauthorized",
			setupMocks: func(s *MockStore, e *MockEmbedder, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, fault.Errorf(fault.Unauthorized, "invalid api key")
				}
			},
			expectedClass: fault.Unauthorized,
			expectedTurns: 0,
		},
		{
			name: "Failure_Generation_RateLimited",
			setupMocks: func(s *MockStore, e *MockEmbedder, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, messages []model.Message) (string, error) {
					return "", fault.Errorf(fault.RateLimited, "quota exhausted")
				}
			},
			expectedClass: fault.RateLimited,
			expectedTurns: 0,
		},
		{
			name: "Failure_Retrieval_Storage",
			setupMocks: func(s *MockStore, e *MockEmbedder, l *MockLLM) {
				s.OnAllChunks = func(ctx context.Context) ([]model.Chunk, error) {
					return nil, fault.Errorf(fault.StorageUnavailable, "disk gone")
				}
			},
			expectedClass: fault.StorageUnavailable,
			expectedTurns: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &MockStore{}
			em := &MockEmbedder{}
			l := &MockLLM{}
			tc.setupMocks(store, em, l)

			svc := newTestService(store, em, l, nil)
			answer, err := svc.Chat(context.Background(), "convo-1", "hello there")

			if tc.expectedClass != "" {
				require.Error(t, err)
				assert.True(t, fault.IsClass(err, tc.expectedClass), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedAnswer, answer)
			}
			assert.Len(t, store.AppendedTurns(), tc.expectedTurns)
		})
	}
}

func TestChat_NewConversationEmptyStore(t *testing.T) {
	store := &MockStore{}
	em := &MockEmbedder{}
	l := &MockLLM{}

	svc := newTestService(store, em, l, nil)
	_, err := svc.Chat(context.Background(), "fresh", "first question")
	require.NoError(t, err)

	// No documents and no history: the generator must see exactly one
	// message, the user's, with no system framing.
	messages := l.LastMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, "first question", messages[0].Content)
}

func TestChat_ContextMessageLeadsSequence(t *testing.T) {
	store := &MockStore{
		OnAllChunks: func(ctx context.Context) ([]model.Chunk, error) {
			return []model.Chunk{
				{Id: "c1", Content: "alpha", Embedding: []float32{1, 0, 0}},
				{Id: "c2", Content: "beta", Embedding: []float32{0.9, 0.1, 0}},
			}, nil
		},
		OnRecentTurns: func(ctx context.Context, conversationId string, limit int) ([]model.Turn, error) {
			return []model.Turn{
				{Id: 1, ConversationId: conversationId, Role: model.RoleUser, Content: "earlier"},
				{Id: 2, ConversationId: conversationId, Role: model.RoleAssistant, Content: "reply"},
			}, nil
		},
	}
	em := &MockEmbedder{}
	l := &MockLLM{}

	svc := newTestService(store, em, l, nil)
	_, err := svc.Chat(context.Background(), "convo-1", "follow up")
	require.NoError(t, err)

	messages := l.LastMessages()
	require.Len(t, messages, 4)
	assert.Equal(t, model.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "alpha")
	assert.Contains(t, messages[0].Content, "beta")
	assert.Equal(t, model.RoleUser, messages[1].Role)
	assert.Equal(t, model.RoleAssistant, messages[2].Role)
	assert.Equal(t, model.RoleUser, messages[3].Role)
	assert.Equal(t, "follow up", messages[3].Content)
}

func TestChat_PersistsUserThenAssistant(t *testing.T) {
	store := &MockStore{}
	em := &MockEmbedder{}
	l := &MockLLM{}

	svc := newTestService(store, em, l, nil)
	answer, err := svc.Chat(context.Background(), "convo-1", "question")
	require.NoError(t, err)

	turns := store.AppendedTurns()
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "question", turns[0].Content)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, answer, turns[1].Content)
	assert.Less(t, turns[0].Id, turns[1].Id)
}

func TestChat_CacheHitSkipsGeneration(t *testing.T) {
	store := &MockStore{}
	em := &MockEmbedder{}
	l := &MockLLM{}
	c := &MockCache{
		OnGetCachedAnswer: func(ctx context.Context, queryVector []float32) (string, bool) {
			return "cached answer", true
		},
	}

	svc := newTestService(store, em, l, c)
	answer, err := svc.Chat(context.Background(), "convo-1", "repeat question")
	require.NoError(t, err)
	assert.Equal(t, "cached answer", answer)
	assert.Empty(t, l.Received, "generator must not be called on a cache hit")

	// a cached answer is still a real exchange
	assert.Len(t, store.AppendedTurns(), 2)
}

func TestChat_InvalidInput(t *testing.T) {
	svc := newTestService(&MockStore{}, &MockEmbedder{}, &MockLLM{}, nil)

	_, err := svc.Chat(context.Background(), "convo-1", "   ")
	assert.True(t, fault.IsClass(err, fault.InvalidInput))

	_, err = svc.Chat(context.Background(), "", "hello")
	assert.True(t, fault.IsClass(err, fault.InvalidInput))
}

func TestIngest_ChunksAndStores(t *testing.T) {
	var stored []model.Chunk
	store := &MockStore{
		OnAddChunks: func(ctx context.Context, documentId string, chunks []model.Chunk) error {
			stored = append(stored, chunks...)
			return nil
		},
	}
	em := &MockEmbedder{}
	svc := newTestService(store, em, &MockLLM{}, nil)

	text := strings.Repeat("A", 1600)
	docId, added, err := svc.Ingest(context.Background(), "big.txt", text)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", docId)
	assert.Equal(t, 2, added)
	require.Len(t, stored, 2)
	for _, c := range stored {
		assert.NotEmpty(t, c.Embedding)
	}
}

func TestIngest_EmptyTextZeroChunks(t *testing.T) {
	embedCalls := 0
	em := &MockEmbedder{
		OnBatchEmbedding: func(ctx context.Context, texts []string) ([][]float32, error) {
			embedCalls++
			return make([][]float32, len(texts)), nil
		},
	}
	svc := newTestService(&MockStore{}, em, &MockLLM{}, nil)

	docId, added, err := svc.Ingest(context.Background(), "empty.txt", "   \n\t ")
	require.NoError(t, err)
	assert.NotEmpty(t, docId)
	assert.Zero(t, added)
	assert.Zero(t, embedCalls, "nothing to embed for an empty document")
}

func TestIngest_BatchesLargeDocuments(t *testing.T) {
	var batchSizes []int
	em := &MockEmbedder{
		OnBatchEmbedding: func(ctx context.Context, texts []string) ([][]float32, error) {
			batchSizes = append(batchSizes, len(texts))
			vectors := make([][]float32, len(texts))
			for i := range vectors {
				vectors[i] = []float32{1}
			}
			return vectors, nil
		},
	}
	svc := newTestService(&MockStore{}, em, &MockLLM{}, nil)

	// 120 chunks of 800 runes forces two embedding batches
	text := strings.Repeat("B", 120*800)
	_, added, err := svc.Ingest(context.Background(), "huge.txt", text)
	require.NoError(t, err)
	assert.Equal(t, 120, added)
	assert.Equal(t, []int{100, 20}, batchSizes)
}

func TestIngest_EmbeddingFailureAborts(t *testing.T) {
	addCalls := 0
	var deleted []string
	store := &MockStore{
		OnAddChunks: func(ctx context.Context, documentId string, chunks []model.Chunk) error {
			addCalls++
			return nil
		},
		OnDeleteDocument: func(ctx context.Context, id string) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	em := &MockEmbedder{
		OnBatchEmbedding: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, fault.Errorf(fault.EmbeddingUnavailable, "provider down")
		},
	}
	svc := newTestService(store, em, &MockLLM{}, nil)

	_, _, err := svc.Ingest(context.Background(), "doc.txt", "some content")
	assert.True(t, fault.IsClass(err, fault.EmbeddingUnavailable))
	assert.Zero(t, addCalls)
	assert.Equal(t, []string{"doc-1"}, deleted, "created document must be rolled back")
}

func TestIngest_MidBatchFailureDiscardsDocument(t *testing.T) {
	storedBatches := 0
	var deleted []string
	store := &MockStore{
		OnAddChunks: func(ctx context.Context, documentId string, chunks []model.Chunk) error {
			storedBatches++
			return nil
		},
		OnDeleteDocument: func(ctx context.Context, id string) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	embedCalls := 0
	em := &MockEmbedder{
		OnBatchEmbedding: func(ctx context.Context, texts []string) ([][]float32, error) {
			embedCalls++
			if embedCalls > 1 {
				return nil, fault.Errorf(fault.RateLimited, "quota exhausted")
			}
			vectors := make([][]float32, len(texts))
			for i := range vectors {
				vectors[i] = []float32{1}
			}
			return vectors, nil
		},
	}
	svc := newTestService(store, em, &MockLLM{}, nil)

	// 120 chunks of 800 runes: first batch of 100 lands, second fails
	text := strings.Repeat("C", 120*800)
	_, _, err := svc.Ingest(context.Background(), "huge.txt", text)
	assert.True(t, fault.IsClass(err, fault.RateLimited))
	assert.Equal(t, 1, storedBatches, "first batch is stored before the failure")
	assert.Equal(t, []string{"doc-1"}, deleted, "partial document must not survive")
}

func TestDeleteDocument_Validation(t *testing.T) {
	svc := newTestService(&MockStore{}, &MockEmbedder{}, &MockLLM{}, nil)
	err := svc.DeleteDocument(context.Background(), "")
	assert.True(t, fault.IsClass(err, fault.InvalidInput))
}

func TestStats_PassesThrough(t *testing.T) {
	store := &MockStore{
		OnCounts: func(ctx context.Context) (model.Counts, error) {
			return model.Counts{Documents: 2, Chunks: 9, Messages: 14}, nil
		},
	}
	svc := newTestService(store, &MockEmbedder{}, &MockLLM{}, nil)

	counts, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Documents)
	assert.Equal(t, int64(9), counts.Chunks)
	assert.Equal(t, int64(14), counts.Messages)
}

func TestStats_StorageFailure(t *testing.T) {
	store := &MockStore{
		OnCounts: func(ctx context.Context) (model.Counts, error) {
			return model.Counts{}, fault.Errorf(fault.StorageUnavailable, "db locked")
		},
	}
	svc := newTestService(store, &MockEmbedder{}, &MockLLM{}, nil)

	_, err := svc.Stats(context.Background())
	assert.True(t, errors.Is(err, &fault.Fault{Class: fault.StorageUnavailable}))
}
