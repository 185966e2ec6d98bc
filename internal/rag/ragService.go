package rag

import (
	"context"
	"strings"
	"time"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/model"
	"github.com/tbadri/ragchat/internal/metrics"
	"github.com/tbadri/ragchat/internal/rag/chunker"
	"github.com/tbadri/ragchat/internal/rag/embedding"
	"github.com/tbadri/ragchat/internal/rag/llm"
	"github.com/tbadri/ragchat/internal/rag/memory"
	"github.com/tbadri/ragchat/internal/rag/retriever"
	"github.com/tbadri/ragchat/pkg/logging"
)

// Store is the durable substrate the orchestrator runs over. The
// sqlite store implements it; tests swap in mocks.
type Store interface {
	CreateDocument(ctx context.Context, name string) (string, error)
	AddChunks(ctx context.Context, documentId string, chunks []model.Chunk) error
	AllChunks(ctx context.Context) ([]model.Chunk, error)
	DeleteDocument(ctx context.Context, id string) error
	AppendTurn(ctx context.Context, conversationId string, role model.Role, content string) (model.Turn, error)
	RecentTurns(ctx context.Context, conversationId string, limit int) ([]model.Turn, error)
	Counts(ctx context.Context) (model.Counts, error)
}

// AnswerCache is the optional semantic answer cache; nil disables it.
// A cache can only short-circuit a request, never fail one.
type AnswerCache interface {
	GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool)
	SaveToCache(ctx context.Context, queryVector []float32, answer string) error
}

// Service is the public contract the handlers and the ingest worker
// call; the private struct keeps the backends out of reach.
type Service interface {
	Chat(ctx context.Context, conversationId, message string) (string, error)
	Ingest(ctx context.Context, name, text string) (documentId string, chunksAdded int, err error)
	DeleteDocument(ctx context.Context, documentId string) error
	Stats(ctx context.Context) (model.Counts, error)
}

type service struct {
	store     Store
	llm       llm.Provider
	embedder  embedding.Embedder
	retriever *retriever.Retriever
	memory    *memory.Memory
	cache     AnswerCache
	logger    *logging.Logger
}

// NewService wires the orchestrator. cache may be nil.
func NewService(store Store, provider llm.Provider, em embedding.Embedder, answerCache AnswerCache) Service {
	return &service{
		store:     store,
		llm:       provider,
		embedder:  em,
		retriever: retriever.New(store),
		memory:    memory.New(store),
		cache:     answerCache,
		logger:    logging.NewLogger("RAG Service"),
	}
}

// Chat runs the whole pipeline for one request, strictly sequential,
// no retries: load history, embed the query, retrieve context,
// assemble the prompt, generate, persist user then assistant, respond.
// Any classified failure aborts the request before persistence.
func (s *service) Chat(ctx context.Context, conversationId, message string) (string, error) {
	start := time.Now()
	status := "ok"
	defer func() { metrics.CaptureChatMetrics(status, time.Since(start)) }()

	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "conversation", conversationId)

	if conversationId == "" {
		status = "error"
		return "", fault.Errorf(fault.InvalidInput, "conversation id is empty")
	}
	if strings.TrimSpace(message) == "" {
		status = "error"
		return "", fault.Errorf(fault.InvalidInput, "message is empty")
	}

	// 1. Load
	history, err := s.loadHistoryStep(ctx, conversationId)
	if err != nil {
		status = "error"
		return "", err
	}

	// 2. Embed query - a failure here surfaces immediately, nothing
	// is retrieved, generated or persisted
	queryVector, err := s.embedQueryStep(ctx, message)
	if err != nil {
		status = "error"
		return "", err
	}

	// cache check (optional, best-effort)
	if answer, found := s.cacheCheckStep(ctx, queryVector); found {
		log.Debug("serving cached answer")
		if err := s.persistExchange(ctx, conversationId, message, answer); err != nil {
			status = "error"
			return "", err
		}
		return answer, nil
	}

	// 3. Retrieve
	matches, err := s.retrieveStep(ctx, queryVector)
	if err != nil {
		status = "error"
		return "", err
	}

	// 4. Assemble - retrieval context always leads, history follows,
	// the new user message closes
	messages := assembleMessages(matches, history, message)

	// 5. Generate
	answer, err := s.generateStep(ctx, messages)
	if err != nil {
		status = "error"
		return "", err
	}

	// 6. Persist user first, assistant second. A crash in between
	// leaves a dangling question, which beats a dangling answer.
	if err := s.persistExchange(ctx, conversationId, message, answer); err != nil {
		status = "error"
		return "", err
	}

	if s.cache != nil {
		go func() {
			if err := s.cache.SaveToCache(context.WithoutCancel(ctx), queryVector, answer); err != nil {
				s.logger.Error("Failed to save to cache", "error", err)
			}
		}()
	}

	// 7. Respond
	return answer, nil
}

// Ingest chunks the text, embeds every chunk, and stores the document
// atomically per batch. Text that trims to nothing is legal and
// produces a document with zero chunks.
func (s *service) Ingest(ctx context.Context, name, text string) (string, int, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "document", name)

	fragments, err := chunker.Split(text, chunker.DefaultMaxLen)
	if err != nil {
		return "", 0, err
	}

	documentId, err := s.store.CreateDocument(ctx, name)
	if err != nil {
		return "", 0, err
	}

	added := 0
	for batchStart := 0; batchStart < len(fragments); batchStart += config.EmbeddingBatchMax {
		end := batchStart + config.EmbeddingBatchMax
		if end > len(fragments) {
			end = len(fragments)
		}
		batch := fragments[batchStart:end]

		vectors, err := s.batchEmbedStep(ctx, batch)
		if err != nil {
			s.discardDocument(ctx, documentId)
			return "", 0, err
		}
		if len(vectors) != len(batch) {
			s.discardDocument(ctx, documentId)
			return "", 0, fault.Errorf(fault.EmbeddingUnavailable,
				"embedding count mismatch: %d fragments, %d vectors", len(batch), len(vectors))
		}

		chunks := make([]model.Chunk, len(batch))
		for i, content := range batch {
			chunks[i] = model.Chunk{Content: content, Embedding: vectors[i]}
		}
		if err := s.addChunksStep(ctx, documentId, chunks); err != nil {
			s.discardDocument(ctx, documentId)
			return "", 0, err
		}
		added += len(chunks)
	}

	log.Info("document ingested", "documentId", documentId, "chunks", added)
	return documentId, added, nil
}

// discardDocument rolls back a half-ingested document. Cascade delete
// takes the already-stored batches with it, so a retried ingestion
// starts clean instead of duplicating chunks under a second document.
func (s *service) discardDocument(ctx context.Context, documentId string) {
	if err := s.store.DeleteDocument(context.WithoutCancel(ctx), documentId); err != nil {
		s.logger.Error("Failed to discard partial document", "documentId", documentId, "error", err)
	}
}

func (s *service) DeleteDocument(ctx context.Context, documentId string) error {
	if documentId == "" {
		return fault.Errorf(fault.InvalidInput, "document id is empty")
	}
	return s.store.DeleteDocument(ctx, documentId)
}

func (s *service) Stats(ctx context.Context) (model.Counts, error) {
	return s.store.Counts(ctx)
}

// assembleMessages builds the ordered sequence the generator sees.
// The retrieved-context system message, when present, always comes
// first: retrieval context outranks conversation history as framing.
func assembleMessages(matches []retriever.Match, history []model.Message, userMessage string) []model.Message {
	messages := make([]model.Message, 0, len(history)+2)

	if len(matches) > 0 {
		messages = append(messages, model.Message{
			Role:    model.RoleSystem,
			Content: config.ModelSystemPrompt + "\n\nContext:\n" + strings.Join(retriever.Contents(matches), config.ContextSeparator),
		})
	}

	messages = append(messages, history...)
	messages = append(messages, model.Message{Role: model.RoleUser, Content: userMessage})
	return messages
}
