package rag

import (
	"context"
	"time"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/model"
	"github.com/tbadri/ragchat/internal/metrics"
	"github.com/tbadri/ragchat/internal/rag/retriever"
)

// Per-step wrappers so every dependency call lands in the latency
// histogram under a stable service label.

func (s *service) loadHistoryStep(ctx context.Context, conversationId string) ([]model.Message, error) {
	start := time.Now()
	history, err := s.memory.Recent(ctx, conversationId, config.HistoryTurnLimit)
	metrics.CaptureExecutionMetrics("store", time.Since(start))
	return history, err
}

func (s *service) embedQueryStep(ctx context.Context, message string) ([]float32, error) {
	start := time.Now()
	vector, err := s.embedder.GetEmbedding(ctx, message)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	return vector, err
}

func (s *service) batchEmbedStep(ctx context.Context, fragments []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := s.embedder.BatchEmbedding(ctx, fragments)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	return vectors, err
}

func (s *service) cacheCheckStep(ctx context.Context, queryVector []float32) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	start := time.Now()
	answer, found := s.cache.GetCachedAnswer(ctx, queryVector)
	metrics.CaptureExecutionMetrics("cache", time.Since(start))
	return answer, found
}

func (s *service) retrieveStep(ctx context.Context, queryVector []float32) ([]retriever.Match, error) {
	start := time.Now()
	matches, err := s.retriever.TopK(ctx, queryVector, config.RetrievalTopK)
	metrics.CaptureExecutionMetrics("store", time.Since(start))
	return matches, err
}

func (s *service) generateStep(ctx context.Context, messages []model.Message) (string, error) {
	start := time.Now()
	answer, err := s.llm.Generate(ctx, messages)
	metrics.CaptureExecutionMetrics("llm", time.Since(start))
	return answer, err
}

func (s *service) addChunksStep(ctx context.Context, documentId string, chunks []model.Chunk) error {
	start := time.Now()
	err := s.store.AddChunks(ctx, documentId, chunks)
	metrics.CaptureExecutionMetrics("store", time.Since(start))
	return err
}

func (s *service) persistExchange(ctx context.Context, conversationId, question, answer string) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("store", time.Since(start)) }()

	if _, err := s.store.AppendTurn(ctx, conversationId, model.RoleUser, question); err != nil {
		return err
	}
	if _, err := s.store.AppendTurn(ctx, conversationId, model.RoleAssistant, answer); err != nil {
		return err
	}
	return nil
}
