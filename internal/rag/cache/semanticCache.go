// Package cache is a best-effort semantic answer cache: questions
// close enough in embedding space to a recently answered one reuse the
// stored answer and skip retrieval and generation. Any cache failure
// is a miss, never a request failure.
package cache

import (
	"context"
	"encoding/json"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/data/redisstore"
	"github.com/tbadri/ragchat/internal/rag/vectormath"
	"github.com/tbadri/ragchat/pkg/logging"
)

type entry struct {
	Vector []float32 `json:"vector"`
	Answer string    `json:"answer"`
}

type SemanticCache struct {
	store  *redisstore.Store
	cutoff float64
	logger *logging.Logger
}

func New(store *redisstore.Store) *SemanticCache {
	return &SemanticCache{
		store:  store,
		cutoff: config.CacheSimilarityCutoff,
		logger: logging.NewLogger("SemanticCache"),
	}
}

// GetCachedAnswer scans the recent window for the closest cached query
// vector; a similarity at or above the cutoff is a hit.
func (c *SemanticCache) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	raw, err := c.store.ListGetAll(ctx, config.CacheKey)
	if err != nil {
		log.Error("Cache lookup failed, treating as miss", "error", err)
		return "", false
	}

	bestScore := 0.0
	bestAnswer := ""
	for _, item := range raw {
		var e entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		score, err := vectormath.Cosine(queryVector, e.Vector)
		if err != nil {
			// stale entry from an older embedding model, skip it
			continue
		}
		if score > bestScore {
			bestScore = score
			bestAnswer = e.Answer
		}
	}

	if bestScore < c.cutoff {
		return "", false
	}

	log.Debug("cache hit", "score", bestScore)
	return bestAnswer, true
}

// SaveToCache appends the pair and trims the window.
func (c *SemanticCache) SaveToCache(ctx context.Context, queryVector []float32, answer string) error {
	data, err := json.Marshal(entry{Vector: queryVector, Answer: answer})
	if err != nil {
		return err
	}
	if err := c.store.ListPush(ctx, config.CacheKey, data); err != nil {
		return err
	}
	return c.store.ListTrimLast(ctx, config.CacheKey, config.CacheMaxEntries)
}
