package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//auth - keep the bypass on for local dev, CI sets RAGCHAT_AUTH_TOKEN
	NoAuthBypass = true
	AuthToken    = ""

	//retrieval knobs
	ChunkMaxLen       = 800 //runes per chunk
	RetrievalTopK     = 4
	HistoryTurnLimit  = 20
	ContextSeparator  = "\n---\n"
	EmbeddingBatchMax = 100

	//semantic cache
	CacheSimilarityCutoff = 0.97
	CacheMaxEntries       = 256
	CacheKey              = "semantic-cache"

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//ingest job buffer limit
	BufferLimit = 100

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	IngestJobTimeout                = 5 * time.Minute

	//llm + embeddings
	GenerationProvider  = "openai" //or "gemini"
	OpenAIModelName     = "gpt-4o-mini"
	OpenAIEmbedModel    = "text-embedding-3-small"
	GeminiModelName     = "gemini-2.5-flash-lite-preview-09-2025"
	GeminiEmbedModel    = "gemini-embedding-001"
	EmbeddingDimension  = 1536
	ModelSystemPrompt   = "You are a helpful assistant. Use the provided context when it is relevant. If you don't know the answer, say you don't know."
	UpstreamCallTimeout = 30 * time.Second

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//sqlite
	DataDirDefault = "data"

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DBs we can use
	RedisJobStore      = 0
	RedisSemanticCache = 1

	RedisJobStoreTTL = 24 * time.Hour
)

// EnvOr reads an env var with a fallback. .env is loaded by main via godotenv.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
