package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/data/redisstore"
	"github.com/tbadri/ragchat/internal/data/sqlite"
	"github.com/tbadri/ragchat/internal/data/store"
	"github.com/tbadri/ragchat/internal/domain/jobmodel"
	"github.com/tbadri/ragchat/internal/handlers"
	"github.com/tbadri/ragchat/internal/job"
	"github.com/tbadri/ragchat/internal/rag"
	"github.com/tbadri/ragchat/internal/rag/cache"
	"github.com/tbadri/ragchat/internal/rag/embedding"
	"github.com/tbadri/ragchat/internal/rag/embedding/googleEmbedding"
	"github.com/tbadri/ragchat/internal/rag/embedding/openaiEmbedding"
	"github.com/tbadri/ragchat/internal/rag/llm"
	"github.com/tbadri/ragchat/internal/rag/llm/gemini"
	"github.com/tbadri/ragchat/internal/rag/llm/openai"
	"github.com/tbadri/ragchat/internal/server"
	"github.com/tbadri/ragchat/internal/worker"
	"github.com/tbadri/ragchat/pkg/logging"
)

var (
	listenAddr        string
	dataDir           string
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	_ = godotenv.Load()
	logging.Init()
	var logger = logging.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&dataDir, "data-dir", config.EnvOr("RAGCHAT_DATA_DIR", config.DataDirDefault), "sqlite data directory")
	flag.Parse()

	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//durable store
	db, err := sqlite.Open(dataDir)
	if err != nil {
		logger.Error("Failed to open sqlite store", "error", err, "dataDir", dataDir)
		return
	}
	defer db.Close()

	//job queue plumbing, redis with in-memory fallback
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStoreOrFallback(serviceContext, logger),
	}
	logger.Info("Starting job service")
	jobService := job.InitJobService(serviceConfig)

	llmProvider, embeddingService := buildProviders(serviceContext, logger)
	if llmProvider == nil || embeddingService == nil {
		logger.Error("Generation or embedding backend failed to initialize. Shutting down.")
		return
	}

	//semantic cache is best-effort, nil when redis is offline
	var answerCache rag.AnswerCache
	if cacheStore := redisstore.GetRedisStore(serviceContext, config.RedisSemanticCache); cacheStore != nil {
		answerCache = cache.New(cacheStore)
	} else {
		logger.Warn("Semantic cache disabled, redis is offline")
	}

	ragService := rag.NewService(db, llmProvider, embeddingService, answerCache)

	handlers.InitJobHandler(jobService, ragService)

	worker.InitServices(jobService, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func jobStoreOrFallback(ctx context.Context, logger *logging.Logger) jobmodel.JobStore {
	if redisJobs := store.GetRedisJobStore(ctx); redisJobs != nil {
		return redisJobs
	}
	logger.Warn("Redis job store is offline, falling back to in-memory")
	return store.InitInMemoryJobStore()
}

func buildProviders(ctx context.Context, logger *logging.Logger) (llm.Provider, embedding.Embedder) {
	provider := config.EnvOr("RAGCHAT_PROVIDER", config.GenerationProvider)

	switch provider {
	case "gemini":
		apiKey := config.EnvOr("GEMINI_API_KEY", "")
		return gemini.GetGeminiClient(ctx, config.GeminiModelName, apiKey),
			googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GeminiEmbedModel, apiKey)
	case "openai":
		apiKey := config.EnvOr("OPENAI_API_KEY", "")
		return openai.GetOpenAIClient(ctx, config.OpenAIModelName, apiKey),
			openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbedModel, apiKey)
	default:
		logger.Error("Unknown generation provider", "provider", provider)
		return nil, nil
	}
}
