// @title           Storm RAG API
// @version         1.0
// @description     Document ingestion and retrieval over the Storm parse API with vector search.

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "stormrag/cmd/api/docs"
	"stormrag/internal/config"
	"stormrag/internal/data/store"
	"stormrag/internal/domain/document"
	"stormrag/internal/handlers"
	"stormrag/internal/rag"
	"stormrag/internal/rag/embedding"
	"stormrag/internal/rag/embedding/geminiembed"
	"stormrag/internal/rag/embedding/openaiembed"
	"stormrag/internal/rag/vectorindex"
	"stormrag/internal/rag/vectorindex/keywordindex"
	"stormrag/internal/rag/vectorindex/memoryindex"
	"stormrag/internal/rag/vectorindex/qdrantindex"
	"stormrag/internal/server"
	"stormrag/internal/storm"
	"stormrag/internal/storm/localparser"
	"stormrag/pkg/applog"
)

var (
	listenAddr   string
	embedBackend string
	indexBackend string
	localParse   bool
)

func main() {
	_ = godotenv.Load()
	applog.Init()
	logger := applog.New("main")

	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&embedBackend, "embed-backend", config.Env("EMBED_BACKEND", "openai"), "embedding backend: openai|gemini")
	flag.StringVar(&indexBackend, "index-backend", config.Env("INDEX_BACKEND", "memory"), "vector index backend: memory|qdrant|keyword")
	flag.BoolVar(&localParse, "local-parse", os.Getenv("STORM_API_KEY") == "", "parse documents in-process instead of the Storm API")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//job registry and document store: Redis preferred, in-memory fallback
	var registry document.JobStore
	var docs document.DocumentStore
	redisJobs := store.GetRedisJobStore(serviceContext)
	redisDocs := store.GetRedisDocumentStore(serviceContext)
	if redisJobs == nil || redisDocs == nil {
		logger.Warn("Redis is offline, using in-memory stores")
		registry = store.InitInMemoryJobStore()
		docs = store.InitInMemoryDocumentStore()
	} else {
		registry = redisJobs
		docs = redisDocs
	}

	parser := buildParser(logger)
	embedder := buildEmbedder(serviceContext, logger)
	index := buildIndex(serviceContext, logger)
	if parser == nil || embedder == nil || index == nil {
		logger.Error("one or more external services failed to initialize, shutting down")
		return
	}

	ragService := rag.NewService(serviceContext, parser, embedder, index, registry, docs, rag.PollerConfig{
		Interval:        config.PollInterval,
		MaxPollAttempts: config.MaxPollAttempts,
		ChunkSize:       config.ChunkSize,
		ChunkOverlap:    config.ChunkOverlap,
	})

	uploadDir, err := handlers.UploadDirectory()
	if err != nil {
		logger.Error("could not prepare upload directory", "error", err)
		return
	}
	handler := handlers.New(ragService, uploadDir)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	server.CreateServer(listenAddr, handler)
	go server.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WaitForPollers:   ragService.Wait,
		CloseServices:    closeExternalServices,
	})
	go server.Serve()

	<-stopExecution
	logger.Info("Server stopped")
}

func buildParser(logger *applog.Logger) storm.Parser {
	if localParse {
		logger.Info("using in-process document parser")
		return localparser.New()
	}
	return storm.NewClient(
		config.Env("STORM_API_URL", config.StormAPIURL),
		os.Getenv("STORM_API_KEY"),
	)
}

func buildEmbedder(ctx context.Context, logger *applog.Logger) embedding.Embedder {
	switch embedBackend {
	case "gemini":
		e, err := geminiembed.NewClient(ctx, os.Getenv("GEMINI_API_KEY"), config.GeminiEmbedModel)
		if err != nil {
			return nil
		}
		return e
	default:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			logger.Error("OPENAI_API_KEY is not set")
			return nil
		}
		return openaiembed.NewClient(key, config.OpenAIEmbedModel)
	}
}

func buildIndex(ctx context.Context, logger *applog.Logger) vectorindex.Index {
	switch indexBackend {
	case "qdrant":
		idx, err := qdrantindex.New(ctx, config.Env("QDRANT_HOST", config.QdrantHost), config.QdrantGrpcPort, config.QdrantCollection)
		if err != nil {
			return nil
		}
		go func() {
			<-ctx.Done()
			_ = idx.Close()
		}()
		return idx
	case "keyword":
		logger.Info("using keyword overlap index")
		return keywordindex.New()
	default:
		return memoryindex.New()
	}
}
