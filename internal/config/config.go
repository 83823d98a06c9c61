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

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//chunking
	ChunkSize    = 1000
	ChunkOverlap = 100

	//ingestion polling
	PollInterval = 5 * time.Second
	//per status-check network call, not the whole loop
	StatusCheckTimeout = 30 * time.Second
	//0 keeps polling until the backend reports a terminal state
	MaxPollAttempts = 0

	//retrieval
	DefaultTopK = 3

	//embeddings
	EmbeddingDimension int32 = 1536
	OpenAIEmbedModel         = "text-embedding-3-small"
	GeminiEmbedModel         = "gemini-embedding-001"
	//max inputs the OpenAI embeddings endpoint accepts in one call
	OpenAIEmbedBatchLimit = 2048
	GeminiEmbedBatchLimit = 100

	//vectorDB
	QdrantCollection        = "storm-rag-chunks"
	QdrantHost              = "127.0.0.1"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantConnectionTimeout = 30 * time.Second

	//parsing backend
	StormAPIURL = "https://live-storm-apis-parse-router.sionic.im"

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisJobRegistry   = 0
	RedisDocumentStore = 1

	RedisJobRegistryTTL   = 24 * time.Hour
	RedisDocumentStoreTTL = 24 * time.Hour
)

// Env returns the value of key, or fallback when it is unset or empty.
func Env(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
