package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD              = slog.LevelInfo
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	IngestJobTimeout                = 30 * time.Minute
	QueryTimeout                    = 90 * time.Second

	//serverTimeouts
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 120 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//uploads
	MaxMultipartMemory = 32 << 20

	//extraction
	PageExtractTimeout = 10 * time.Second

	//chunking
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	OffsetProbeLength   = 50

	//embeddings
	DefaultEmbeddingModel       = "text-embedding-3-small"
	DefaultEmbeddingDimension   = 1536
	EmbeddingBatchSize          = 20
	EmbeddingBatchDelay         = 100 * time.Millisecond
	EmbeddingMaxAttempts        = 3
	EmbeddingRetryInterval      = 1 * time.Second
	EmbeddingMaxInputChars      = 30000
	EmbeddingPricePer1KTokens   = 0.00002
	EmbeddingCharsPerTokenGuess = 4

	//vectorDB
	DefaultVectorCollection = "docqa-chunks"
	VectorUpsertBatchSize   = 100
	VectorMetadataTextLimit = 5000
	VectorDeletePageSize    = 1000
	VectorReadyPollAttempts = 30
	VectorReadyPollInterval = 2 * time.Second
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1

	//llm
	DefaultLLMModel            = "gpt-4-turbo-preview"
	GeminiModelName            = "gemini-2.5-flash"
	GoogleEmbeddingModel       = "gemini-embedding-001"
	ModelTemperature           = 0.2
	ModelMaxTokens             = 2000
	DefaultTopK                = 5
	MaxTopK                    = 20
	HistoryTurnLimit           = 10
	InputPricePer1KTokens      = 0.01
	OutputPricePer1KTokens     = 0.03
	NoContextMarker            = "No relevant context found in the documents."
	ConversationIdPrefix       = "conv_"
	MessageIdPrefix            = "msg_"
	DocumentIdPrefix           = "doc_"
	JobIdPrefix                = "job_"
	ShortIdLength              = 12
	CollectionNameMaxLength    = 100
	StatusPersistMaxRetries    = 3
	StatusPersistRetryInterval = 200 * time.Millisecond

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore          = 0
	RedisConversationStore = 1

	//redis timeouts
	RedisJobStoreTTL          = 24 * time.Hour
	RedisConversationStoreTTL = 7 * 24 * time.Hour

	//newest messages kept per conversation
	MaxStoredMessages = 200
)
