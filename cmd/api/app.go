package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/data/blobStore"
	"github.com/akolanti/docqa/internal/data/redisStore"
	"github.com/akolanti/docqa/internal/data/sqlStore"
	"github.com/akolanti/docqa/internal/data/store"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/jobModel"
	"github.com/akolanti/docqa/internal/rag"
	"github.com/akolanti/docqa/internal/rag/chunk"
	"github.com/akolanti/docqa/internal/rag/embedding"
	"github.com/akolanti/docqa/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/docqa/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/docqa/internal/rag/extract"
	"github.com/akolanti/docqa/internal/rag/ingest"
	"github.com/akolanti/docqa/internal/rag/llm"
	"github.com/akolanti/docqa/internal/rag/llm/gemini"
	"github.com/akolanti/docqa/internal/rag/llm/openaiLLM"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/docqa/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/docqa/pkg/logger_i"
)

// app holds everything the subcommands share. Only the sqlite database and
// the upload directory are required; every remote dependency degrades.
type app struct {
	settings config.Settings
	db       *sqlStore.Store
	jobs     jobModel.JobStore
	convs    docModel.ConversationStore
	formats  *extract.Registry
	embedder *embedding.Client
	rag      rag.Service

	closers []io.Closer
	logger  *logger_i.Logger
}

func loadSettings() (config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return settings, fmt.Errorf("loading configuration: %w", err)
	}
	if listenAddr != "" {
		settings.ListenAddr = listenAddr
	}
	return settings, nil
}

func buildApp(ctx context.Context, settings config.Settings) (*app, error) {
	a := &app{settings: settings, logger: logger_i.NewLogger("main")}
	a.logger.Debug("configuration", "settings", fmt.Sprintf("%+v", settings.Redacted()))

	db, err := sqlStore.Open(settings.DatabasePath)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db)

	blobs, err := blobStore.NewLocal(settings.UploadDir, settings.MaxFileSizeBytes())
	if err != nil {
		a.close()
		return nil, err
	}

	a.jobs, a.convs = a.redisStores(ctx)

	a.embedder = embedding.NewClient(a.embeddingProvider(ctx), settings.EmbeddingDimension)
	vectors := vectorDB.NewStore(a.vectorIndex(ctx))

	chunker, err := chunk.New(chunk.Options{
		Size:     settings.ChunkSize,
		Overlap:  settings.ChunkOverlap,
		Strategy: chunk.Strategy(settings.ChunkStrategy),
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.formats = extract.Default()

	pipeline := ingest.NewPipeline(ingest.Deps{
		Documents: db,
		Chunks:    db,
		Extractor: a.formats,
		Chunker:   chunker,
		Embedder:  a.embedder,
		Vectors:   vectors,
	})

	a.rag = rag.NewService(rag.Deps{
		Collections:   db,
		Documents:     db,
		Chunks:        db,
		Conversations: a.convs,
		Blobs:         blobs,
		Vectors:       vectors,
		Embedder:      a.embedder,
		LLM:           a.llmProvider(ctx),
		Ingestor:      pipeline,
		TopK:          settings.TopK,
	})
	return a, nil
}

func (a *app) redisStores(ctx context.Context) (jobModel.JobStore, docModel.ConversationStore) {
	jobRedis, err := redisStore.Connect(ctx, redisStore.Options{
		Addr: a.settings.RedisAddr, Password: a.settings.RedisPassword, DB: config.RedisJobStore,
	})
	if err != nil {
		a.logger.Error("Redis stores are offline, using in-memory stores", "error", err)
		return store.InitInMemoryJobStore(), store.InitInMemoryConversationStore()
	}
	convRedis, err := redisStore.Connect(ctx, redisStore.Options{
		Addr: a.settings.RedisAddr, Password: a.settings.RedisPassword, DB: config.RedisConversationStore,
	})
	if err != nil {
		_ = jobRedis.Close()
		a.logger.Error("Redis stores are offline, using in-memory stores", "error", err)
		return store.InitInMemoryJobStore(), store.InitInMemoryConversationStore()
	}
	a.closers = append(a.closers, jobRedis, convRedis)
	return store.NewRedisJobStore(jobRedis), store.NewRedisConversationStore(convRedis)
}

// embeddingProvider returns nil when the provider cannot be built; the
// embedding client then reports EmbeddingUnavailable per call.
func (a *app) embeddingProvider(ctx context.Context) embedding.Provider {
	s := a.settings
	switch s.EmbeddingProvider {
	case config.ProviderGoogle:
		model := s.EmbeddingModel
		if model == config.DefaultEmbeddingModel {
			model = config.GoogleEmbeddingModel
		}
		p, err := googleEmbedding.New(ctx, s.GoogleAPIKey, model, s.EmbeddingDimension)
		if err != nil {
			a.logger.Error("embeddings unavailable", "provider", s.EmbeddingProvider, "error", err)
			return nil
		}
		return p
	default:
		p, err := openaiEmbedding.New(s.OpenAIKey, s.OpenAIBaseURL, s.EmbeddingModel, s.EmbeddingDimension)
		if err != nil {
			a.logger.Error("embeddings unavailable", "provider", s.EmbeddingProvider, "error", err)
			return nil
		}
		return p
	}
}

func (a *app) llmProvider(ctx context.Context) llm.Provider {
	s := a.settings
	var (
		p   llm.Provider
		err error
	)
	switch s.LLMProvider {
	case config.ProviderGoogle:
		model := s.LLMModel
		if model == config.DefaultLLMModel {
			model = config.GeminiModelName
		}
		p, err = gemini.New(ctx, s.GoogleAPIKey, model)
	default:
		p, err = openaiLLM.New(s.OpenAIKey, s.OpenAIBaseURL, s.LLMModel)
	}
	if err != nil {
		a.logger.Error("generation unavailable", "provider", s.LLMProvider, "error", err)
		return nil
	}
	return p
}

// vectorIndex returns nil when qdrant cannot be reached; the vector store
// then reports VectorStoreUnavailable and documents are kept unindexed.
func (a *app) vectorIndex(ctx context.Context) vectorDB.Index {
	s := a.settings
	if s.VectorBackend == config.VectorBackendMemory {
		a.logger.Warn("using the in-memory vector index, vectors are lost on restart")
		return memoryDB.New(s.VectorCollection, s.EmbeddingDimension)
	}

	q, err := qdrantDB.New(qdrantDB.Config{
		Host:       s.QdrantHost,
		Port:       s.QdrantPort,
		APIKey:     s.QdrantAPIKey,
		Collection: s.VectorCollection,
		Dimension:  s.EmbeddingDimension,
	})
	if err != nil {
		a.logger.Error("vector store unavailable", "error", err)
		return nil
	}
	if err := q.Ensure(ctx); err != nil {
		a.logger.Error("vector store unavailable", "error", err)
		_ = q.Close()
		return nil
	}
	a.closers = append(a.closers, q)
	return q
}

func (a *app) usage() any {
	return a.embedder.Usage()
}

func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("closing services", "error", err)
	}
}
