package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/internal/rag/embedding"
	"github.com/akolanti/docqa/internal/rag/ingest"
	"github.com/akolanti/docqa/internal/rag/llm"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/pkg/logger_i"
)

/*
Service is the only thing the worker pool, the handlers and the MCP tools
talk to. The private service struct owns the stores and the remote clients;
everything is injected through NewService so tests can swap any of them.
*/

type Service interface {
	// AddDocument stores the upload and records the document as uploading.
	// Ingestion is started separately through IngestDocument.
	AddDocument(ctx context.Context, collectionId, filename string, r io.Reader) (docModel.Document, error)
	IngestDocument(ctx context.Context, documentId string) ingest.Outcome
	Query(ctx context.Context, req QueryRequest) (AnswerResult, error)
	// DeleteDocumentArtifacts removes vectors, chunks, the blob and the record.
	DeleteDocumentArtifacts(ctx context.Context, documentId string) error
	// DeleteCollectionArtifacts removes the namespace, every document with
	// its blob, the conversations and the collection record.
	DeleteCollectionArtifacts(ctx context.Context, collectionId string) error
	IndexStats(ctx context.Context) (vectorDB.IndexStats, error)
}

type VectorIndex interface {
	Search(ctx context.Context, vector []float32, topK int, namespace string) ([]vectorDB.Match, error)
	DeleteByDocument(ctx context.Context, namespace, documentId string) error
	DeleteNamespace(ctx context.Context, namespace string) error
	Stats(ctx context.Context, namespaces ...string) (vectorDB.IndexStats, error)
}

type Ingestor interface {
	Run(ctx context.Context, documentId string) ingest.Outcome
}

type Deps struct {
	Collections   docModel.CollectionStore
	Documents     docModel.DocumentStore
	Chunks        docModel.ChunkStore
	Conversations docModel.ConversationStore
	Blobs         docModel.BlobStore
	Vectors       VectorIndex
	Embedder      embedding.Embedder
	// LLM may be nil; queries then fail with GenerationUnavailable.
	LLM      llm.Provider
	Ingestor Ingestor
	TopK     int
}

type service struct {
	collections   docModel.CollectionStore
	documents     docModel.DocumentStore
	chunks        docModel.ChunkStore
	conversations docModel.ConversationStore
	blobs         docModel.BlobStore
	vectors       VectorIndex
	embedder      embedding.Embedder
	llmProvider   llm.Provider
	ingestor      Ingestor
	topK          int
	logger        *logger_i.Logger
}

func NewService(d Deps) Service {
	return &service{
		collections:   d.Collections,
		documents:     d.Documents,
		chunks:        d.Chunks,
		conversations: d.Conversations,
		blobs:         d.Blobs,
		vectors:       d.Vectors,
		embedder:      d.Embedder,
		llmProvider:   d.LLM,
		ingestor:      d.Ingestor,
		topK:          d.TopK,
		logger:        logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) AddDocument(ctx context.Context, collectionId, filename string, r io.Reader) (docModel.Document, error) {
	log := s.logger.WithContext(ctx).With("collectionId", collectionId, "filename", filename)
	if _, err := s.collections.GetCollection(ctx, collectionId); err != nil {
		return docModel.Document{}, err
	}

	doc := docModel.Document{
		Id:           docModel.NewDocumentId(),
		CollectionId: collectionId,
		Filename:     filename,
		Format:       docModel.FormatOf(filename),
		Status:       docModel.StatusUploading,
		UploadedAt:   time.Now().UTC(),
	}
	path, size, err := s.blobs.Save(ctx, doc.Id, filename, r)
	if err != nil {
		log.Error("could not store upload", "error", err)
		return docModel.Document{}, fmt.Errorf("storing upload: %w", err)
	}
	doc.FilePath = path
	doc.SizeBytes = size

	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, path); delErr != nil {
			log.Warn("could not remove orphaned upload", "path", path, "error", delErr)
		}
		return docModel.Document{}, fmt.Errorf("recording document: %w", err)
	}
	log.Info("document uploaded", "documentId", doc.Id, "size", size)
	return doc, nil
}

func (s *service) IngestDocument(ctx context.Context, documentId string) ingest.Outcome {
	return s.ingestor.Run(ctx, documentId)
}

func (s *service) DeleteDocumentArtifacts(ctx context.Context, documentId string) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("delete_document", time.Since(start)) }()

	doc, err := s.documents.GetDocument(ctx, documentId)
	if err != nil {
		return err
	}
	return s.deleteDocument(ctx, s.logger.WithContext(ctx), doc)
}

// deleteDocument stops at the first failure that would leave searchable
// leftovers, so a retry can finish the job. Blob removal is best effort.
func (s *service) deleteDocument(ctx context.Context, log *logger_i.Logger, doc docModel.Document) error {
	log = log.With("documentId", doc.Id)
	if err := s.vectors.DeleteByDocument(ctx, doc.CollectionId, doc.Id); err != nil {
		if ragErrors.KindOf(err) != ragErrors.VectorStoreUnavailable {
			return fmt.Errorf("deleting vectors of %s: %w", doc.Id, err)
		}
		log.Warn("no vector store, skipping vector deletion")
	}
	if err := s.chunks.DeleteChunks(ctx, doc.Id); err != nil {
		return fmt.Errorf("deleting chunks of %s: %w", doc.Id, err)
	}
	if doc.FilePath != "" {
		if err := s.blobs.Delete(ctx, doc.FilePath); err != nil {
			log.Warn("could not delete blob", "path", doc.FilePath, "error", err)
		}
	}
	if err := s.documents.DeleteDocument(ctx, doc.Id); err != nil {
		return fmt.Errorf("deleting document %s: %w", doc.Id, err)
	}
	log.Info("document deleted")
	return nil
}

func (s *service) DeleteCollectionArtifacts(ctx context.Context, collectionId string) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("delete_collection", time.Since(start)) }()
	log := s.logger.WithContext(ctx).With("collectionId", collectionId)

	if _, err := s.collections.GetCollection(ctx, collectionId); err != nil {
		return err
	}

	if err := s.vectors.DeleteNamespace(ctx, collectionId); err != nil {
		if ragErrors.KindOf(err) != ragErrors.VectorStoreUnavailable {
			return fmt.Errorf("deleting namespace %s: %w", collectionId, err)
		}
		log.Warn("no vector store, skipping namespace deletion")
	}

	docs, err := s.documents.ListDocuments(ctx, collectionId)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	var errs []error
	for _, doc := range docs {
		if err := s.chunks.DeleteChunks(ctx, doc.Id); err != nil {
			errs = append(errs, err)
			continue
		}
		if doc.FilePath != "" {
			if err := s.blobs.Delete(ctx, doc.FilePath); err != nil {
				log.Warn("could not delete blob", "documentId", doc.Id, "error", err)
			}
		}
		if err := s.documents.DeleteDocument(ctx, doc.Id); err != nil {
			errs = append(errs, err)
		}
	}

	convs, err := s.conversations.ListConversations(ctx, collectionId)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing conversations: %w", err))
	}
	for _, c := range convs {
		if err := s.conversations.DeleteConversation(ctx, c.Id); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("deleting collection %s: %w", collectionId, errors.Join(errs...))
	}

	if err := s.collections.DeleteCollection(ctx, collectionId); err != nil {
		return err
	}
	log.Info("collection deleted", "documents", len(docs), "conversations", len(convs))
	return nil
}

func (s *service) IndexStats(ctx context.Context) (vectorDB.IndexStats, error) {
	cols, err := s.collections.ListCollections(ctx)
	if err != nil {
		return vectorDB.IndexStats{}, err
	}
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.Id
	}
	return s.vectors.Stats(ctx, ids...)
}
