package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/internal/rag/chunk"
	"github.com/akolanti/docqa/internal/rag/embedding"
	"github.com/akolanti/docqa/internal/rag/extract"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/cenkalti/backoff/v4"
)

type TextExtractor interface {
	Extract(ctx context.Context, path string) (extract.Result, error)
}

type VectorWriter interface {
	Upsert(ctx context.Context, namespace string, doc docModel.Document, chunks []docModel.Chunk, vectors [][]float32) (vectorDB.UpsertResult, error)
	DeleteByDocument(ctx context.Context, namespace, documentId string) error
}

// Outcome is what one run did to one document. Err is set only when the
// document ended in error or could not be loaded.
type Outcome struct {
	DocumentId string
	Status     docModel.DocumentStatus
	Indexed    bool
	Chunks     int
	Stored     int
	Failed     int
	Err        error
}

// Pipeline moves a document from uploading through processing to ready or
// error. Stages run sequentially; past extraction every failure is logged
// and leaves the document ready but not indexed.
type Pipeline struct {
	documents docModel.DocumentStore
	chunks    docModel.ChunkStore
	extractor TextExtractor
	chunker   *chunk.Chunker
	embedder  embedding.Embedder
	vectors   VectorWriter

	batchSize      int
	statusRetries  uint64
	statusInterval time.Duration
	logger         *logger_i.Logger
}

type Deps struct {
	Documents docModel.DocumentStore
	Chunks    docModel.ChunkStore
	Extractor TextExtractor
	Chunker   *chunk.Chunker
	Embedder  embedding.Embedder
	// Vectors may be nil, in which case nothing is indexed.
	Vectors VectorWriter
}

func NewPipeline(d Deps) *Pipeline {
	return &Pipeline{
		documents:      d.Documents,
		chunks:         d.Chunks,
		extractor:      d.Extractor,
		chunker:        d.Chunker,
		embedder:       d.Embedder,
		vectors:        d.Vectors,
		batchSize:      config.EmbeddingBatchSize,
		statusRetries:  config.StatusPersistMaxRetries,
		statusInterval: config.StatusPersistRetryInterval,
		logger:         logger_i.NewLogger("Document Ingestion"),
	}
}

func (p *Pipeline) Run(ctx context.Context, documentId string) Outcome {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	log := p.logger.WithContext(ctx).With("documentId", documentId)
	out := Outcome{DocumentId: documentId}

	doc, err := p.documents.GetDocument(ctx, documentId)
	if err != nil {
		log.Error("could not load document", "error", err)
		out.Err = err
		return out
	}
	log = log.With("filename", doc.Filename, "collectionId", doc.CollectionId)

	doc.Status = docModel.StatusProcessing
	doc.ErrorMessage = ""
	p.persist(ctx, log, doc)

	ext := p.extract(ctx, doc)
	if ext.err != nil {
		log.Error("extraction failed", "error", ext.err)
		out.Err = ext.err
		return p.finishWithError(ctx, log, doc, ext.err, out)
	}
	doc.PageCount = ext.result.Metadata.PageCount
	doc.WordCount = ext.result.Metadata.WordCount

	chunks := p.split(doc, ext.result.Text)
	log.Debug("document chunked", "chunks", len(chunks), "words", doc.WordCount)

	emb := p.embed(ctx, chunks)

	// the document may have been deleted while it was being embedded
	if _, err := p.documents.GetDocument(ctx, doc.Id); errors.Is(err, ragErrors.ErrNotFound) {
		log.Warn("document gone before indexing, abandoning run", "error", err)
		out.Err = err
		return out
	}

	st := p.store(ctx, log, doc, chunks, emb)
	applyStored(chunks, st.stored, p.embedder.Model())

	if err := p.chunks.SaveChunks(ctx, doc.Id, chunks); err != nil {
		log.Error("saving chunks failed", "error", err)
		p.discardVectors(ctx, log, doc, st)
		out.Err = err
		return p.finishWithError(ctx, log, doc, err, out)
	}

	now := time.Now().UTC()
	doc.Status = docModel.StatusReady
	doc.ChunkCount = len(chunks)
	doc.Indexed = st.result.Successful > 0
	doc.ProcessedAt = &now
	p.persist(context.WithoutCancel(ctx), log, doc)

	out.Status = doc.Status
	out.Indexed = doc.Indexed
	out.Chunks = len(chunks)
	out.Stored = st.result.Successful
	out.Failed = st.result.Failed
	metrics.CaptureIngestOutcome(string(doc.Status), doc.Indexed)
	log.Info("document ready", "chunks", out.Chunks, "indexed", out.Indexed, "stored", out.Stored, "failed", out.Failed)
	return out
}

func (p *Pipeline) finishWithError(ctx context.Context, log *logger_i.Logger, doc docModel.Document, cause error, out Outcome) Outcome {
	now := time.Now().UTC()
	doc.Status = docModel.StatusError
	doc.ErrorMessage = cause.Error()
	doc.ProcessedAt = &now
	p.persist(context.WithoutCancel(ctx), log, doc)

	out.Status = doc.Status
	metrics.CaptureIngestOutcome(string(doc.Status), false)
	return out
}

// discardVectors removes what store wrote when the chunk rows it points at
// were never saved. Vector records exist only for stored chunks.
func (p *Pipeline) discardVectors(ctx context.Context, log *logger_i.Logger, doc docModel.Document, st storeOutcome) {
	if p.vectors == nil || len(st.stored) == 0 {
		return
	}
	if err := p.vectors.DeleteByDocument(context.WithoutCancel(ctx), doc.CollectionId, doc.Id); err != nil {
		log.Error("could not remove vectors of unsaved chunks", "error", err)
	}
}

// persist retries status writes briefly. A store that stays down only costs
// visibility; the run itself continues with the in-memory document.
func (p *Pipeline) persist(ctx context.Context, log *logger_i.Logger, doc docModel.Document) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.statusInterval), p.statusRetries),
		ctx,
	)
	err := backoff.Retry(func() error {
		return p.documents.UpdateDocument(ctx, doc)
	}, policy)
	if err != nil {
		log.Error("could not persist document status", "status", doc.Status, "error", err)
	}
}
