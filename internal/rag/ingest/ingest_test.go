package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/chunk"
	"github.com/akolanti/docqa/internal/rag/embedding"
	"github.com/akolanti/docqa/internal/rag/extract"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/internal/rag/vectorDB/memoryDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 4

type fakeDocuments struct {
	mu       sync.Mutex
	docs     map[string]docModel.Document
	statuses []docModel.DocumentStatus
	failures int
	// honourCtx makes reads and writes fail once ctx is done, like sqlite.
	honourCtx bool
}

func newFakeDocuments(docs ...docModel.Document) *fakeDocuments {
	f := &fakeDocuments{docs: map[string]docModel.Document{}}
	for _, d := range docs {
		f.docs[d.Id] = d
		f.statuses = append(f.statuses, d.Status)
	}
	return f
}

func (f *fakeDocuments) CreateDocument(ctx context.Context, d docModel.Document) error {
	return f.UpdateDocument(ctx, d)
}

func (f *fakeDocuments) GetDocument(ctx context.Context, id string) (docModel.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.honourCtx && ctx.Err() != nil {
		return docModel.Document{}, ctx.Err()
	}
	d, ok := f.docs[id]
	if !ok {
		return d, ragErrors.Newf(ragErrors.NotFound, "get document", "document %s", id)
	}
	return d, nil
}

func (f *fakeDocuments) ListDocuments(ctx context.Context, collectionId string) ([]docModel.Document, error) {
	return nil, nil
}

func (f *fakeDocuments) UpdateDocument(ctx context.Context, d docModel.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.honourCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("database is locked")
	}
	f.docs[d.Id] = d
	f.statuses = append(f.statuses, d.Status)
	return nil
}

func (f *fakeDocuments) DeleteDocument(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

type fakeChunks struct {
	saved map[string][]docModel.Chunk
	err   error
}

func (f *fakeChunks) SaveChunks(ctx context.Context, documentId string, chunks []docModel.Chunk) error {
	if f.err != nil {
		return f.err
	}
	f.saved[documentId] = chunks
	return nil
}

func (f *fakeChunks) ListChunks(ctx context.Context, documentId string) ([]docModel.Chunk, error) {
	return f.saved[documentId], nil
}

func (f *fakeChunks) DeleteChunks(ctx context.Context, documentId string) error {
	delete(f.saved, documentId)
	return nil
}

type fakeExtractor struct {
	extract func(ctx context.Context, path string) (extract.Result, error)
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (extract.Result, error) {
	return f.extract(ctx, path)
}

func textExtractor(text string) *fakeExtractor {
	return &fakeExtractor{extract: func(ctx context.Context, path string) (extract.Result, error) {
		return extract.Result{Text: text, Format: docModel.FormatTXT, Metadata: extract.Metadata{WordCount: len(strings.Fields(text))}}, nil
	}}
}

// lengthProvider embeds a text as a vector derived from its length.
type lengthProvider struct {
	fail func(text string) bool
}

func (p *lengthProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if p.fail != nil && p.fail(t) {
			return nil, ragErrors.Remote(ragErrors.EmbeddingRemote, ragErrors.ReasonGeneric, "embed", errors.New("bad input"))
		}
		out[i] = []float32{1, float32(len(t) % 7), float32(len(t) % 5), 0.5}
	}
	return out, nil
}

func (p *lengthProvider) Model() string { return "test-embedding" }

type harness struct {
	docs     *fakeDocuments
	chunks   *fakeChunks
	index    *memoryDB.Index
	pipeline *Pipeline
}

func newHarness(t *testing.T, ext TextExtractor, provider embedding.Provider, opts chunk.Options) *harness {
	t.Helper()
	c, err := chunk.New(opts)
	require.NoError(t, err)

	h := &harness{
		docs: newFakeDocuments(docModel.Document{
			Id:           "doc_abc",
			CollectionId: "col_1",
			Filename:     "notes.txt",
			FilePath:     "/tmp/notes.txt",
			Status:       docModel.StatusUploading,
		}),
		chunks: &fakeChunks{saved: map[string][]docModel.Chunk{}},
		index:  memoryDB.New("test", testDim),
	}
	h.pipeline = NewPipeline(Deps{
		Documents: h.docs,
		Chunks:    h.chunks,
		Extractor: ext,
		Chunker:   c,
		Embedder:  embedding.NewClient(provider, testDim, embedding.WithBatchDelay(0), embedding.WithRetryInterval(0), embedding.WithMaxAttempts(1)),
		Vectors:   vectorDB.NewStore(h.index),
	})
	h.pipeline.statusInterval = 0
	return h
}

func threeParagraphs() string {
	p1 := strings.Repeat("Revenue grew in the northern region during the quarter. ", 4)
	p2 := strings.Repeat("Costs were flat because suppliers held their prices. ", 4)
	p3 := strings.Repeat("The outlook for next year remains cautiously positive. ", 4)
	return strings.TrimSpace(p1) + "\n\n" + strings.TrimSpace(p2) + "\n\n" + strings.TrimSpace(p3)
}

func TestRunThreeParagraphDocument(t *testing.T) {
	opts := chunk.Options{Size: 120, Overlap: 20, Strategy: chunk.Recursive}
	h := newHarness(t, textExtractor(threeParagraphs()), &lengthProvider{}, opts)

	out := h.pipeline.Run(context.Background(), "doc_abc")
	require.NoError(t, out.Err)
	assert.Equal(t, docModel.StatusReady, out.Status)
	assert.True(t, out.Indexed)
	assert.GreaterOrEqual(t, out.Chunks, 2)
	assert.Equal(t, out.Chunks, out.Stored)

	assert.Equal(t, []docModel.DocumentStatus{
		docModel.StatusUploading, docModel.StatusProcessing, docModel.StatusReady,
	}, h.docs.statuses)

	saved := h.chunks.saved["doc_abc"]
	require.Len(t, saved, out.Chunks)
	for i, c := range saved {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), opts.Size)
		assert.Equal(t, docModel.ChunkKey("doc_abc", i), c.Id)
		assert.Equal(t, c.Id, c.VectorId)
		assert.Equal(t, "test-embedding", c.EmbeddingModel)
	}

	doc, _ := h.docs.GetDocument(context.Background(), "doc_abc")
	assert.Equal(t, out.Chunks, doc.ChunkCount)
	assert.True(t, doc.Indexed)
	assert.NotNil(t, doc.ProcessedAt)

	n, _ := h.index.Count(context.Background(), vectorDB.Filter{Namespace: "col_1", DocumentId: "doc_abc"})
	assert.Equal(t, out.Chunks, n)
}

func TestRunEmbeddingUnavailableStillReady(t *testing.T) {
	h := newHarness(t, textExtractor(threeParagraphs()), nil, chunk.Options{Size: 120, Overlap: 20})

	out := h.pipeline.Run(context.Background(), "doc_abc")
	require.NoError(t, out.Err)
	assert.Equal(t, docModel.StatusReady, out.Status)
	assert.False(t, out.Indexed)
	assert.Greater(t, out.Chunks, 0)

	for _, c := range h.chunks.saved["doc_abc"] {
		assert.Empty(t, c.VectorId)
		assert.Empty(t, c.EmbeddingModel)
	}
	doc, _ := h.docs.GetDocument(context.Background(), "doc_abc")
	assert.False(t, doc.Indexed)
}

func TestRunPartialEmbeddingMarksOnlyStoredChunks(t *testing.T) {
	text := "alpha beta gamma.\n\nBROKEN delta epsilon.\n\nzeta eta theta."
	provider := &lengthProvider{fail: func(s string) bool { return strings.Contains(s, "BROKEN") }}
	h := newHarness(t, textExtractor(text), provider, chunk.Options{Size: 25, Overlap: 0})

	out := h.pipeline.Run(context.Background(), "doc_abc")
	require.NoError(t, out.Err)
	assert.True(t, out.Indexed)
	assert.Equal(t, 1, out.Failed)

	for _, c := range h.chunks.saved["doc_abc"] {
		if strings.Contains(c.Text, "BROKEN") {
			assert.Empty(t, c.VectorId)
		} else {
			assert.NotEmpty(t, c.VectorId)
		}
	}
}

func TestRunExtractionFailure(t *testing.T) {
	ext := &fakeExtractor{extract: func(ctx context.Context, path string) (extract.Result, error) {
		return extract.Result{}, ragErrors.Remote(ragErrors.ExtractionFailure, ragErrors.ReasonCorruptFile, "pdf extract", errors.New("malformed xref"))
	}}
	h := newHarness(t, ext, &lengthProvider{}, chunk.DefaultOptions())

	out := h.pipeline.Run(context.Background(), "doc_abc")
	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, ragErrors.ErrExtractionFailure))
	assert.Equal(t, docModel.StatusError, out.Status)

	doc, _ := h.docs.GetDocument(context.Background(), "doc_abc")
	assert.Equal(t, docModel.StatusError, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "malformed xref")
	assert.Empty(t, h.chunks.saved)
}

func TestRunChunkPersistenceFailure(t *testing.T) {
	h := newHarness(t, textExtractor("short text"), &lengthProvider{}, chunk.DefaultOptions())
	h.chunks.err = errors.New("disk full")

	out := h.pipeline.Run(context.Background(), "doc_abc")
	assert.Equal(t, docModel.StatusError, out.Status)
	doc, _ := h.docs.GetDocument(context.Background(), "doc_abc")
	assert.Contains(t, doc.ErrorMessage, "disk full")
}

func TestRunChunkPersistenceFailureRemovesVectors(t *testing.T) {
	h := newHarness(t, textExtractor(threeParagraphs()), &lengthProvider{}, chunk.Options{Size: 120, Overlap: 20})
	h.chunks.err = errors.New("FOREIGN KEY constraint failed")

	out := h.pipeline.Run(context.Background(), "doc_abc")
	assert.Equal(t, docModel.StatusError, out.Status)

	n, err := h.index.Count(context.Background(), vectorDB.Filter{Namespace: "col_1"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunDocumentDeletedDuringEmbedding(t *testing.T) {
	h := newHarness(t, textExtractor(threeParagraphs()), &lengthProvider{}, chunk.Options{Size: 120, Overlap: 20})
	h.pipeline.embedder = deletingEmbedder{Embedder: h.pipeline.embedder, docs: h.docs, id: "doc_abc"}

	out := h.pipeline.Run(context.Background(), "doc_abc")
	assert.True(t, errors.Is(out.Err, ragErrors.ErrNotFound))
	assert.Empty(t, h.chunks.saved)

	n, _ := h.index.Count(context.Background(), vectorDB.Filter{Namespace: "col_1"})
	assert.Zero(t, n)
}

// deletingEmbedder removes the document the way a concurrent DELETE would.
type deletingEmbedder struct {
	embedding.Embedder
	docs *fakeDocuments
	id   string
}

func (e deletingEmbedder) EmbedBatch(ctx context.Context, texts []string, batchSize int) [][]float32 {
	_ = e.docs.DeleteDocument(ctx, e.id)
	return e.Embedder.EmbedBatch(ctx, texts, batchSize)
}

func TestRunCancelledStillPersistsFinalStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ext := &fakeExtractor{extract: func(_ context.Context, path string) (extract.Result, error) {
		cancel()
		return extract.Result{Text: threeParagraphs(), Format: docModel.FormatTXT}, nil
	}}
	h := newHarness(t, ext, &lengthProvider{}, chunk.Options{Size: 120, Overlap: 20})
	h.docs.honourCtx = true

	out := h.pipeline.Run(ctx, "doc_abc")
	require.NoError(t, out.Err)

	doc, err := h.docs.GetDocument(context.Background(), "doc_abc")
	require.NoError(t, err)
	assert.Equal(t, out.Status, doc.Status)
	assert.NotEqual(t, docModel.StatusProcessing, doc.Status)
	assert.NotNil(t, doc.ProcessedAt)
}

func TestRunCancelledErrorStillPersisted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ext := &fakeExtractor{extract: func(_ context.Context, path string) (extract.Result, error) {
		cancel()
		return extract.Result{}, ragErrors.Newf(ragErrors.ExtractionFailure, "pdf extract", "page timeout")
	}}
	h := newHarness(t, ext, &lengthProvider{}, chunk.DefaultOptions())
	h.docs.honourCtx = true

	out := h.pipeline.Run(ctx, "doc_abc")
	assert.Equal(t, docModel.StatusError, out.Status)
	doc, _ := h.docs.GetDocument(context.Background(), "doc_abc")
	assert.Equal(t, docModel.StatusError, doc.Status)
}

func TestRunRetriesStatusPersistence(t *testing.T) {
	h := newHarness(t, textExtractor("short text"), &lengthProvider{}, chunk.DefaultOptions())
	h.docs.failures = 2

	out := h.pipeline.Run(context.Background(), "doc_abc")
	assert.Equal(t, docModel.StatusReady, out.Status)
	assert.Equal(t, []docModel.DocumentStatus{
		docModel.StatusUploading, docModel.StatusProcessing, docModel.StatusReady,
	}, h.docs.statuses)
}

func TestRunUnknownDocument(t *testing.T) {
	h := newHarness(t, textExtractor("x"), &lengthProvider{}, chunk.DefaultOptions())
	out := h.pipeline.Run(context.Background(), "doc_missing")
	assert.True(t, errors.Is(out.Err, ragErrors.ErrNotFound))
	assert.Empty(t, out.Status)
}

func TestRunEmptyDocumentIsReadyWithoutChunks(t *testing.T) {
	h := newHarness(t, textExtractor("   \n "), &lengthProvider{}, chunk.DefaultOptions())
	out := h.pipeline.Run(context.Background(), "doc_abc")
	require.NoError(t, out.Err)
	assert.Equal(t, docModel.StatusReady, out.Status)
	assert.False(t, out.Indexed)
	assert.Zero(t, out.Chunks)
}

func TestPageLocator(t *testing.T) {
	text := "[Page 1]\nfirst page text\n\n[Page 2]\nsecond page ünïcode text"
	idx := pageMarkers(text)
	require.Len(t, idx, 2)

	tests := []struct {
		offset int
		want   string
	}{
		{0, "page 1"},
		{10, "page 1"},
		{idx[1].offset, "page 2"},
		{utf8.RuneCountInString(text) - 4, "page 2"},
	}
	for _, tt := range tests {
		if got := idx.at(tt.offset); got != tt.want {
			t.Errorf("at(%d) = %q; want %q", tt.offset, got, tt.want)
		}
	}
	if got := pageIndex(nil).at(5); got != "" {
		t.Errorf("expected no locator without markers, got %q", got)
	}
}
