package rag_test

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/embedding"
	"github.com/akolanti/docqa/internal/rag/ingest"
	"github.com/akolanti/docqa/internal/rag/llm"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
)

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnEmbedOne func(ctx context.Context, text string) []float32
}

func (m *MockEmbedder) EmbedOne(ctx context.Context, text string) []float32 {
	if m.OnEmbedOne != nil {
		return m.OnEmbedOne(ctx, text)
	}
	return []float32{0.1, 0.2}
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string, batchSize int) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.EmbedOne(ctx, t)
	}
	return out
}

func (m *MockEmbedder) EstimateCost(texts []string) embedding.CostEstimate {
	return embedding.CostEstimate{TextCount: len(texts)}
}
func (m *MockEmbedder) Usage() embedding.Usage { return embedding.Usage{} }
func (m *MockEmbedder) Model() string { return "mock-embedding" }
func (m *MockEmbedder) Dimension() int { return 2 }

// MockVectors implements rag.VectorIndex
type MockVectors struct {
	OnSearch           func(ctx context.Context, v []float32, topK int, ns string) ([]vectorDB.Match, error)
	OnDeleteByDocument func(ctx context.Context, ns, docId string) error
	OnDeleteNamespace  func(ctx context.Context, ns string) error

	mu       sync.Mutex
	searches []int
}

func (m *MockVectors) Search(ctx context.Context, v []float32, topK int, ns string) ([]vectorDB.Match, error) {
	m.mu.Lock()
	m.searches = append(m.searches, topK)
	m.mu.Unlock()
	if m.OnSearch != nil {
		return m.OnSearch(ctx, v, topK, ns)
	}
	return nil, nil
}

func (m *MockVectors) DeleteByDocument(ctx context.Context, ns, docId string) error {
	if m.OnDeleteByDocument != nil {
		return m.OnDeleteByDocument(ctx, ns, docId)
	}
	return nil
}

func (m *MockVectors) DeleteNamespace(ctx context.Context, ns string) error {
	if m.OnDeleteNamespace != nil {
		return m.OnDeleteNamespace(ctx, ns)
	}
	return nil
}

func (m *MockVectors) Stats(ctx context.Context, namespaces ...string) (vectorDB.IndexStats, error) {
	stats := vectorDB.IndexStats{Namespaces: map[string]int{}}
	for _, ns := range namespaces {
		stats.Namespaces[ns] = 0
	}
	return stats, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, req llm.Request) (llm.Completion, error)
	Requests   []llm.Request
}

func (m *MockLLM) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	m.Requests = append(m.Requests, req)
	if m.OnComplete != nil {
		return m.OnComplete(ctx, req)
	}
	return llm.Completion{Text: "mocked llm response", PromptTokens: 1000, CompletionTokens: 500}, nil
}

func (m *MockLLM) Model() string { return "mock-llm" }

type MockIngestor struct {
	Ran []string
}

func (m *MockIngestor) Run(ctx context.Context, documentId string) ingest.Outcome {
	m.Ran = append(m.Ran, documentId)
	return ingest.Outcome{DocumentId: documentId, Status: docModel.StatusReady}
}

// memStores backs every store interface the service needs with maps.
type memStores struct {
	mu          sync.Mutex
	collections map[string]docModel.Collection
	documents   map[string]docModel.Document
	chunks      map[string][]docModel.Chunk
	convs       map[string]docModel.Conversation
	messages    map[string][]docModel.Message
	blobs       map[string]bool
	appendErr   error
}

func newMemStores() *memStores {
	return &memStores{
		collections: map[string]docModel.Collection{},
		documents:   map[string]docModel.Document{},
		chunks:      map[string][]docModel.Chunk{},
		convs:       map[string]docModel.Conversation{},
		messages:    map[string][]docModel.Message{},
		blobs:       map[string]bool{},
	}
}

func notFound(what, id string) error {
	return ragErrors.Newf(ragErrors.NotFound, "lookup", "%s %s not found", what, id)
}

func (m *memStores) CreateCollection(ctx context.Context, c docModel.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[c.Id] = c
	return nil
}

func (m *memStores) GetCollection(ctx context.Context, id string) (docModel.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[id]
	if !ok {
		return c, notFound("collection", id)
	}
	return c, nil
}

func (m *memStores) ListCollections(ctx context.Context) ([]docModel.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []docModel.Collection
	for _, c := range m.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (m *memStores) UpdateCollection(ctx context.Context, c docModel.Collection) error {
	return m.CreateCollection(ctx, c)
}

func (m *memStores) DeleteCollection(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, id)
	return nil
}

func (m *memStores) CreateDocument(ctx context.Context, d docModel.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[d.Id] = d
	return nil
}

func (m *memStores) GetDocument(ctx context.Context, id string) (docModel.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return d, notFound("document", id)
	}
	return d, nil
}

func (m *memStores) ListDocuments(ctx context.Context, collectionId string) ([]docModel.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []docModel.Document
	for _, d := range m.documents {
		if d.CollectionId == collectionId {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStores) UpdateDocument(ctx context.Context, d docModel.Document) error {
	return m.CreateDocument(ctx, d)
}

func (m *memStores) DeleteDocument(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
	return nil
}

func (m *memStores) SaveChunks(ctx context.Context, documentId string, chunks []docModel.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[documentId] = chunks
	return nil
}

func (m *memStores) ListChunks(ctx context.Context, documentId string) ([]docModel.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks[documentId], nil
}

func (m *memStores) DeleteChunks(ctx context.Context, documentId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, documentId)
	return nil
}

func (m *memStores) CreateConversation(ctx context.Context, c docModel.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[c.Id] = c
	return nil
}

func (m *memStores) GetConversation(ctx context.Context, id string) (docModel.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return c, notFound("conversation", id)
	}
	return c, nil
}

func (m *memStores) ListConversations(ctx context.Context, collectionId string) ([]docModel.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []docModel.Conversation
	for _, c := range m.convs {
		if c.CollectionId == collectionId {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStores) AppendMessages(ctx context.Context, conversationId string, msgs ...docModel.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.messages[conversationId] = append(m.messages[conversationId], msgs...)
	return nil
}

func (m *memStores) History(ctx context.Context, conversationId string, limit int) ([]docModel.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[conversationId]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (m *memStores) DeleteConversation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, id)
	delete(m.messages, id)
	return nil
}

func (m *memStores) Save(ctx context.Context, documentId, filename string, r io.Reader) (string, int64, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return "", 0, err
	}
	path := "/blobs/" + documentId + "_" + filename
	m.mu.Lock()
	m.blobs[path] = true
	m.mu.Unlock()
	return path, n, nil
}

func (m *memStores) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, path)
	return nil
}
