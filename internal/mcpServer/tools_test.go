package mcpServer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/akolanti/docqa/internal/data/sqlStore"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerer struct {
	OnQuery func(ctx context.Context, req rag.QueryRequest) (rag.AnswerResult, error)
	stats   vectorDB.IndexStats
	err     error
}

func (f *fakeAnswerer) Query(ctx context.Context, req rag.QueryRequest) (rag.AnswerResult, error) {
	return f.OnQuery(ctx, req)
}

func (f *fakeAnswerer) IndexStats(ctx context.Context) (vectorDB.IndexStats, error) {
	return f.stats, f.err
}

func newTestServer(t *testing.T, answerer *fakeAnswerer) (*Server, *sqlStore.Store) {
	t.Helper()
	db, err := sqlStore.Open(filepath.Join(t.TempDir(), "docqa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewServer(Deps{RAG: answerer, Collections: db, Documents: db})
	require.NoError(t, err)
	return s, db
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the question through with sources on", func(t *testing.T) {
		var got rag.QueryRequest
		s, _ := newTestServer(t, &fakeAnswerer{OnQuery: func(ctx context.Context, req rag.QueryRequest) (rag.AnswerResult, error) {
			got = req
			return rag.AnswerResult{
				Success:        true,
				Response:       "Thirty days.",
				ConversationID: "conv_000000000001",
				Sources:        []rag.Source{{DocumentID: "doc_1", Filename: "lease.pdf", ChunkIndex: 2, Score: 0.9}},
			}, nil
		}})

		_, out, err := s.handleAsk(ctx, nil, AskInput{CollectionID: "col-1", Question: "notice period?", TopK: 3})
		require.NoError(t, err)
		assert.True(t, got.IncludeSources)
		assert.Equal(t, 3, got.TopK)
		assert.Equal(t, "col-1", got.CollectionID)
		assert.True(t, out.Success)
		assert.Equal(t, "Thirty days.", out.Answer)
		require.Len(t, out.Sources, 1)
		assert.Equal(t, "lease.pdf", out.Sources[0].Filename)
	})

	t.Run("failed answer is output, not a tool error", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeAnswerer{OnQuery: func(ctx context.Context, req rag.QueryRequest) (rag.AnswerResult, error) {
			return rag.AnswerResult{
				Response: "I apologize",
				Failure:  &rag.Failure{Kind: ragErrors.GenerationUnavailable, Detail: "no language model configured"},
			}, nil
		}})

		_, out, err := s.handleAsk(ctx, nil, AskInput{CollectionID: "col-1", Question: "q"})
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "no language model configured", out.Error)
		assert.NotNil(t, out.Sources)
	})

	t.Run("unknown collection fails the call", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeAnswerer{OnQuery: func(ctx context.Context, req rag.QueryRequest) (rag.AnswerResult, error) {
			return rag.AnswerResult{}, ragErrors.Newf(ragErrors.NotFound, "query", "collection %s not found", req.CollectionID)
		}})

		_, _, err := s.handleAsk(ctx, nil, AskInput{CollectionID: "nope", Question: "q"})
		assert.ErrorIs(t, err, ragErrors.ErrNotFound)
	})
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()
	s, db := newTestServer(t, &fakeAnswerer{})

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, db.CreateCollection(ctx, docModel.Collection{Id: "col-1", Name: "Leases", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, db.CreateDocument(ctx, docModel.Document{
		Id: "doc_000000000001", CollectionId: "col-1", Filename: "lease.pdf", Format: docModel.FormatPDF,
		Status: docModel.StatusReady, Indexed: true, ChunkCount: 4, UploadedAt: now,
	}))

	_, out, err := s.handleListDocuments(ctx, nil, ListDocumentsInput{CollectionID: "col-1"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "lease.pdf", out.Documents[0].Filename)
	assert.Equal(t, "ready", out.Documents[0].Status)
	assert.Equal(t, 4, out.Documents[0].ChunkCount)

	_, cols, err := s.handleListCollections(ctx, nil, ListCollectionsInput{})
	require.NoError(t, err)
	require.Len(t, cols.Collections, 1)
	assert.Equal(t, 1, cols.Collections[0].DocumentCount)

	_, _, err = s.handleListDocuments(ctx, nil, ListDocumentsInput{CollectionID: "missing"})
	assert.ErrorIs(t, err, ragErrors.ErrNotFound)
}

func TestServer_handleIndexStats(t *testing.T) {
	s, _ := newTestServer(t, &fakeAnswerer{stats: vectorDB.IndexStats{
		IndexInfo:  vectorDB.IndexInfo{Name: "docqa-chunks", Dimension: 1536, PointCount: 12, Ready: true},
		Namespaces: map[string]int{"col-1": 12},
	}})

	_, out, err := s.handleIndexStats(context.Background(), nil, IndexStatsInput{})
	require.NoError(t, err)
	assert.True(t, out.Ready)
	assert.Equal(t, 12, out.Namespaces["col-1"])

	s2, _ := newTestServer(t, &fakeAnswerer{err: ragErrors.Newf(ragErrors.VectorStoreUnavailable, "stats", "no index")})
	_, _, err = s2.handleIndexStats(context.Background(), nil, IndexStatsInput{})
	assert.ErrorIs(t, err, ragErrors.ErrVectorStoreUnavailable)
}
