package vectorDB_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/internal/rag/vectorDB/memoryDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dim = 3

// flakyIndex fails every upsert call whose first key is in failKeys.
type flakyIndex struct {
	*memoryDB.Index
	failKeys map[string]bool
	upserts  int
}

func (f *flakyIndex) Upsert(ctx context.Context, points []vectorDB.Point) error {
	f.upserts++
	if len(points) > 0 && f.failKeys[points[0].Key] {
		return errors.New("request too large")
	}
	return f.Index.Upsert(ctx, points)
}

func fixture(docId string, n int) (docModel.Document, []docModel.Chunk, [][]float32) {
	doc := docModel.Document{Id: docId, Filename: docId + ".txt"}
	chunks := make([]docModel.Chunk, n)
	vectors := make([][]float32, n)
	for i := range chunks {
		chunks[i] = docModel.Chunk{DocumentId: docId, Index: i, Text: fmt.Sprintf("chunk %d of %s", i, docId)}
		vectors[i] = []float32{1, float32(i + 1), 0.5}
	}
	return doc, chunks, vectors
}

func TestUpsertSkipsNilVectors(t *testing.T) {
	s := vectorDB.NewStore(memoryDB.New("test", dim))
	doc, chunks, vectors := fixture("doc_a", 4)
	vectors[1] = nil

	res, err := s.Upsert(context.Background(), "col1", doc, chunks, vectors)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Successful)
	assert.Equal(t, 3, res.Upserted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 3, res.TotalInIndex)
	assert.Equal(t, []int{0, 2, 3}, res.StoredIndexes)
}

func TestUpsertLengthMismatch(t *testing.T) {
	s := vectorDB.NewStore(memoryDB.New("test", dim))
	doc, chunks, vectors := fixture("doc_a", 2)

	_, err := s.Upsert(context.Background(), "col1", doc, chunks, vectors[:1])
	assert.True(t, errors.Is(err, ragErrors.ErrInvalidInput))
}

func TestUpsertSubBatchFailureIsCounted(t *testing.T) {
	idx := &flakyIndex{Index: memoryDB.New("test", dim), failKeys: map[string]bool{"doc_big_chunk_100": true}}
	s := vectorDB.NewStore(idx)
	doc, chunks, vectors := fixture("doc_big", 250)

	res, err := s.Upsert(context.Background(), "col1", doc, chunks, vectors)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.upserts, "100 + 100 + 50")
	assert.Equal(t, 150, res.Successful)
	assert.Equal(t, 100, res.Failed)
	assert.Len(t, res.StoredIndexes, 150)
	assert.NotContains(t, res.StoredIndexes, 150)
}

func TestPayloadTextIsTruncated(t *testing.T) {
	s := vectorDB.NewStore(memoryDB.New("test", dim))
	doc := docModel.Document{Id: "doc_long"}
	chunks := []docModel.Chunk{{Index: 0, Text: strings.Repeat("ж", 6000)}}

	_, err := s.Upsert(context.Background(), "ns", doc, chunks, [][]float32{{1, 0, 0}})
	require.NoError(t, err)

	matches, err := s.Search(context.Background(), []float32{1, 0, 0}, 1, "ns")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, strings.Repeat("ж", 5000)+"...", matches[0].Text)
	assert.Equal(t, 6000, matches[0].Metadata["char_count"])
}

func TestSearchRoundTripAndNamespaceScope(t *testing.T) {
	s := vectorDB.NewStore(memoryDB.New("test", dim))
	ctx := context.Background()
	docA, chunksA, vecA := fixture("doc_a", 5)
	docB, chunksB, vecB := fixture("doc_b", 5)
	_, err := s.Upsert(ctx, "col_a", docA, chunksA, vecA)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "col_b", docB, chunksB, vecB)
	require.NoError(t, err)

	matches, err := s.Search(ctx, vecA[2], 3, "col_a")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "doc_a_chunk_2", matches[0].ID)
	assert.Greater(t, matches[0].Score, float32(0.99))
	for i, m := range matches {
		assert.Equal(t, "doc_a", m.DocumentID)
		if i > 0 {
			assert.GreaterOrEqual(t, matches[i-1].Score, m.Score)
		}
	}

	unscoped, err := s.Search(ctx, vecA[2], 10, "")
	require.NoError(t, err)
	assert.Len(t, unscoped, 10)
}

func TestDeleteByDocument(t *testing.T) {
	s := vectorDB.NewStore(memoryDB.New("test", dim))
	ctx := context.Background()
	docA, chunksA, vecA := fixture("doc_a", 3)
	docB, chunksB, vecB := fixture("doc_b", 3)
	_, _ = s.Upsert(ctx, "col", docA, chunksA, vecA)
	_, _ = s.Upsert(ctx, "col", docB, chunksB, vecB)

	require.NoError(t, s.DeleteByDocument(ctx, "col", "doc_a"))

	matches, err := s.Search(ctx, vecA[0], 10, "col")
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	for _, m := range matches {
		assert.NotEqual(t, "doc_a", m.DocumentID)
	}

	assert.NoError(t, s.DeleteByDocument(ctx, "col", "doc_missing"), "zero matches is success")
}

func TestDeleteNamespace(t *testing.T) {
	s := vectorDB.NewStore(memoryDB.New("test", dim))
	ctx := context.Background()
	docA, chunksA, vecA := fixture("doc_a", 3)
	docB, chunksB, vecB := fixture("doc_b", 2)
	_, _ = s.Upsert(ctx, "col_a", docA, chunksA, vecA)
	_, _ = s.Upsert(ctx, "col_b", docB, chunksB, vecB)

	require.NoError(t, s.DeleteNamespace(ctx, "col_a"))
	assert.Error(t, s.DeleteNamespace(ctx, ""))

	stats, err := s.Stats(ctx, "col_a", "col_b")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PointCount)
	assert.Equal(t, map[string]int{"col_a": 0, "col_b": 2}, stats.Namespaces)
	assert.Equal(t, dim, stats.Dimension)
}

func TestNilIndexIsUnavailable(t *testing.T) {
	s := vectorDB.NewStore(nil)
	_, err := s.Search(context.Background(), []float32{1, 0, 0}, 5, "ns")
	assert.True(t, errors.Is(err, ragErrors.ErrVectorStoreUnavailable))
}
