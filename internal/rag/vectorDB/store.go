package vectorDB

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/pkg/logger_i"
)

type UpsertResult struct {
	Upserted     int `json:"upserted"`
	Successful   int `json:"successful"`
	Failed       int `json:"failed"`
	TotalInIndex int `json:"total_in_index"`
	// StoredIndexes are the chunk indexes whose vectors were written.
	StoredIndexes []int `json:"-"`
}

type Match struct {
	ID         string         `json:"id"`
	Score      float32        `json:"score"`
	DocumentID string         `json:"document_id"`
	Filename   string         `json:"filename"`
	ChunkIndex int            `json:"chunk_index"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type IndexStats struct {
	IndexInfo
	Namespaces map[string]int `json:"namespaces,omitempty"`
}

type Store struct {
	index     Index
	batchSize int
	textLimit int
	logger    *logger_i.Logger
}

func NewStore(index Index) *Store {
	return &Store{
		index:     index,
		batchSize: config.VectorUpsertBatchSize,
		textLimit: config.VectorMetadataTextLimit,
		logger:    logger_i.NewLogger("Vector Store"),
	}
}

func (s *Store) available(op string) error {
	if s == nil || s.index == nil {
		return ragErrors.Newf(ragErrors.VectorStoreUnavailable, op, "no vector index configured")
	}
	return nil
}

func (s *Store) Ensure(ctx context.Context) error {
	if err := s.available("vector ensure"); err != nil {
		return err
	}
	return s.index.Ensure(ctx)
}

// Upsert writes one point per chunk with a non-nil vector. Chunks without a
// vector and chunks in a failed sub-batch are counted as failed; neither
// aborts the rest.
func (s *Store) Upsert(ctx context.Context, namespace string, doc docModel.Document, chunks []docModel.Chunk, vectors [][]float32) (UpsertResult, error) {
	var res UpsertResult
	if err := s.available("vector upsert"); err != nil {
		return res, err
	}
	if len(chunks) != len(vectors) {
		return res, ragErrors.Newf(ragErrors.InvalidInput, "vector upsert", "got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	log := s.logger.WithContext(ctx).With("documentId", doc.Id, "namespace", namespace)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_upsert", time.Since(start)) }()

	created := time.Now().Unix()
	points := make([]Point, 0, len(chunks))
	indexes := make([]int, 0, len(chunks))
	for i, c := range chunks {
		if vectors[i] == nil {
			res.Failed++
			continue
		}
		points = append(points, Point{
			Key:    docModel.ChunkKey(doc.Id, c.Index),
			Vector: vectors[i],
			Payload: Payload{
				RecordKey:  docModel.ChunkKey(doc.Id, c.Index),
				Namespace:  namespace,
				DocumentId: doc.Id,
				Filename:   doc.Filename,
				ChunkIndex: c.Index,
				Text:       truncateText(c.Text, s.textLimit),
				CharCount:  utf8.RuneCountInString(c.Text),
				WordCount:  len(strings.Fields(c.Text)),
				CreatedAt:  created,
			},
		})
		indexes = append(indexes, c.Index)
	}

	for from := 0; from < len(points); from += s.batchSize {
		to := min(from+s.batchSize, len(points))
		if err := s.index.Upsert(ctx, points[from:to]); err != nil {
			log.Error("sub-batch upsert failed", "from", from, "to", to, "error", err)
			res.Failed += to - from
			continue
		}
		res.Successful += to - from
		res.StoredIndexes = append(res.StoredIndexes, indexes[from:to]...)
	}
	res.Upserted = res.Successful

	if total, err := s.index.Count(ctx, Filter{}); err != nil {
		log.Warn("could not read index size", "error", err)
	} else {
		res.TotalInIndex = total
	}

	log.Info("vectors upserted", "successful", res.Successful, "failed", res.Failed)
	return res, nil
}

// Search returns at most topK matches by descending score. A non-empty
// namespace restricts results to that namespace.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, namespace string) ([]Match, error) {
	if err := s.available("vector search"); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	hits, err := s.index.Query(ctx, vector, topK, Filter{Namespace: namespace})
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		if namespace != "" && h.Payload.Namespace != namespace {
			s.logger.WithContext(ctx).Warn("dropping out-of-namespace hit", "key", h.Key, "namespace", h.Payload.Namespace)
			continue
		}
		matches = append(matches, Match{
			ID:         h.Key,
			Score:      h.Score,
			DocumentID: h.Payload.DocumentId,
			Filename:   h.Payload.Filename,
			ChunkIndex: h.Payload.ChunkIndex,
			Text:       h.Payload.Text,
			Metadata: map[string]any{
				"namespace":  h.Payload.Namespace,
				"char_count": h.Payload.CharCount,
				"word_count": h.Payload.WordCount,
				"created_at": h.Payload.CreatedAt,
			},
		})
		if len(matches) == topK {
			break
		}
	}
	return matches, nil
}

// DeleteByDocument resolves matching keys first and deletes them by id.
// Nothing to delete is success.
func (s *Store) DeleteByDocument(ctx context.Context, namespace, documentId string) error {
	if err := s.available("vector delete"); err != nil {
		return err
	}
	return s.deleteMatching(ctx, Filter{Namespace: namespace, DocumentId: documentId})
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := s.available("vector delete"); err != nil {
		return err
	}
	if namespace == "" {
		return ragErrors.Newf(ragErrors.InvalidInput, "vector delete", "refusing to delete without a namespace")
	}
	return s.deleteMatching(ctx, Filter{Namespace: namespace})
}

func (s *Store) deleteMatching(ctx context.Context, f Filter) error {
	keys, err := s.index.Keys(ctx, f)
	if err != nil {
		return fmt.Errorf("listing vectors to delete: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	for from := 0; from < len(keys); from += config.VectorDeletePageSize {
		to := min(from+config.VectorDeletePageSize, len(keys))
		if err := s.index.Delete(ctx, keys[from:to]); err != nil {
			return fmt.Errorf("deleting vectors: %w", err)
		}
	}
	s.logger.WithContext(ctx).Info("vectors deleted", "count", len(keys), "namespace", f.Namespace, "documentId", f.DocumentId)
	return nil
}

// Stats describes the index and, when namespaces are given, the number of
// vectors in each.
func (s *Store) Stats(ctx context.Context, namespaces ...string) (IndexStats, error) {
	if err := s.available("vector stats"); err != nil {
		return IndexStats{}, err
	}
	info, err := s.index.Describe(ctx)
	if err != nil {
		return IndexStats{}, err
	}
	stats := IndexStats{IndexInfo: info}
	if len(namespaces) > 0 {
		stats.Namespaces = make(map[string]int, len(namespaces))
		for _, ns := range namespaces {
			n, err := s.index.Count(ctx, Filter{Namespace: ns})
			if err != nil {
				return stats, err
			}
			stats.Namespaces[ns] = n
		}
	}
	return stats, nil
}

func truncateText(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit]) + "..."
}
