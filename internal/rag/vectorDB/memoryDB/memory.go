// Package memoryDB is an in-process cosine index. It backs
// VECTOR_BACKEND=memory and the tests.
package memoryDB

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/akolanti/docqa/internal/rag/vectorDB"
)

type Index struct {
	mu        sync.RWMutex
	name      string
	dimension int
	points    map[string]vectorDB.Point
}

func New(name string, dimension int) *Index {
	return &Index{
		name:      name,
		dimension: dimension,
		points:    make(map[string]vectorDB.Point),
	}
}

func (m *Index) Ensure(ctx context.Context) error {
	return ctx.Err()
}

func (m *Index) Upsert(ctx context.Context, points []vectorDB.Point) error {
	for _, p := range points {
		if len(p.Vector) != m.dimension {
			return fmt.Errorf("point %s has dimension %d, index expects %d", p.Key, len(p.Vector), m.dimension)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		m.points[p.Key] = p
	}
	return nil
}

func (m *Index) Query(ctx context.Context, vector []float32, limit int, filter vectorDB.Filter) ([]vectorDB.Hit, error) {
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("query has dimension %d, index expects %d", len(vector), m.dimension)
	}
	m.mu.RLock()
	hits := make([]vectorDB.Hit, 0, len(m.points))
	for _, p := range m.points {
		if !matches(p.Payload, filter) {
			continue
		}
		hits = append(hits, vectorDB.Hit{Key: p.Key, Score: cosine(vector, p.Vector), Payload: p.Payload})
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Key < hits[j].Key
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *Index) Keys(ctx context.Context, filter vectorDB.Filter) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k, p := range m.points {
		if matches(p.Payload, filter) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Index) Delete(ctx context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.points, k)
	}
	return nil
}

func (m *Index) Count(ctx context.Context, filter vectorDB.Filter) (int, error) {
	keys, err := m.Keys(ctx, filter)
	return len(keys), err
}

func (m *Index) Describe(ctx context.Context) (vectorDB.IndexInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return vectorDB.IndexInfo{
		Name:       m.name,
		Dimension:  m.dimension,
		Metric:     "cosine",
		PointCount: len(m.points),
		Ready:      true,
	}, nil
}

func matches(p vectorDB.Payload, f vectorDB.Filter) bool {
	if f.Namespace != "" && p.Namespace != f.Namespace {
		return false
	}
	if f.DocumentId != "" && p.DocumentId != f.DocumentId {
		return false
	}
	return true
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
