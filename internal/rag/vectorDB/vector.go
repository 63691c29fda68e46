package vectorDB

import "context"

// Payload is the metadata stored next to each vector. Namespace is the owning
// collection id and is the only isolation between collections.
type Payload struct {
	RecordKey  string `json:"record_key"`
	Namespace  string `json:"namespace"`
	DocumentId string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	CharCount  int    `json:"char_count"`
	WordCount  int    `json:"word_count"`
	CreatedAt  int64  `json:"created_at"`
}

type Point struct {
	Key     string
	Vector  []float32
	Payload Payload
}

// Filter fields are ANDed; empty fields do not constrain.
type Filter struct {
	Namespace  string
	DocumentId string
}

type Hit struct {
	Key     string
	Score   float32
	Payload Payload
}

type IndexInfo struct {
	Name       string `json:"name"`
	Dimension  int    `json:"dimension"`
	Metric     string `json:"metric"`
	PointCount int    `json:"point_count"`
	Ready      bool   `json:"ready"`
}

// Index is the backing similarity index. Implementations must be safe for
// concurrent use.
type Index interface {
	// Ensure creates the index if needed and blocks until it is usable.
	Ensure(ctx context.Context) error
	Upsert(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, limit int, filter Filter) ([]Hit, error)
	// Keys lists the record keys matching filter. Backends without
	// delete-by-filter use this to resolve ids before Delete.
	Keys(ctx context.Context, filter Filter) ([]string, error)
	Delete(ctx context.Context, keys []string) error
	Count(ctx context.Context, filter Filter) (int, error)
	Describe(ctx context.Context) (IndexInfo, error)
}
