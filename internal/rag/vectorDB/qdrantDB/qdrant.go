package qdrantDB

import (
	"context"
	"errors"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const (
	fieldRecordKey  = "record_key"
	fieldNamespace  = "namespace"
	fieldDocumentId = "document_id"
	fieldFilename   = "filename"
	fieldChunkIndex = "chunk_index"
	fieldText       = "text"
	fieldCharCount  = "char_count"
	fieldWordCount  = "word_count"
	fieldCreatedAt  = "created_at"

	scrollPageSize = 256
)

type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	Dimension  int
}

// Index stores points in a single qdrant collection. Record keys are not
// valid qdrant ids, so each key maps to a name-based uuid and the key itself
// rides along in the payload.
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     *logger_i.Logger
}

func New(cfg Config) (*Index, error) {
	if cfg.Collection == "" {
		return nil, ragErrors.Newf(ragErrors.InvalidInput, "qdrant connect", "empty collection name")
	}
	if cfg.Dimension <= 0 {
		return nil, ragErrors.Newf(ragErrors.InvalidInput, "qdrant connect", "dimension must be positive, got %d", cfg.Dimension)
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		APIKey:   cfg.APIKey,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, ragErrors.New(ragErrors.VectorStoreUnavailable, "qdrant connect", err)
	}
	return &Index{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		logger:     logger_i.NewLogger("Qdrant").With("collection", cfg.Collection),
	}, nil
}

func (q *Index) Close() error {
	q.logger.Info("Shutting down Qdrant")
	return q.client.Close()
}

// Ensure creates the collection and its payload indexes if missing, then
// waits for the collection to turn green. An existing collection must match
// the configured dimension and use cosine distance.
func (q *Index) Ensure(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return remote("qdrant ensure", err)
	}
	if exists {
		info, err := q.client.GetCollectionInfo(ctx, q.collection)
		if err != nil {
			return remote("qdrant ensure", err)
		}
		if err := checkVectorParams(info, q.dimension); err != nil {
			return err
		}
	} else {
		q.logger.Info("creating collection", "dimension", q.dimension)
		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return remote("qdrant create collection", err)
		}
		for _, field := range []string{fieldNamespace, fieldDocumentId} {
			_, err = q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: q.collection,
				Wait:           qdrant.PtrOf(true),
				FieldName:      field,
				FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			})
			if err != nil {
				return remote("qdrant create field index", err)
			}
		}
	}

	poll := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(config.VectorReadyPollInterval), config.VectorReadyPollAttempts),
		ctx,
	)
	return backoff.Retry(func() error {
		info, err := q.client.GetCollectionInfo(ctx, q.collection)
		if err != nil {
			return err
		}
		if info.GetStatus() != qdrant.CollectionStatus_Green {
			q.logger.Debug("collection not ready", "status", info.GetStatus().String())
			return errors.New("collection not ready")
		}
		return nil
	}, poll)
}

func checkVectorParams(info *qdrant.CollectionInfo, dimension int) error {
	const op = "qdrant ensure"
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return ragErrors.Newf(ragErrors.VectorStoreUnavailable, op, "collection has no single unnamed vector config")
	}
	if params.GetSize() != uint64(dimension) {
		return ragErrors.Newf(ragErrors.VectorStoreUnavailable, op,
			"collection has dimension %d, embeddings have %d; use another VECTOR_COLLECTION or recreate it", params.GetSize(), dimension)
	}
	if params.GetDistance() != qdrant.Distance_Cosine {
		return ragErrors.Newf(ragErrors.VectorStoreUnavailable, op, "collection uses %s distance, cosine is required", params.GetDistance().String())
	}
	return nil
}

func (q *Index) Upsert(ctx context.Context, points []vectorDB.Point) error {
	if len(points) == 0 {
		return nil
	}
	qPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		if len(p.Vector) != q.dimension {
			return ragErrors.Newf(ragErrors.InvalidInput, "qdrant upsert", "point %s has dimension %d, collection expects %d", p.Key, len(p.Vector), q.dimension)
		}
		payload, err := qdrant.TryValueMap(toMap(p.Payload))
		if err != nil {
			return ragErrors.New(ragErrors.InvalidInput, "qdrant upsert", err)
		}
		qPoints[i] = &qdrant.PointStruct{
			Id:      pointId(p.Key),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         qPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return remote("qdrant upsert", err)
	}
	return nil
}

func (q *Index) Query(ctx context.Context, vector []float32, limit int, filter vectorDB.Filter) ([]vectorDB.Hit, error) {
	result, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         toFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, remote("qdrant query", err)
	}

	hits := make([]vectorDB.Hit, 0, len(result))
	for _, sp := range result {
		p := fromMap(sp.GetPayload())
		hits = append(hits, vectorDB.Hit{Key: p.RecordKey, Score: sp.GetScore(), Payload: p})
	}
	return hits, nil
}

func (q *Index) Keys(ctx context.Context, filter vectorDB.Filter) ([]string, error) {
	var keys []string
	var offset *qdrant.PointId
	for {
		points, next, err := q.client.ScrollAndOffset(ctx, &qdrant.ScrollPoints{
			CollectionName: q.collection,
			Filter:         toFilter(filter),
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			WithPayload:    qdrant.NewWithPayloadInclude(fieldRecordKey),
		})
		if err != nil {
			return nil, remote("qdrant scroll", err)
		}
		for _, p := range points {
			keys = append(keys, p.GetPayload()[fieldRecordKey].GetStringValue())
		}
		if next == nil || len(points) == 0 {
			return keys, nil
		}
		offset = next
	}
}

func (q *Index) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]*qdrant.PointId, len(keys))
	for i, k := range keys {
		ids[i] = pointId(k)
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorIDs(ids),
	})
	if err != nil {
		return remote("qdrant delete", err)
	}
	return nil
}

func (q *Index) Count(ctx context.Context, filter vectorDB.Filter) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Filter:         toFilter(filter),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, remote("qdrant count", err)
	}
	return int(n), nil
}

func (q *Index) Describe(ctx context.Context) (vectorDB.IndexInfo, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return vectorDB.IndexInfo{}, remote("qdrant describe", err)
	}
	return vectorDB.IndexInfo{
		Name:       q.collection,
		Dimension:  q.dimension,
		Metric:     "cosine",
		PointCount: int(info.GetPointsCount()),
		Ready:      info.GetStatus() == qdrant.CollectionStatus_Green,
	}, nil
}

func pointId(key string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String())
}

func toFilter(f vectorDB.Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.Namespace != "" {
		must = append(must, qdrant.NewMatchKeyword(fieldNamespace, f.Namespace))
	}
	if f.DocumentId != "" {
		must = append(must, qdrant.NewMatchKeyword(fieldDocumentId, f.DocumentId))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func toMap(p vectorDB.Payload) map[string]any {
	return map[string]any{
		fieldRecordKey:  p.RecordKey,
		fieldNamespace:  p.Namespace,
		fieldDocumentId: p.DocumentId,
		fieldFilename:   p.Filename,
		fieldChunkIndex: p.ChunkIndex,
		fieldText:       p.Text,
		fieldCharCount:  p.CharCount,
		fieldWordCount:  p.WordCount,
		fieldCreatedAt:  p.CreatedAt,
	}
}

func fromMap(m map[string]*qdrant.Value) vectorDB.Payload {
	return vectorDB.Payload{
		RecordKey:  m[fieldRecordKey].GetStringValue(),
		Namespace:  m[fieldNamespace].GetStringValue(),
		DocumentId: m[fieldDocumentId].GetStringValue(),
		Filename:   m[fieldFilename].GetStringValue(),
		ChunkIndex: int(m[fieldChunkIndex].GetIntegerValue()),
		Text:       m[fieldText].GetStringValue(),
		CharCount:  int(m[fieldCharCount].GetIntegerValue()),
		WordCount:  int(m[fieldWordCount].GetIntegerValue()),
		CreatedAt:  m[fieldCreatedAt].GetIntegerValue(),
	}
}

func remote(op string, err error) error {
	return ragErrors.Remote(ragErrors.VectorStoreRemote, ragErrors.ReasonGeneric, op, err)
}
