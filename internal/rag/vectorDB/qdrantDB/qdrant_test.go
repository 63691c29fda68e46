package qdrantDB

import (
	"errors"
	"testing"

	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
)

func TestPointIdIsStable(t *testing.T) {
	a := pointId("doc_1_chunk_0").GetUuid()
	b := pointId("doc_1_chunk_0").GetUuid()
	c := pointId("doc_1_chunk_1").GetUuid()
	if a != b {
		t.Errorf("expected same id for same key, got %s and %s", a, b)
	}
	if a == c {
		t.Errorf("expected different ids for different keys")
	}
}

func TestToFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter vectorDB.Filter
		want   int
	}{
		{"empty", vectorDB.Filter{}, 0},
		{"namespace", vectorDB.Filter{Namespace: "col_1"}, 1},
		{"both", vectorDB.Filter{Namespace: "col_1", DocumentId: "doc_1"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := toFilter(tt.filter)
			if tt.want == 0 {
				if f != nil {
					t.Errorf("expected nil filter, got %v", f)
				}
				return
			}
			if got := len(f.GetMust()); got != tt.want {
				t.Errorf("expected %d conditions, got %d", tt.want, got)
			}
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	in := vectorDB.Payload{
		RecordKey:  "doc_1_chunk_3",
		Namespace:  "col_1",
		DocumentId: "doc_1",
		Filename:   "report.pdf",
		ChunkIndex: 3,
		Text:       "revenue grew",
		CharCount:  12,
		WordCount:  2,
		CreatedAt:  1700000000,
	}
	values, err := qdrant.TryValueMap(toMap(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := fromMap(values); out != in {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}

func collectionInfo(size uint64, distance qdrant.Distance) *qdrant.CollectionInfo {
	return &qdrant.CollectionInfo{
		Config: &qdrant.CollectionConfig{
			Params: &qdrant.CollectionParams{
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{Size: size, Distance: distance}),
			},
		},
	}
}

func TestCheckVectorParams(t *testing.T) {
	tests := []struct {
		name    string
		info    *qdrant.CollectionInfo
		wantErr bool
	}{
		{"matching", collectionInfo(768, qdrant.Distance_Cosine), false},
		{"other dimension", collectionInfo(1536, qdrant.Distance_Cosine), true},
		{"other distance", collectionInfo(768, qdrant.Distance_Dot), true},
		{"no config", &qdrant.CollectionInfo{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkVectorParams(tt.info, 768)
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkVectorParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ragErrors.ErrVectorStoreUnavailable) {
				t.Errorf("expected VectorStoreUnavailable, got %v", err)
			}
		})
	}
}
