package api

import (
	"time"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string         `json:"id" example:"job_1a2b3c4d5e6f"`
	Type      string         `json:"type" example:"Ingest"`
	Result    Result         `json:"result"`
	Error     *OutgoingError `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time,omitempty"`
}

type OutgoingError struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"collection not found"`
	Kind    string `json:"kind,omitempty" example:"not_found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type ErrorResponse struct {
	Id    string        `json:"id,omitempty"`
	Error OutgoingError `json:"error"`
}

type IngestResult struct {
	DocumentId    string `json:"document_id"`
	Status        string `json:"document_status,omitempty"`
	Indexed       bool   `json:"indexed"`
	ChunkCount    int    `json:"chunk_count"`
	VectorsStored int    `json:"vectors_stored"`
	VectorsFailed int    `json:"vectors_failed"`
}

type Result struct {
	Status       string        `json:"status"`
	Step         string        `json:"step,omitempty"`
	CollectionId string        `json:"collection_id,omitempty"`
	Ingest       *IngestResult `json:"ingest,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type UploadResponse struct {
	Document docModel.Document `json:"document"`
	Job      InitJobResponse   `json:"job"`
}

type DeleteResponse struct {
	Id      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type ConversationResponse struct {
	Conversation docModel.Conversation `json:"conversation"`
	Messages     []docModel.Message    `json:"messages"`
}

type IndexStatsResponse struct {
	Index      vectorDB.IndexStats `json:"index"`
	Embeddings any                 `json:"embedding_usage,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty"`
}

// requests---------------------

type CollectionRequest struct {
	Name        string `json:"name" validate:"required" example:"Contracts 2025"`
	Description string `json:"description,omitempty"`
}

type QueryRequest struct {
	Question       string `json:"question" validate:"required" example:"What is the notice period?"`
	ConversationID string `json:"conversation_id,omitempty"`
	TopK           int    `json:"top_k,omitempty" example:"5"`
	IncludeSources *bool  `json:"include_sources,omitempty"`
}
