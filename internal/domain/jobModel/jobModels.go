package jobModel

import (
	"context"
	"errors"
	"time"
)

// ErrQueueFull is returned by submissions when every queue slot is taken.
var ErrQueueFull = errors.New("job queue is full")

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
	DeleteInit       InternalStatus = "DeleteInit"
	DeleteProcessing InternalStatus = "DeleteProcessing"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeIngest           JobType = "Ingest"
	JobTypeDeleteDocument   JobType = "DeleteDocument"
	JobTypeDeleteCollection JobType = "DeleteCollection"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// JobPayload names the target of the job. Ingest results are copied back
// so a finished job can be polled without reading the document.
type JobPayload struct {
	CollectionId string `json:"collection_id,omitempty"`
	DocumentId   string `json:"document_id,omitempty"`

	DocumentStatus string `json:"document_status,omitempty"`
	Indexed        bool   `json:"indexed,omitempty"`
	ChunkCount     int    `json:"chunk_count,omitempty"`
	VectorsStored  int    `json:"vectors_stored,omitempty"`
	VectorsFailed  int    `json:"vectors_failed,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
