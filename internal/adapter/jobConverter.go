package adapter

import (
	"fmt"

	"github.com/akolanti/docqa/internal/api"
	"github.com/akolanti/docqa/internal/domain/jobModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/rag"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("/jobs/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.OutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.OutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:       string(job.Status),
		Step:         string(job.CurrentStep),
		CollectionId: job.JobPayload.CollectionId,
	}
	if job.JobType == jobModel.JobTypeIngest {
		result.Ingest = ToIngestResult(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		Type:      string(job.JobType),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToIngestResult(p jobModel.JobPayload) *api.IngestResult {
	if p.DocumentId == "" {
		return nil
	}
	return &api.IngestResult{
		DocumentId:    p.DocumentId,
		Status:        p.DocumentStatus,
		Indexed:       p.Indexed,
		ChunkCount:    p.ChunkCount,
		VectorsStored: p.VectorsStored,
		VectorsFailed: p.VectorsFailed,
	}
}

// ToQueryRequest defaults IncludeSources to true.
func ToQueryRequest(collectionId string, req api.QueryRequest) rag.QueryRequest {
	include := true
	if req.IncludeSources != nil {
		include = *req.IncludeSources
	}
	return rag.QueryRequest{
		CollectionID:   collectionId,
		Question:       req.Question,
		ConversationID: req.ConversationID,
		TopK:           req.TopK,
		IncludeSources: include,
	}
}

func BadRequest(id string, message string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Id: id,
		Error: api.OutgoingError{
			Code:    code,
			Message: message,
			Retry:   false,
		},
	}
}

func FromError(id string, err error, code int) api.ErrorResponse {
	res := BadRequest(id, err.Error(), code)
	res.Error.Kind = string(ragErrors.KindOf(err))
	res.Error.Retry = code >= 500
	return res
}
