package worker

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/jobModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/pkg/logger_i"
)

// executeJob runs on a context detached from the request that queued the
// job, bounded by jobTimeout.
func executeJob(j jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(j.JobType)+"_"+string(j.Status), time.Since(start))
	}()
	ctx, cancel := context.WithTimeout(logger_i.WithTraceID(context.Background(), j.TraceId), jobTimeout)
	defer cancel()
	log := logger.WithContext(ctx).With("jobId", j.Id, "jobType", j.JobType)
	log.Debug("Processing job")

	j.Status = jobModel.JobStatusRunning
	saveJobState(ctx, log, j)

	var err error
	switch j.JobType {
	case jobModel.JobTypeIngest:
		j.CurrentStep = jobModel.IngestProcessing
		saveJobState(ctx, log, j)
		j, err = ingestDocument(ctx, j)
	case jobModel.JobTypeDeleteDocument:
		j.CurrentStep = jobModel.DeleteProcessing
		saveJobState(ctx, log, j)
		err = _ragService.DeleteDocumentArtifacts(ctx, j.JobPayload.DocumentId)
	case jobModel.JobTypeDeleteCollection:
		j.CurrentStep = jobModel.DeleteProcessing
		saveJobState(ctx, log, j)
		err = _ragService.DeleteCollectionArtifacts(ctx, j.JobPayload.CollectionId)
	default:
		err = ragErrors.Newf(ragErrors.InvalidInput, "execute job", "unknown job type %q", j.JobType)
	}

	j.EndTime = time.Now().UTC()
	if err != nil {
		log.Error("job failed", "error", err)
		j.Status = jobModel.JobStatusError
		j.CurrentStep = jobModel.Error
		j.Error = toJobError(err)
	} else {
		j.Status = jobModel.JobStatusComplete
		j.CurrentStep = jobModel.Complete
		log.Info("job complete", "took", time.Since(start))
	}
	// a cancelled job context must not stop the final status from landing
	saveJobState(context.WithoutCancel(ctx), log, j)
}

func removeWorker(reason string) {
	atomic.AddInt64(&currentWorkerCount, -1)
	workerExited(reason)
}

func workerExited(reason string) {
	workerWaitGroup.Done()
	logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&currentWorkerCount))
	metrics.DecrementActiveWorkerCount()
}

func ingestDocument(ctx context.Context, j jobModel.Job) (jobModel.Job, error) {
	out := _ragService.IngestDocument(ctx, j.JobPayload.DocumentId)
	j.JobPayload.DocumentStatus = string(out.Status)
	j.JobPayload.Indexed = out.Indexed
	j.JobPayload.ChunkCount = out.Chunks
	j.JobPayload.VectorsStored = out.Stored
	j.JobPayload.VectorsFailed = out.Failed
	if out.Status == docModel.StatusError && out.Err == nil {
		return j, errors.New("document ended in error")
	}
	return j, out.Err
}

func toJobError(err error) jobModel.JobError {
	switch ragErrors.KindOf(err) {
	case ragErrors.NotFound:
		return jobModel.JobError{Code: http.StatusNotFound, Message: err.Error()}
	case ragErrors.UnsupportedFormat, ragErrors.ExtractionFailure, ragErrors.InvalidInput:
		return jobModel.JobError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return jobModel.JobError{Code: http.StatusGatewayTimeout, Message: err.Error(), Retry: true}
	}
	return jobModel.JobError{Code: http.StatusInternalServerError, Message: err.Error(), Retry: true}
}

func saveJobState(ctx context.Context, log *logger_i.Logger, j jobModel.Job) {
	if err := _jobService.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("Failed to update job status", "error", err, "status", j.Status)
	}
}
