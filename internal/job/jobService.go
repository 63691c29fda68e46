package job

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/jobModel"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/pkg/logger_i"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("JobService"),
	}
}

func (s *Service) SubmitIngest(ctx context.Context, doc docModel.Document) (jobModel.Job, error) {
	return s.submit(ctx, jobModel.JobTypeIngest, jobModel.IngestInit, jobModel.JobPayload{
		CollectionId:   doc.CollectionId,
		DocumentId:     doc.Id,
		DocumentStatus: string(doc.Status),
	})
}

func (s *Service) SubmitDeleteDocument(ctx context.Context, doc docModel.Document) (jobModel.Job, error) {
	return s.submit(ctx, jobModel.JobTypeDeleteDocument, jobModel.DeleteInit, jobModel.JobPayload{
		CollectionId: doc.CollectionId,
		DocumentId:   doc.Id,
	})
}

func (s *Service) SubmitDeleteCollection(ctx context.Context, collectionId string) (jobModel.Job, error) {
	return s.submit(ctx, jobModel.JobTypeDeleteCollection, jobModel.DeleteInit, jobModel.JobPayload{
		CollectionId: collectionId,
	})
}

func (s *Service) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}

func (s *Service) submit(ctx context.Context, jobType jobModel.JobType, step jobModel.InternalStatus, payload jobModel.JobPayload) (jobModel.Job, error) {
	j := jobModel.Job{
		Id:          docModel.NewJobId(),
		TraceId:     logger_i.TraceID(ctx),
		JobType:     jobType,
		JobPayload:  payload,
		CreatedTime: time.Now().UTC(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: step,
	}
	log := s.logger.WithContext(ctx).With("jobId", j.Id, "jobType", jobType)

	// saved before queueing so a status poll never misses it
	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("could not save queued job", "error", err)
	}

	metrics.IncrementJobsInQueue()

	// never wait for a slot, callers answer right after persisting
	select {
	case s.JobChannel <- j:
	case <-ctx.Done():
		return s.reject(ctx, log, j, ctx.Err())
	default:
		return s.reject(ctx, log, j, jobModel.ErrQueueFull)
	}
	log.Info("Created new job")

	// a new worker every RequestsPerNewWorkerCount jobs, and always for an
	// ingest since those hold a worker for a long time. Idle workers retire.
	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 || jobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		select {
		case s.DispatcherChannel <- true:
		default:
			log.Debug("dispatcher busy, signal dropped")
		}
	}
	return j, nil
}

func (s *Service) reject(ctx context.Context, log *logger_i.Logger, j jobModel.Job, cause error) (jobModel.Job, error) {
	metrics.DecrementJobsInQueue()
	j.Status = jobModel.JobStatusError
	j.CurrentStep = jobModel.Error
	j.EndTime = time.Now().UTC()
	j.Error = jobModel.JobError{Code: http.StatusServiceUnavailable, Message: cause.Error(), Retry: true}
	if err := s.JobStore.SaveJob(context.WithoutCancel(ctx), j); err != nil {
		log.Error("could not save rejected job", "error", err)
	}
	log.Warn("job not queued", "error", cause)
	return j, fmt.Errorf("queueing %s job: %w", j.JobType, cause)
}
