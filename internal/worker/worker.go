package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/job"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/internal/rag/ingest"
	"github.com/akolanti/docqa/pkg/logger_i"
)

// JobRunner is the slice of rag.Service the workers need.
type JobRunner interface {
	IngestDocument(ctx context.Context, documentId string) ingest.Outcome
	DeleteDocumentArtifacts(ctx context.Context, documentId string) error
	DeleteCollectionArtifacts(ctx context.Context, collectionId string) error
}

var (
	_jobService        *job.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             = logger_i.NewLogger("WorkerPool")
	_ragService        JobRunner
	minWorkerCount     = config.MinWorkerCount
	jobTimeout         = config.IngestJobTimeout
	idleTimeout        = config.IdleWorkerTimeout
)

func InitServices(jobService *job.Service, ragService JobRunner) {
	_jobService = jobService
	_ragService = ragService
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	createWorker()
	go dispatcher(dispatcherChannel, stopWorkerChannel)
}

func dispatcher(signals <-chan bool, stop <-chan bool) {
	logger.Info("Dispatcher started")
	for {
		select {
		case <-signals:
			if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
				logger.Info("Creating new worker", "workerCount", atomic.LoadInt64(&currentWorkerCount))
				createWorker()
			}
		case <-stop:
			logger.Info("Dispatcher stopped")
			return
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go worker()
	logger.Debug("Created new worker")
}

// reserveRetirement decrements the worker count unless that would drop it
// below minWorkerCount. Concurrently idle workers cannot both pass.
func reserveRetirement() bool {
	for {
		count := atomic.LoadInt64(&currentWorkerCount)
		if count <= atomic.LoadInt64(&minWorkerCount) {
			return false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, count, count-1) {
			return true
		}
	}
}

func worker() {
	stop := stopWorkerChannel
	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			executeJob(currentJob)
			idle.Reset(idleTimeout)

		case <-stop:
			removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			if reserveRetirement() {
				workerExited("Idle worker timeout")
				return
			}
			idle.Reset(idleTimeout)
		}
	}
}
