package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var ingestOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docqa_ingest_documents_total",
	Help: "Documents that finished ingestion, by final status and whether vectors were stored.",
}, []string{"status", "indexed"})

var embeddingTokens = promauto.NewCounter(prometheus.CounterOpts{
	Name: "docqa_embedding_tokens_total",
	Help: "Estimated tokens sent to the embedding service.",
})

var estimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docqa_estimated_cost_usd_total",
	Help: "Estimated spend by service.",
}, []string{"service"})

var generationTokens = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docqa_generation_tokens_total",
	Help: "Tokens reported by the language model.",
}, []string{"kind"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach Flush on the underlying writer,
// which the MCP streaming endpoint needs.
func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "job_duration_seconds",
	Help:    "Time spent running a background job.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 300},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureIngestOutcome(status string, indexed bool) {
	idx := "false"
	if indexed {
		idx = "true"
	}
	ingestOutcomes.WithLabelValues(status, idx).Inc()
}

func CaptureEmbeddingUsage(tokens int, cost float64) {
	embeddingTokens.Add(float64(tokens))
	estimatedCost.WithLabelValues("embedding").Add(cost)
}

func CaptureGenerationUsage(promptTokens, completionTokens int, cost float64) {
	generationTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	generationTokens.WithLabelValues("completion").Add(float64(completionTokens))
	estimatedCost.WithLabelValues("generation").Add(cost)
}

var httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_request_duration_seconds",
	Help:    "HTTP request latency by route pattern.",
	Buckets: prometheus.DefBuckets,
}, []string{"path"})

func CaptureHttpRequest(path string, status int, timeElapsed time.Duration) {
	HttpRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(path).Observe(timeElapsed.Seconds())
}
