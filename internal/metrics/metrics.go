package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var activePollJobs = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_poll_jobs",
	Help: "Number of ingestion jobs currently being polled",
})

var ingestedChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingested_chunks_total",
	Help: "Total number of chunks embedded and indexed",
})

var jobsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingest_jobs_completed_total",
	Help: "Ingestion jobs reaching a terminal state, labelled by state",
}, []string{"state"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementActivePollJobs() {
	activePollJobs.Inc()
}

func DecrementActivePollJobs() {
	activePollJobs.Dec()
}

func AddIngestedChunks(n int) {
	ingestedChunksTotal.Add(float64(n))
}

func JobCompleted(state string) {
	jobsCompletedTotal.WithLabelValues(state).Inc()
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
