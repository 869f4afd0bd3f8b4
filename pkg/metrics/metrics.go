package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Coordinator metrics (§4.3)
	MemNodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memoria_nodes_total",
			Help: "Total number of nodes by class and tier",
		},
		[]string{"class", "tier"},
	)

	MemEdgesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "memoria_edges_total",
			Help: "Total number of edges in the hot graph index",
		},
	)

	Promotions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memoria_promotions_total",
			Help: "Total number of records promoted between tiers, by class and destination tier",
		},
		[]string{"class", "tier"},
	)

	Demotions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memoria_demotions_total",
			Help: "Total number of records demoted between tiers, by class and destination tier",
		},
		[]string{"class", "tier"},
	)

	// Hot vector index metrics (§4.4)
	VectorCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "memoria_vector_index_count",
			Help: "Number of vectors currently stored in the hot vector index",
		},
	)

	VectorQueryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memoria_vector_query_total",
			Help: "Total number of top-k searches against the hot vector index",
		},
	)

	VectorQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memoria_vector_query_duration_seconds",
			Help:    "Hot vector index top-k search duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Hot graph index metrics (§4.5)
	GraphQueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memoria_graph_query_total",
			Help: "Total number of hot graph index traversal operations, by kind",
		},
		[]string{"kind"},
	)

	// Task scheduler metrics (§4.8)
	SchedulerQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memoria_scheduler_queue_depth",
			Help: "Current number of queued background tasks, by priority",
		},
		[]string{"priority"},
	)

	TaskExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memoria_task_executions_total",
			Help: "Total number of background task executions, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Route dispatch / transport metrics (§4.9, §6)
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memoria_api_requests_total",
			Help: "Total number of requests handled by route dispatch, by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memoria_api_request_duration_seconds",
			Help:    "Route dispatch request duration in seconds, by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(MemNodesTotal)
	prometheus.MustRegister(MemEdgesTotal)
	prometheus.MustRegister(Promotions)
	prometheus.MustRegister(Demotions)
	prometheus.MustRegister(VectorCount)
	prometheus.MustRegister(VectorQueryTotal)
	prometheus.MustRegister(VectorQueryDuration)
	prometheus.MustRegister(GraphQueryTotal)
	prometheus.MustRegister(SchedulerQueueDepth)
	prometheus.MustRegister(TaskExecutions)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
