package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mailtriage"

// PrometheusRecorder exposes metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	classifierCalls *prometheus.CounterVec
	classifierLat   prometheus.Histogram
	emailsIngested  *prometheus.CounterVec
	ingestFailures  *prometheus.CounterVec
	tasksCreated    prometheus.Counter
	tasksUpdated    prometheus.Counter
	tasksDeleted    prometheus.Counter
	mailboxMessages *prometheus.CounterVec
}

// NewPrometheus creates a recorder with its own registry, including Go runtime
// and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &PrometheusRecorder{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "auth_failures_total",
			Help: "Rejected requests by error kind.",
		}, []string{"kind"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"scope"}),
		classifierCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "classifier_calls_total",
			Help: "Classifier calls by outcome.",
		}, []string{"outcome"}),
		classifierLat: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "classifier_duration_seconds",
			Help:    "Classifier call latency.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		emailsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "emails_ingested_total",
			Help: "Emails committed with their tasks.",
		}, []string{"source"}),
		ingestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ingest_failures_total",
			Help: "Ingestion transactions rolled back.",
		}, []string{"source"}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_created_total",
			Help: "Tasks created during ingestion.",
		}),
		tasksUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_updated_total",
			Help: "Tasks updated.",
		}),
		tasksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_deleted_total",
			Help: "Tasks deleted.",
		}),
		mailboxMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "mailbox_messages_total",
			Help: "Mailbox messages processed by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		r.httpRequests, r.httpDuration, r.authFailures, r.rateLimited,
		r.classifierCalls, r.classifierLat, r.emailsIngested, r.ingestFailures,
		r.tasksCreated, r.tasksUpdated, r.tasksDeleted, r.mailboxMessages,
	)
	return r
}

// Handler serves the registry in Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveHTTPRequest records one served request.
func (r *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncAuthFailure records a rejected request.
func (r *PrometheusRecorder) IncAuthFailure(kind string) {
	r.authFailures.WithLabelValues(kind).Inc()
}

// IncRateLimited records a throttled request.
func (r *PrometheusRecorder) IncRateLimited(scope string) {
	r.rateLimited.WithLabelValues(scope).Inc()
}

// ObserveClassifierCall records one classifier call.
func (r *PrometheusRecorder) ObserveClassifierCall(outcome string, duration time.Duration) {
	r.classifierCalls.WithLabelValues(outcome).Inc()
	r.classifierLat.Observe(duration.Seconds())
}

// IncEmailIngested records a committed ingestion.
func (r *PrometheusRecorder) IncEmailIngested(source string) {
	r.emailsIngested.WithLabelValues(source).Inc()
}

// IncIngestFailed records a rolled back ingestion.
func (r *PrometheusRecorder) IncIngestFailed(source string) {
	r.ingestFailures.WithLabelValues(source).Inc()
}

// AddTasksCreated records tasks created by one ingestion.
func (r *PrometheusRecorder) AddTasksCreated(n int) {
	if n > 0 {
		r.tasksCreated.Add(float64(n))
	}
}

// IncTaskUpdated records a task update.
func (r *PrometheusRecorder) IncTaskUpdated() {
	r.tasksUpdated.Inc()
}

// IncTaskDeleted records a task deletion.
func (r *PrometheusRecorder) IncTaskDeleted() {
	r.tasksDeleted.Inc()
}

// IncMailboxMessage records one mailbox message outcome.
func (r *PrometheusRecorder) IncMailboxMessage(outcome string) {
	r.mailboxMessages.WithLabelValues(outcome).Inc()
}
