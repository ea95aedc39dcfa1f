// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by recorders.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// HTTP metrics, route is the chi route pattern
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	IncAuthFailure(kind string)
	IncRateLimited(scope string)

	// Classifier metrics
	ObserveClassifierCall(outcome string, duration time.Duration)

	// Ingestion metrics, source is "api" or "mailbox"
	IncEmailIngested(source string)
	IncIngestFailed(source string)
	AddTasksCreated(n int)

	// Task management metrics
	IncTaskUpdated()
	IncTaskDeleted()

	// Mailbox poller metrics
	IncMailboxMessage(outcome string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
