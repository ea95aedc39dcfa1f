package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure(kind string) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(scope string) {}

// ObserveClassifierCall is a no-op.
func (n *NoopRecorder) ObserveClassifierCall(outcome string, duration time.Duration) {}

// IncEmailIngested is a no-op.
func (n *NoopRecorder) IncEmailIngested(source string) {}

// IncIngestFailed is a no-op.
func (n *NoopRecorder) IncIngestFailed(source string) {}

// AddTasksCreated is a no-op.
func (n *NoopRecorder) AddTasksCreated(count int) {}

// IncTaskUpdated is a no-op.
func (n *NoopRecorder) IncTaskUpdated() {}

// IncTaskDeleted is a no-op.
func (n *NoopRecorder) IncTaskDeleted() {}

// IncMailboxMessage is a no-op.
func (n *NoopRecorder) IncMailboxMessage(outcome string) {}
