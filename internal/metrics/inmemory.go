package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests      uint64
	AuthFailures      map[string]uint64
	RateLimited       uint64
	ClassifierCalls   map[string]uint64
	EmailsIngested    uint64
	IngestFailures    uint64
	TasksCreated      uint64
	TasksUpdated      uint64
	TasksDeleted      uint64
	MailboxMessages   map[string]uint64
	ClassifierTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests      uint64
	rateLimited       uint64
	emailsIngested    uint64
	ingestFailures    uint64
	tasksCreated      uint64
	tasksUpdated      uint64
	tasksDeleted      uint64
	classifierTotalNs int64

	mu              sync.Mutex
	authFailures    map[string]uint64
	classifierCalls map[string]uint64
	mailboxMessages map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authFailures:    make(map[string]uint64),
		classifierCalls: make(map[string]uint64),
		mailboxMessages: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		HTTPRequests:      atomic.LoadUint64(&m.httpRequests),
		AuthFailures:      copyCounts(m.authFailures),
		RateLimited:       atomic.LoadUint64(&m.rateLimited),
		ClassifierCalls:   copyCounts(m.classifierCalls),
		EmailsIngested:    atomic.LoadUint64(&m.emailsIngested),
		IngestFailures:    atomic.LoadUint64(&m.ingestFailures),
		TasksCreated:      atomic.LoadUint64(&m.tasksCreated),
		TasksUpdated:      atomic.LoadUint64(&m.tasksUpdated),
		TasksDeleted:      atomic.LoadUint64(&m.tasksDeleted),
		MailboxMessages:   copyCounts(m.mailboxMessages),
		ClassifierTotalNs: atomic.LoadInt64(&m.classifierTotalNs),
	}
}

// ObserveHTTPRequest increments the request counter.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
}

// IncAuthFailure increments the auth failure counter for kind.
func (m *InMemoryRecorder) IncAuthFailure(kind string) {
	m.inc(m.authFailures, kind)
}

// IncRateLimited increments the rejected request counter.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	atomic.AddUint64(&m.rateLimited, 1)
}

// ObserveClassifierCall records a classifier call.
func (m *InMemoryRecorder) ObserveClassifierCall(outcome string, duration time.Duration) {
	m.inc(m.classifierCalls, outcome)
	atomic.AddInt64(&m.classifierTotalNs, duration.Nanoseconds())
}

// IncEmailIngested increments the ingested email counter.
func (m *InMemoryRecorder) IncEmailIngested(source string) {
	atomic.AddUint64(&m.emailsIngested, 1)
}

// IncIngestFailed increments the failed ingestion counter.
func (m *InMemoryRecorder) IncIngestFailed(source string) {
	atomic.AddUint64(&m.ingestFailures, 1)
}

// AddTasksCreated adds n to the created task counter.
func (m *InMemoryRecorder) AddTasksCreated(n int) {
	if n > 0 {
		atomic.AddUint64(&m.tasksCreated, uint64(n))
	}
}

// IncTaskUpdated increments task updated counter.
func (m *InMemoryRecorder) IncTaskUpdated() {
	atomic.AddUint64(&m.tasksUpdated, 1)
}

// IncTaskDeleted increments task deleted counter.
func (m *InMemoryRecorder) IncTaskDeleted() {
	atomic.AddUint64(&m.tasksDeleted, 1)
}

// IncMailboxMessage increments the mailbox counter for outcome.
func (m *InMemoryRecorder) IncMailboxMessage(outcome string) {
	m.inc(m.mailboxMessages, outcome)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
