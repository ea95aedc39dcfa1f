package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	m := NewInMemory()
	m.ObserveHTTPRequest("GET", "/api/v1/emails", 200, time.Millisecond)
	m.IncAuthFailure("TENANT_MISMATCH")
	m.IncAuthFailure("TENANT_MISMATCH")
	m.ObserveClassifierCall(OutcomeSuccess, 10*time.Millisecond)
	m.IncEmailIngested("api")
	m.AddTasksCreated(3)
	m.AddTasksCreated(0)
	m.IncTaskDeleted()

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.HTTPRequests)
	assert.Equal(t, uint64(2), snap.AuthFailures["TENANT_MISMATCH"])
	assert.Equal(t, uint64(1), snap.ClassifierCalls[OutcomeSuccess])
	assert.Equal(t, uint64(1), snap.EmailsIngested)
	assert.Equal(t, uint64(3), snap.TasksCreated)
	assert.Equal(t, uint64(1), snap.TasksDeleted)

	// Snapshot maps are copies.
	snap.AuthFailures["TENANT_MISMATCH"] = 99
	assert.Equal(t, uint64(2), m.Snapshot().AuthFailures["TENANT_MISMATCH"])
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	r := NewPrometheus()
	r.ObserveHTTPRequest("GET", "/api/v1/tasks", 200, 5*time.Millisecond)
	r.IncEmailIngested("mailbox")
	r.AddTasksCreated(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.tasksCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.emailsIngested.WithLabelValues("mailbox")))

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `mailtriage_http_requests_total{method="GET",route="/api/v1/tasks",status="200"} 1`))
	assert.Contains(t, string(body), "mailtriage_tasks_created_total 2")
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoop()
	r.ObserveHTTPRequest("GET", "/", 200, time.Second)
	r.IncMailboxMessage(OutcomeFailure)
}
