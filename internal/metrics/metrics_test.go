package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("upload", 200, 150*time.Millisecond)
	m.ObserveRequest("upload", 0, time.Second)
	m.ObserveRequest("upload", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RemoteRequests.WithLabelValues("upload", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteRequests.WithLabelValues("upload", "network")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RemoteDuration))
}

func TestWorkflowCounters(t *testing.T) {
	m := New()
	m.WorkflowStarted("manual_run")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkflowsActive))

	m.WorkflowSettled("manual_run", "ok")
	m.BusyRejected("load_latest")
	m.BusyRejected("load_latest")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.WorkflowsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Workflows.WithLabelValues("manual_run", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BusyRejections))
}

func TestHandler(t *testing.T) {
	m := New()
	m.BusyRejected("x")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), "alloc_admin_busy_rejections_total 1"))
}

func TestWatchDroppedEvents(t *testing.T) {
	m := New()
	var dropped int64 = 3
	m.WatchDroppedEvents(func() int64 { return dropped })

	n, err := testutil.GatherAndCount(m.Registry(), "alloc_admin_events_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "alloc_admin_events_dropped_total 3")
}
