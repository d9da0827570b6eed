package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resale/internal/metrics"
)

type captured struct {
	method string
	path   string
	body   []byte
}

func newGateway(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var reqs []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, captured{r.Method, r.URL.Path, body})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), reqs...)
	}
}

func TestNewBackend_Validation(t *testing.T) {
	_, err := NewBackend("", "http://localhost:9091")
	require.Error(t, err)
	_, err = NewBackend("hdb", " ")
	require.Error(t, err)
}

func TestFlush_PushesRegistry(t *testing.T) {
	srv, reqs := newGateway(t, http.StatusOK)

	b, err := NewBackend("hdb_resale", srv.URL)
	require.NoError(t, err)

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "dedupe", "status": "ok"})
	b.IncCounter(metrics.RecordsTotal, 42, metrics.Labels{"kind": "read"})
	b.IncCounter("unknown_metric", 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.02, metrics.Labels{"step": "dedupe", "status": "ok"})

	require.NoError(t, b.Flush())

	got := reqs()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/metrics/job/hdb_resale", got[0].path)
	assert.Contains(t, string(got[0].body), metrics.RecordsTotal)
	assert.Contains(t, string(got[0].body), metrics.StepDurationSeconds)
}

func TestFlush_GatewayError(t *testing.T) {
	srv, _ := newGateway(t, http.StatusInternalServerError)

	b, err := NewBackend("hdb_resale", srv.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "read"})

	err = b.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompush: push")
}
