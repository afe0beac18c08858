package telemetry

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

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics()
	m.Observe("ask", OutcomeSuccess, 120*time.Millisecond)
	m.Observe("ask", OutcomeFailure, 10*time.Millisecond)
	m.Observe("ask", OutcomeSkipped, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("ask", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("ask", OutcomeSkipped)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.Observe("ingest", OutcomeSuccess, time.Second)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), `chromaseek_workflow_total{outcome="success",workflow="ingest"} 1`))

	resp, err = http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
