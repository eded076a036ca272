package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveAttempt("retry")
	m.ObserveAttempt("retry")
	m.ObserveAttempt("success")
	m.ObserveParse("markdown")
	m.ObserveHistoryFailure()
	m.ObserveModelCall("ollama/llama3.2", 1500*time.Millisecond, nil)
	m.ObserveModelCall("ollama/llama3.2", time.Second, errors.New("503"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generationAttempts.WithLabelValues("retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generationAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parseTotal.WithLabelValues("markdown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.historyFailures))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `meal_planner_model_request_duration_seconds_count{provider="ollama/llama3.2",status="error"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt("success")
		m.ObserveParse("json")
		m.ObserveModelCall("x", time.Second, nil)
		m.ObserveHistoryFailure()
	})
}
