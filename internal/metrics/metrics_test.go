package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun("file", "responded", 2*time.Second)
	m.ObserveRun("file", "responded", time.Second)
	m.ObserveRun("project", "failed", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("file", "responded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("project", "failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestAnalyzerStarted(t *testing.T) {
	m := New()
	done1 := m.AnalyzerStarted()
	done2 := m.AnalyzerStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.inflight))
	done1()
	done2()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
}

func TestRateLimited(t *testing.T) {
	m := New()
	m.RateLimited()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRun("file", "responded", time.Second)
	m.AnalyzerStarted()()
	m.RateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun("snippet", "responded", 300*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `unityctx_analyses_total{kind="snippet",stage="responded"} 1`)
	assert.Contains(t, string(body), "unityctx_analysis_duration_seconds_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}
