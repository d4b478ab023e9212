package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
)

func TestObserveSummary(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSummary("t1", engine.KPISummary{AverageProgress: 42, CompletionRate: 0.25, WeightIssueItems: 3})

	assert.Equal(t, 42.0, testutil.ToFloat64(m.averageProgress.WithLabelValues("t1")))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.completionRate.WithLabelValues("t1")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.weightIssues.WithLabelValues("t1")))
}

func TestObserveStrategic(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveStrategic("t1", engine.StrategicMetrics{
		PortfolioHealthScore: 7.5,
		CriticalItems:        []engine.CriticalItem{{}, {}},
	})
	assert.Equal(t, 7.5, testutil.ToFloat64(m.healthScore.WithLabelValues("t1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.criticalItems.WithLabelValues("t1")))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("GET", "/api/v1/kpi/summary", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/kpi/summary", 201, 10*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/kpi/summary", 404, 10*time.Millisecond)
	m.Autosave("saved")
	m.RollupResult("error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/kpi/summary", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/kpi/summary", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.autosaves.WithLabelValues("saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rollupRuns.WithLabelValues("error")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.ObserveSummary("t1", engine.KPISummary{})
		m.ObserveStrategic("t1", engine.StrategicMetrics{})
		m.SetEditorSessions(1)
		m.Autosave("saved")
		m.RollupResult("ok")
		m.ObserveRollup(time.Second)
	})
}
