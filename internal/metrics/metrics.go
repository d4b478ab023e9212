// Package metrics exposes Prometheus collectors for the API, the KPI rollup and
// the weight editor. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
)

const namespace = "stratix"

type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	rollupRuns     *prometheus.CounterVec
	rollupDuration prometheus.Histogram

	averageProgress *prometheus.GaugeVec
	completionRate  *prometheus.GaugeVec
	onTimeRate      *prometheus.GaugeVec
	weightIssues    *prometheus.GaugeVec
	healthScore     *prometheus.GaugeVec
	criticalItems   *prometheus.GaugeVec

	editorSessions prometheus.Gauge
	autosaves      *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	tenant := []string{"tenant"}
	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		rollupRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rollup", Name: "tenants_total",
			Help: "Tenant rollups by result.",
		}, []string{"result"}),
		rollupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "rollup", Name: "tick_duration_seconds",
			Help:    "Duration of a full rollup pass over all tenants.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		averageProgress: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "kpi", Name: "average_progress",
			Help: "Weighted average progress percentage.",
		}, tenant),
		completionRate: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "kpi", Name: "completion_rate",
			Help: "Share of items completed.",
		}, tenant),
		onTimeRate: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "kpi", Name: "on_time_delivery_rate",
			Help: "Share of dated completed items delivered on time.",
		}, tenant),
		weightIssues: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "kpi", Name: "weight_issue_items",
			Help: "Items whose sub-unit weights fail validation.",
		}, tenant),
		healthScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "strategic", Name: "portfolio_health_score",
			Help: "Strategic portfolio health on a 0-10 scale.",
		}, tenant),
		criticalItems: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "strategic", Name: "critical_items",
			Help: "Strategic items flagged as critical.",
		}, tenant),

		editorSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "editor", Name: "sessions",
			Help: "Open weight editing sessions.",
		}),
		autosaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "editor", Name: "autosaves_total",
			Help: "Autosave attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveRollup(d time.Duration) {
	if m == nil {
		return
	}
	m.rollupDuration.Observe(d.Seconds())
}

// RollupResult counts one tenant rollup; result is "ok" or "error".
func (m *Metrics) RollupResult(result string) {
	if m == nil {
		return
	}
	m.rollupRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSummary(tenantID string, s engine.KPISummary) {
	if m == nil {
		return
	}
	m.averageProgress.WithLabelValues(tenantID).Set(float64(s.AverageProgress))
	m.completionRate.WithLabelValues(tenantID).Set(s.CompletionRate)
	m.onTimeRate.WithLabelValues(tenantID).Set(s.OnTimeDeliveryRate)
	m.weightIssues.WithLabelValues(tenantID).Set(float64(s.WeightIssueItems))
}

func (m *Metrics) ObserveStrategic(tenantID string, s engine.StrategicMetrics) {
	if m == nil {
		return
	}
	m.healthScore.WithLabelValues(tenantID).Set(s.PortfolioHealthScore)
	m.criticalItems.WithLabelValues(tenantID).Set(float64(len(s.CriticalItems)))
}

func (m *Metrics) SetEditorSessions(n int) {
	if m == nil {
		return
	}
	m.editorSessions.Set(float64(n))
}

// Autosave counts an autosave attempt; result is "saved", "invalid" or "error".
func (m *Metrics) Autosave(result string) {
	if m == nil {
		return
	}
	m.autosaves.WithLabelValues(result).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
