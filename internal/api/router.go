package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Stratix/internal/editor"
	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/metrics"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
	"github.com/MikeSquared-Agency/Stratix/internal/trends"
)

func NewRouter(s store.Store, e *engine.Engine, ed *editor.Manager, t trends.Client, m *metrics.Metrics, rateLimit int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware(m))

	kpi := NewKPIHandler(s, e, t, logger)
	overview := NewOverviewHandler(s, e, logger)
	items := NewItemsHandler(s, e, ed, logger)
	weights := NewWeightsHandler(e)
	strategic := NewStrategicHandler(s, e)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantMiddleware)
		if rateLimit > 0 {
			r.Use(RateLimitMiddleware(rateLimit))
		}

		r.Get("/kpi/summary", kpi.Summary)
		r.Get("/kpi/areas", kpi.Areas)
		r.Get("/kpi/areas/{id}", kpi.Area)
		r.Get("/overview", overview.Get)

		r.Get("/items/{id}/progress", items.Progress)
		r.Get("/items/{id}/status", items.Status)
		r.Post("/items/{id}/subunits/redistribute", items.Redistribute)
		r.Put("/items/{id}/subunits/weights", items.SaveWeights)
		r.Patch("/items/{id}/subunits/draft", items.Draft)
		r.Get("/items/{id}/subunits/draft", items.GetDraft)
		r.Delete("/items/{id}/subunits/draft", items.DiscardDraft)

		r.Post("/weights/validate", weights.Validate)
		r.Post("/weights/redistribute", weights.Redistribute)

		r.Group(func(r chi.Router) {
			r.Use(RequireElevatedRole)
			r.Get("/strategic/metrics", strategic.Metrics)
		})
	})

	return r
}

// NewMetricsRouter serves liveness, readiness and Prometheus metrics.
func NewMetricsRouter(s store.Store, g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database_unavailable", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}
