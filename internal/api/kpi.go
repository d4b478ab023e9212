package api

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
	"github.com/MikeSquared-Agency/Stratix/internal/trends"
)

const maxTrendDays = 365

type KPIHandler struct {
	store  store.Store
	engine *engine.Engine
	trends trends.Client
	logger *slog.Logger
}

func NewKPIHandler(s store.Store, e *engine.Engine, t trends.Client, logger *slog.Logger) *KPIHandler {
	return &KPIHandler{store: s, engine: e, trends: t, logger: logger}
}

// parseFilter reads the KPI query parameters into a store query and the
// engine filter applied on top of it.
func parseFilter(r *http.Request, p Principal) (store.ItemFilter, engine.Filter, *apiError) {
	q := r.URL.Query()
	var f engine.Filter

	requested, apiErr := parseUUIDParam(q.Get("area_id"), "area_id")
	if apiErr != nil {
		return store.ItemFilter{}, f, apiErr
	}
	if f.AreaID, apiErr = scopedArea(p, requested); apiErr != nil {
		return store.ItemFilter{}, f, apiErr
	}

	if s := q.Get("status"); s != "" {
		status := store.ItemStatus(s)
		switch status {
		case store.StatusPlanning, store.StatusInProgress, store.StatusCompleted, store.StatusOnHold:
		default:
			return store.ItemFilter{}, f, badRequest("invalid_status", "invalid status")
		}
		f.Status = &status
	}
	if s := q.Get("strategic"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return store.ItemFilter{}, f, badRequest("invalid_strategic", "invalid strategic flag")
		}
		f.Strategic = &b
	}
	f.Category = q.Get("category")
	if f.TargetFrom, apiErr = parseDateParam(q.Get("from"), "from"); apiErr != nil {
		return store.ItemFilter{}, f, apiErr
	}
	if f.TargetTo, apiErr = parseDateParam(q.Get("to"), "to"); apiErr != nil {
		return store.ItemFilter{}, f, apiErr
	}

	sf := store.ItemFilter{
		TenantID:  p.TenantID,
		AreaID:    f.AreaID,
		Status:    f.Status,
		Strategic: f.Strategic,
		Category:  f.Category,
	}
	return sf, f, nil
}

func (h *KPIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	sf, f, apiErr := parseFilter(r, p)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	items, err := h.store.ListItems(r.Context(), sf)
	if err != nil {
		internalError(err).write(w)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Summarize(f.Apply(items)))
}

func (h *KPIHandler) Areas(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	areaID, apiErr := scopedArea(p, nil)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	items, err := h.store.ListItems(r.Context(), store.ItemFilter{TenantID: p.TenantID, AreaID: areaID})
	if err != nil {
		internalError(err).write(w)
		return
	}
	areas, err := h.store.ListAreas(r.Context(), p.TenantID)
	if err != nil {
		internalError(err).write(w)
		return
	}
	names := make(map[uuid.UUID]string, len(areas))
	for _, a := range areas {
		names[a.ID] = a.Name
	}

	metrics := h.engine.SummarizeByArea(items)
	for i := range metrics {
		if metrics[i].AreaID != nil {
			metrics[i].AreaName = names[*metrics[i].AreaID]
		}
	}
	sort.SliceStable(metrics, func(i, j int) bool {
		a, b := metrics[i], metrics[j]
		if (a.AreaID == nil) != (b.AreaID == nil) {
			return b.AreaID == nil
		}
		return a.AreaName < b.AreaName
	})
	writeJSON(w, http.StatusOK, metrics)
}

type AreaResponse struct {
	engine.AreaMetrics
	Trend *trends.Series `json:"trend,omitempty"`
}

func (h *KPIHandler) Area(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	requested, apiErr := parseUUIDParam(chi.URLParam(r, "id"), "area_id")
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	areaID, apiErr := scopedArea(p, requested)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	days := 0
	if s := r.URL.Query().Get("trend_days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxTrendDays {
			badRequest("invalid_trend_days", "trend_days must be between 1 and 365").write(w)
			return
		}
		days = n
	}

	area, err := h.store.GetArea(r.Context(), p.TenantID, *areaID)
	if err != nil {
		internalError(err).write(w)
		return
	}
	if area == nil {
		writeError(w, http.StatusNotFound, "area_not_found", "area not found")
		return
	}

	items, err := h.store.ListItems(r.Context(), store.ItemFilter{TenantID: p.TenantID, AreaID: areaID})
	if err != nil {
		internalError(err).write(w)
		return
	}

	resp := AreaResponse{AreaMetrics: h.engine.SummarizeArea(areaID, items)}
	resp.AreaName = area.Name

	if days > 0 && h.trends != nil {
		series, err := h.trends.AreaTrend(r.Context(), p.TenantID, area.ID, days)
		if err != nil {
			h.logger.Warn("trend unavailable", "area_id", area.ID, "error", err)
		} else {
			resp.Trend = series
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
