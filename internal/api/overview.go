package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// Overview is the company-wide snapshot with a plain-language summary.
type Overview struct {
	TotalItems       int             `json:"total_items"`
	CompletedItems   int             `json:"completed_items"`
	Areas            int             `json:"areas"`
	OverallProgress  int             `json:"overall_progress"`
	CompletionRate   float64         `json:"completion_rate"`
	TotalBudget      decimal.Decimal `json:"total_budget"`
	TotalActualCost  decimal.Decimal `json:"total_actual_cost"`
	BudgetEfficiency float64         `json:"budget_efficiency"`
	Summary          string          `json:"summary"`
}

type OverviewHandler struct {
	store  store.Store
	engine *engine.Engine
	logger *slog.Logger
}

func NewOverviewHandler(s store.Store, e *engine.Engine, logger *slog.Logger) *OverviewHandler {
	return &OverviewHandler{store: s, engine: e, logger: logger}
}

func (h *OverviewHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	areaCount := len(areas)
	if areaID != nil {
		areaCount = 1
	}

	writeJSON(w, http.StatusOK, buildOverview(h.engine.Summarize(items), areaCount))
}

func buildOverview(s engine.KPISummary, areas int) Overview {
	o := Overview{
		TotalItems:       s.TotalItems,
		CompletedItems:   s.CompletedItems,
		Areas:            areas,
		OverallProgress:  s.AverageProgress,
		CompletionRate:   s.CompletionRate,
		TotalBudget:      s.TotalBudget,
		TotalActualCost:  s.TotalActualCost,
		BudgetEfficiency: budgetEfficiency(s.TotalBudget, s.TotalActualCost),
	}
	o.Summary = fmt.Sprintf(
		"The company has %d initiatives across %d areas. Average progress: %d%%. %d initiatives completed. Total budget: %s, spent: %s.",
		o.TotalItems, o.Areas, o.OverallProgress, o.CompletedItems,
		o.TotalBudget.StringFixed(2), o.TotalActualCost.StringFixed(2),
	)
	return o
}

// budgetEfficiency is (budget - actual) / budget as a percentage with one
// decimal. Without a budget nothing has been overspent, so it is 100.
func budgetEfficiency(budget, actual decimal.Decimal) float64 {
	if !budget.IsPositive() {
		return 100
	}
	return budget.Sub(actual).Div(budget).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}
