package engine

import (
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// KPISummary aggregates a scoped collection of items. Rates are decimals in
// [0, 1] except AverageProgress, which is a percentage.
type KPISummary struct {
	TotalItems      int `json:"total_items"`
	CompletedItems  int `json:"completed_items"`
	InProgressItems int `json:"in_progress_items"`
	PlanningItems   int `json:"planning_items"`
	OnHoldItems     int `json:"on_hold_items"`
	StrategicItems  int `json:"strategic_items"`

	AverageProgress         int     `json:"average_progress"`
	CompletionRate          float64 `json:"completion_rate"`
	OnTimeDeliveryRate      float64 `json:"on_time_delivery_rate"`
	BudgetAdherenceRate     float64 `json:"budget_adherence_rate"`
	StrategicCompletionRate float64 `json:"strategic_completion_rate"`

	TotalBudget     decimal.Decimal `json:"total_budget"`
	TotalActualCost decimal.Decimal `json:"total_actual_cost"`

	// WeightIssueItems counts sub-unit driven items whose weights fail validation.
	WeightIssueItems int `json:"weight_issue_items"`
}

// Aggregator folds item collections into summaries. It never filters; callers
// scope the collection first (see Filter).
type Aggregator struct {
	calc      *Calculator
	validator *Validator
}

func NewAggregator(calc *Calculator, validator *Validator) *Aggregator {
	return &Aggregator{calc: calc, validator: validator}
}

// Summarize computes the KPI summary of items. An empty collection yields a
// zero-valued summary.
func (a *Aggregator) Summarize(items []*store.Item) KPISummary {
	var t tally
	for _, item := range items {
		if item == nil {
			continue
		}
		t.add(item, a.calc.Progress(item), a.weightsValid(item))
	}
	return t.summary()
}

func (a *Aggregator) weightsValid(item *store.Item) bool {
	if !item.ProgressMethod.UsesSubUnits() || !hasWeights(item.SubUnits) {
		return true
	}
	return a.validator.ValidateForMethod(item.ProgressMethod, item.SubUnits).IsValid
}

// tally accumulates one pass over a collection.
type tally struct {
	total, completed, inProgress, planning, onHold int
	strategic, strategicCompleted                  int

	progressWeighted float64
	weightSum        float64

	onTime, deliveryCounted int

	budgetCounted decimal.Decimal
	costCounted   decimal.Decimal
	totalBudget   decimal.Decimal
	totalCost     decimal.Decimal

	estimatedHours, actualHours float64

	weightIssues int
}

func (t *tally) add(item *store.Item, progress int, weightsValid bool) {
	t.total++
	switch item.Status {
	case store.StatusCompleted:
		t.completed++
	case store.StatusInProgress:
		t.inProgress++
	case store.StatusPlanning:
		t.planning++
	case store.StatusOnHold:
		t.onHold++
	}
	if item.IsStrategic {
		t.strategic++
		if item.Status == store.StatusCompleted {
			t.strategicCompleted++
		}
	}

	w := weightFactor(item)
	t.progressWeighted += float64(progress) * w
	t.weightSum += w

	if item.Status == store.StatusCompleted && item.TargetDate != nil && item.CompletedAt != nil {
		t.deliveryCounted++
		if !day(*item.CompletedAt).After(day(*item.TargetDate)) {
			t.onTime++
		}
	}

	if item.Budget.Valid {
		t.totalBudget = t.totalBudget.Add(item.Budget.Decimal)
	}
	if item.ActualCost.Valid {
		t.totalCost = t.totalCost.Add(item.ActualCost.Decimal)
	}
	if item.Budget.Valid && item.ActualCost.Valid && item.Budget.Decimal.IsPositive() {
		t.budgetCounted = t.budgetCounted.Add(item.Budget.Decimal)
		t.costCounted = t.costCounted.Add(item.ActualCost.Decimal)
	}

	if item.EstimatedHours != nil && item.ActualHours != nil && *item.ActualHours > 0 {
		t.estimatedHours += *item.EstimatedHours
		t.actualHours += *item.ActualHours
	}

	if !weightsValid {
		t.weightIssues++
	}
}

func (t *tally) summary() KPISummary {
	s := KPISummary{
		TotalItems:       t.total,
		CompletedItems:   t.completed,
		InProgressItems:  t.inProgress,
		PlanningItems:    t.planning,
		OnHoldItems:      t.onHold,
		StrategicItems:   t.strategic,
		TotalBudget:      t.totalBudget,
		TotalActualCost:  t.totalCost,
		WeightIssueItems: t.weightIssues,
	}
	if t.weightSum > 0 {
		s.AverageProgress = clampPercent(roundInt(t.progressWeighted / t.weightSum))
	}
	s.CompletionRate = ratio(float64(t.completed), float64(t.total))
	s.StrategicCompletionRate = ratio(float64(t.strategicCompleted), float64(t.strategic))
	s.OnTimeDeliveryRate = ratio(float64(t.onTime), float64(t.deliveryCounted))
	if t.budgetCounted.IsPositive() {
		s.BudgetAdherenceRate = t.costCounted.Div(t.budgetCounted).Round(4).InexactFloat64()
	}
	return s
}

func (t *tally) efficiency() float64 {
	return ratio(t.estimatedHours, t.actualHours)
}

// weightFactor treats a missing or non-positive factor as the default 1.0.
func weightFactor(item *store.Item) float64 {
	if item.WeightFactor <= 0 {
		return 1.0
	}
	return item.WeightFactor
}
