// Package engine computes item progress, weight distributions and KPI rollups.
// Every operation is a pure function of its inputs; an Engine holds only its
// immutable Params and is safe for concurrent use.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

type Engine struct {
	params     Params
	calc       *Calculator
	validator  *Validator
	aggregator *Aggregator
	strategic  *StrategicEvaluator
}

// New wires the engine components around params.
func New(params Params) *Engine {
	calc := NewCalculator(params)
	validator := NewValidator(params)
	return &Engine{
		params:     params,
		calc:       calc,
		validator:  validator,
		aggregator: NewAggregator(calc, validator),
		strategic:  NewStrategicEvaluator(params, calc),
	}
}

func (e *Engine) Params() Params { return e.params }

func (e *Engine) Progress(item *store.Item) int { return e.calc.Progress(item) }

func (e *Engine) ExplainProgress(item *store.Item) ProgressResult { return e.calc.Explain(item) }

func (e *Engine) Validate(units []store.SubUnit) ValidationResult {
	return e.validator.Validate(units)
}

func (e *Engine) ValidateForMethod(method store.ProgressMethod, units []store.SubUnit) ValidationResult {
	return e.validator.ValidateForMethod(method, units)
}

func (e *Engine) Redistribute(units []store.SubUnit, policy Policy) ([]store.SubUnit, error) {
	return Redistribute(units, policy)
}

func (e *Engine) Summarize(items []*store.Item) KPISummary {
	return e.aggregator.Summarize(items)
}

func (e *Engine) SummarizeArea(areaID *uuid.UUID, items []*store.Item) AreaMetrics {
	return e.aggregator.SummarizeArea(areaID, items)
}

func (e *Engine) SummarizeByArea(items []*store.Item) []AreaMetrics {
	return e.aggregator.SummarizeByArea(items)
}

func (e *Engine) EvaluateStrategic(items []*store.Item, now time.Time) StrategicMetrics {
	return e.strategic.Evaluate(items, now)
}
