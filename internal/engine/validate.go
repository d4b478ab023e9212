package engine

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

type IssueCode string

const (
	IssueWeightSumMismatch IssueCode = "weight_sum_mismatch"
	IssueWeightOutOfRange  IssueCode = "weight_out_of_range"
	IssueWeightsUnbalanced IssueCode = "weights_unbalanced"
)

// Issue pinpoints one validation problem. Index is set for per-sub-unit issues.
type Issue struct {
	Code      IssueCode  `json:"code"`
	Index     *int       `json:"index,omitempty"`
	SubUnitID *uuid.UUID `json:"sub_unit_id,omitempty"`
	Message   string     `json:"message"`
	Warning   bool       `json:"warning"`
}

// ValidationResult is returned for every weight check; invalid input is never an error.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	TotalWeight float64  `json:"total_weight"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Issues      []Issue  `json:"issues,omitempty"`
}

func (r *ValidationResult) addError(issue Issue) {
	r.Errors = append(r.Errors, issue.Message)
	r.Issues = append(r.Issues, issue)
}

func (r *ValidationResult) addWarning(issue Issue) {
	issue.Warning = true
	r.Warnings = append(r.Warnings, issue.Message)
	r.Issues = append(r.Issues, issue)
}

// Validator checks sub-unit weight distributions.
type Validator struct {
	tolerance decimal.Decimal
	deviation float64
}

func NewValidator(params Params) *Validator {
	return &Validator{
		tolerance: decimal.NewFromFloat(params.WeightTolerance),
		deviation: params.UnbalancedDeviation,
	}
}

// Validate checks units, requiring the weights to sum to 100.
func (v *Validator) Validate(units []store.SubUnit) ValidationResult {
	return v.validate(units, true)
}

// ValidateForMethod checks units, requiring the sum only when method derives
// progress from sub-units.
func (v *Validator) ValidateForMethod(method store.ProgressMethod, units []store.SubUnit) ValidationResult {
	return v.validate(units, method.UsesSubUnits())
}

func (v *Validator) validate(units []store.SubUnit, requireSum bool) ValidationResult {
	res := ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	total := decimal.Zero
	weights := make([]float64, len(units))
	for i, u := range units {
		w := decimal.Zero
		if u.WeightPercentage.Valid {
			w = u.WeightPercentage.Decimal
		}
		total = total.Add(w)
		weights[i] = w.InexactFloat64()

		if w.LessThan(minWeight) || w.GreaterThan(maxWeight) {
			idx := i
			id := u.ID
			msg := fmt.Sprintf("sub-unit %d weight %s is outside [%s, %s]", i+1, w.String(), minWeight.String(), maxWeight.String())
			if !u.WeightPercentage.Valid {
				msg = fmt.Sprintf("sub-unit %d has no weight", i+1)
			}
			res.addError(Issue{
				Code:      IssueWeightOutOfRange,
				Index:     &idx,
				SubUnitID: &id,
				Message:   msg,
			})
		}
	}
	res.TotalWeight = total.InexactFloat64()

	if requireSum && total.Sub(hundred).Abs().GreaterThan(v.tolerance) {
		res.addError(Issue{
			Code:    IssueWeightSumMismatch,
			Message: fmt.Sprintf("weights sum to %s, must sum to 100", total.String()),
		})
	}

	if idx, ok := v.unbalanced(weights); ok {
		i := idx
		res.addWarning(Issue{
			Code:    IssueWeightsUnbalanced,
			Index:   &i,
			Message: fmt.Sprintf("weight distribution is unbalanced: sub-unit %d deviates from the mean by more than %.0f points", idx+1, v.deviation),
		})
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// unbalanced returns the first index whose weight strays from the mean by more
// than the allowed deviation.
func (v *Validator) unbalanced(weights []float64) (int, bool) {
	if len(weights) < 2 {
		return 0, false
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	mean := sum / float64(len(weights))
	for i, w := range weights {
		if math.Abs(w-mean) > v.deviation {
			return i, true
		}
	}
	return 0, false
}
