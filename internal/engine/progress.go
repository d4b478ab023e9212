package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

var (
	hundred   = decimal.NewFromInt(100)
	minWeight = decimal.New(1, -1) // 0.1
	maxWeight = hundred
)

// ProgressResult explains how an item's progress was derived.
type ProgressResult struct {
	ItemID       string               `json:"item_id"`
	Method       store.ProgressMethod `json:"progress_method"`
	Progress     int                  `json:"progress"`
	UnitProgress *int                 `json:"unit_progress,omitempty"`
	Scheme       string               `json:"scheme"`
	Reason       string               `json:"reason"`
}

// Calculator derives item completion percentages.
type Calculator struct {
	params Params
}

func NewCalculator(params Params) *Calculator {
	return &Calculator{params: params}
}

// Progress returns the completion percentage of item in [0, 100].
func (c *Calculator) Progress(item *store.Item) int {
	return c.Explain(item).Progress
}

// Explain computes progress along with the rule that produced it.
func (c *Calculator) Explain(item *store.Item) ProgressResult {
	res := ProgressResult{
		ItemID: item.ID.String(),
		Method: item.ProgressMethod,
	}

	switch item.ProgressMethod {
	case store.MethodUnitBased:
		value, scheme := unitProgress(item.SubUnits)
		unit := clampPercent(roundInt(value))
		res.Progress = unit
		res.UnitProgress = &unit
		res.Scheme = scheme
		res.Reason = "derived from sub-units"

	case store.MethodHybrid:
		if len(item.SubUnits) == 0 {
			res.Progress = clampPercent(item.Progress)
			res.Scheme = "manual"
			res.Reason = "hybrid without sub-units uses manual progress"
			return res
		}
		value, scheme := unitProgress(item.SubUnits)
		share := c.params.HybridUnitShare
		blended := roundInt(value*share + float64(item.Progress)*(1-share))
		unit := clampPercent(roundInt(value))
		res.Progress = clampPercent(blended)
		res.UnitProgress = &unit
		res.Scheme = scheme
		res.Reason = "blend of sub-unit and manual progress"

	default:
		res.Progress = clampPercent(item.Progress)
		res.Scheme = "manual"
		res.Reason = "manual progress"
	}
	return res
}

// unitProgress computes the unrounded sub-unit driven value and names the
// scheme used. Callers round once, after any blending.
func unitProgress(units []store.SubUnit) (float64, string) {
	if len(units) == 0 {
		return 0, "boolean"
	}
	if !hasWeights(units) {
		completed := 0
		for _, u := range units {
			if u.IsCompleted {
				completed++
			}
		}
		return 100 * float64(completed) / float64(len(units)), "boolean"
	}

	sum := decimal.Zero
	for _, u := range units {
		if u.IsCompleted {
			sum = sum.Add(effectiveWeight(u))
		}
	}
	return math.Min(sum.InexactFloat64(), 100), "weighted"
}

func hasWeights(units []store.SubUnit) bool {
	for _, u := range units {
		if u.WeightPercentage.Valid {
			return true
		}
	}
	return false
}

// effectiveWeight maps missing or negative weights to the minimum weight.
func effectiveWeight(u store.SubUnit) decimal.Decimal {
	if !u.WeightPercentage.Valid || u.WeightPercentage.Decimal.IsNegative() {
		return minWeight
	}
	return u.WeightPercentage.Decimal
}
