package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// Policy names a weight redistribution strategy.
type Policy string

const (
	PolicyEven       Policy = "even"
	PolicyByPriority Policy = "by_priority"
	PolicyByEffort   Policy = "by_effort"
	PolicyNormalize  Policy = "normalize"
)

// priorityPoints are the pool points each priority contributes under by_priority.
var priorityPoints = map[store.Priority]int64{
	store.PriorityCritical: 40,
	store.PriorityHigh:     30,
	store.PriorityMedium:   20,
	store.PriorityLow:      10,
}

// maxSubUnits is the largest count for which every sub-unit can hold the minimum weight.
const maxSubUnits = 1000

// effortFloor is the weight given to sub-units without estimated hours.
var effortFloor = decimal.NewFromInt(1)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyEven, PolicyByPriority, PolicyByEffort, PolicyNormalize:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Redistribute returns a copy of units with weights recomputed under policy.
// Count, order and identity of the sub-units are preserved; the input is not modified.
func Redistribute(units []store.SubUnit, policy Policy) ([]store.SubUnit, error) {
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	out := make([]store.SubUnit, len(units))
	copy(out, units)
	if len(out) == 0 {
		return out, nil
	}
	if len(out) > maxSubUnits {
		return nil, fmt.Errorf("%w: %d sub-units", ErrTooManySubUnits, len(out))
	}

	var weights []decimal.Decimal
	var err error
	switch policy {
	case PolicyEven:
		weights = evenWeights(len(out))
	case PolicyByPriority:
		weights = priorityWeights(out)
	case PolicyByEffort:
		weights, err = effortWeights(out)
	case PolicyNormalize:
		weights = normalizedWeights(out)
	}
	if err != nil {
		return nil, err
	}

	for i := range out {
		out[i].WeightPercentage = decimal.NewNullDecimal(weights[i])
	}
	return out, nil
}

// evenWeights gives every sub-unit round(100/n, 2) and the last one the exact remainder.
// When rounding up would starve the last entry below the minimum, shares are truncated instead.
func evenWeights(n int) []decimal.Decimal {
	count := decimal.NewFromInt(int64(n))
	share := hundred.Div(count).Round(2)
	last := hundred.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))
	if last.LessThan(minWeight) {
		share = hundred.Div(count).Truncate(2)
		last = hundred.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))
	}

	weights := make([]decimal.Decimal, n)
	for i := 0; i < n-1; i++ {
		weights[i] = share
	}
	weights[n-1] = last
	return weights
}

func priorityWeights(units []store.SubUnit) []decimal.Decimal {
	points := make([]decimal.Decimal, len(units))
	total := decimal.Zero
	for i, u := range units {
		p, ok := priorityPoints[u.Priority]
		if !ok {
			p = priorityPoints[store.PriorityMedium]
		}
		points[i] = decimal.NewFromInt(p)
		total = total.Add(points[i])
	}

	weights := proportional(points, total, hundred)

	// Spread the rounding residual proportionally, then hand leftover cents to the largest entry.
	residual := hundred.Sub(sum(weights))
	if !residual.IsZero() {
		for i, w := range weights {
			weights[i] = w.Add(residual.Mul(w).Div(hundred).Round(2))
		}
	}
	return settle(weights)
}

func effortWeights(units []store.SubUnit) ([]decimal.Decimal, error) {
	hours := make([]decimal.Decimal, len(units))
	total := decimal.Zero
	lacking := 0
	for i, u := range units {
		if u.EstimatedHours == nil || *u.EstimatedHours <= 0 {
			lacking++
			continue
		}
		hours[i] = decimal.NewFromFloat(*u.EstimatedHours)
		total = total.Add(hours[i])
	}
	if lacking == len(units) {
		return nil, ErrNoEffortData
	}
	if lacking >= 100 {
		return nil, fmt.Errorf("%w: %d sub-units without hours", ErrTooManySubUnits, lacking)
	}

	pool := hundred.Sub(effortFloor.Mul(decimal.NewFromInt(int64(lacking))))
	weights := proportional(hours, total, pool)
	for i, u := range units {
		if u.EstimatedHours == nil || *u.EstimatedHours <= 0 {
			weights[i] = effortFloor
		}
	}
	return settle(weights), nil
}

func normalizedWeights(units []store.SubUnit) []decimal.Decimal {
	raw := make([]decimal.Decimal, len(units))
	positive := false
	for i, u := range units {
		if u.WeightPercentage.Valid && u.WeightPercentage.Decimal.IsPositive() {
			raw[i] = u.WeightPercentage.Decimal
			positive = true
		} else {
			raw[i] = minWeight
		}
	}
	if !positive {
		return evenWeights(len(units))
	}
	return settle(proportional(raw, sum(raw), hundred))
}

// proportional scales each part to its share of pool, rounded to cents.
func proportional(parts []decimal.Decimal, total, pool decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(parts))
	if total.IsZero() {
		return out
	}
	for i, p := range parts {
		out[i] = p.Mul(pool).Div(total).Round(2)
	}
	return out
}

// settle lifts entries to the minimum weight and brings the total to exactly
// 100. A shortfall goes to the first largest entry; a surplus is taken from
// the largest entries first, none going below the minimum.
func settle(weights []decimal.Decimal) []decimal.Decimal {
	for i, w := range weights {
		if w.LessThan(minWeight) {
			weights[i] = minWeight
		}
	}

	diff := hundred.Sub(sum(weights))
	if !diff.IsNegative() {
		largest := 0
		for i, w := range weights {
			if w.GreaterThan(weights[largest]) {
				largest = i
			}
		}
		weights[largest] = weights[largest].Add(diff)
		return weights
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]].GreaterThan(weights[order[b]])
	})
	surplus := diff.Neg()
	for _, i := range order {
		if !surplus.IsPositive() {
			break
		}
		take := decimal.Min(surplus, weights[i].Sub(minWeight))
		if !take.IsPositive() {
			continue
		}
		weights[i] = weights[i].Sub(take)
		surplus = surplus.Sub(take)
	}
	return weights
}

func sum(ds []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}
