package engine

import (
	"fmt"
)

// Params holds the tunable constants of the progress and strategic rules.
type Params struct {
	// HybridUnitShare is the share of the unit-based value in a hybrid blend;
	// the manual value receives the rest.
	HybridUnitShare float64

	WeightTolerance     float64
	UnbalancedDeviation float64

	CriticalWeightFactor float64
	CriticalProgress     int
	CriticalWindowDays   int
	HighRiskShare        float64
}

// DefaultParams returns the standard rule constants.
func DefaultParams() Params {
	return Params{
		HybridUnitShare:      0.7,
		WeightTolerance:      0.01,
		UnbalancedDeviation:  15,
		CriticalWeightFactor: 2.0,
		CriticalProgress:     50,
		CriticalWindowDays:   30,
		HighRiskShare:        0.2,
	}
}

// Validate checks that the parameters are usable.
func (p Params) Validate() error {
	if p.HybridUnitShare < 0 || p.HybridUnitShare > 1 {
		return fmt.Errorf("hybrid unit share %.4f must be within [0, 1]", p.HybridUnitShare)
	}
	if p.WeightTolerance < 0 {
		return fmt.Errorf("negative weight tolerance: %f", p.WeightTolerance)
	}
	if p.UnbalancedDeviation <= 0 {
		return fmt.Errorf("unbalanced deviation must be positive, got %f", p.UnbalancedDeviation)
	}
	if p.CriticalProgress < 0 || p.CriticalProgress > 100 {
		return fmt.Errorf("critical progress %d must be within [0, 100]", p.CriticalProgress)
	}
	if p.CriticalWindowDays < 0 {
		return fmt.Errorf("negative critical window: %d days", p.CriticalWindowDays)
	}
	if p.HighRiskShare < 0 || p.HighRiskShare > 1 {
		return fmt.Errorf("high risk share %.4f must be within [0, 1]", p.HighRiskShare)
	}
	return nil
}
