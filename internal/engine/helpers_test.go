package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

func w(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func float64Ptr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func weighted(completed bool, weight string) store.SubUnit {
	su := store.SubUnit{ID: uuid.New(), IsCompleted: completed}
	if weight != "" {
		su.WeightPercentage = w(weight)
	}
	return su
}

func weightedUnits(weights ...string) []store.SubUnit {
	units := make([]store.SubUnit, len(weights))
	for i, s := range weights {
		units[i] = weighted(false, s)
		units[i].Position = i
	}
	return units
}

func sumWeights(units []store.SubUnit) decimal.Decimal {
	total := decimal.Zero
	for _, u := range units {
		total = total.Add(u.WeightPercentage.Decimal)
	}
	return total
}

func manualItem(progress int, factor float64) *store.Item {
	return &store.Item{
		ID:             uuid.New(),
		ProgressMethod: store.MethodManual,
		Progress:       progress,
		WeightFactor:   factor,
		Status:         store.StatusInProgress,
	}
}
