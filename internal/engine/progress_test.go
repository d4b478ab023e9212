package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

func TestProgress_Manual(t *testing.T) {
	calc := NewCalculator(DefaultParams())
	item := manualItem(42, 1)
	item.SubUnits = []store.SubUnit{weighted(true, "100")}
	assert.Equal(t, 42, calc.Progress(item))
}

func TestProgress_UnitBasedBoolean(t *testing.T) {
	calc := NewCalculator(DefaultParams())

	tests := []struct {
		name      string
		completed []bool
		want      int
	}{
		{"empty", nil, 0},
		{"none complete", []bool{false, false}, 0},
		{"two of three", []bool{true, true, false}, 67},
		{"one of three", []bool{true, false, false}, 33},
		{"all complete", []bool{true, true, true, true}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &store.Item{ID: uuid.New(), ProgressMethod: store.MethodUnitBased, Progress: 90}
			for _, c := range tt.completed {
				item.SubUnits = append(item.SubUnits, store.SubUnit{ID: uuid.New(), IsCompleted: c})
			}
			assert.Equal(t, tt.want, calc.Progress(item))
		})
	}
}

func TestProgress_UnitBasedWeighted(t *testing.T) {
	calc := NewCalculator(DefaultParams())

	t.Run("completed weights count fully", func(t *testing.T) {
		item := &store.Item{
			ProgressMethod: store.MethodUnitBased,
			SubUnits:       []store.SubUnit{weighted(true, "60"), weighted(false, "40")},
		}
		assert.Equal(t, 60, calc.Progress(item))
	})

	t.Run("missing weight counts as minimum", func(t *testing.T) {
		item := &store.Item{
			ProgressMethod: store.MethodUnitBased,
			SubUnits:       []store.SubUnit{weighted(true, "60"), weighted(true, "")},
		}
		// 60 + 0.1 rounds to 60
		assert.Equal(t, 60, calc.Progress(item))
	})

	t.Run("negative weight counts as minimum", func(t *testing.T) {
		item := &store.Item{
			ProgressMethod: store.MethodUnitBased,
			SubUnits:       []store.SubUnit{weighted(true, "-20"), weighted(false, "50")},
		}
		assert.Equal(t, 0, calc.Progress(item))
	})

	t.Run("clamped to 100", func(t *testing.T) {
		item := &store.Item{
			ProgressMethod: store.MethodUnitBased,
			SubUnits:       []store.SubUnit{weighted(true, "90"), weighted(true, "60")},
		}
		assert.Equal(t, 100, calc.Progress(item))
	})
}

func TestProgress_Hybrid(t *testing.T) {
	t.Run("blends unit and manual", func(t *testing.T) {
		calc := NewCalculator(DefaultParams())
		item := &store.Item{
			ProgressMethod: store.MethodHybrid,
			Progress:       50,
			SubUnits:       []store.SubUnit{weighted(true, "80"), weighted(false, "20")},
		}
		// round(80*0.7 + 50*0.3) = 71
		assert.Equal(t, 71, calc.Progress(item))

		res := calc.Explain(item)
		require.NotNil(t, res.UnitProgress)
		assert.Equal(t, 80, *res.UnitProgress)
		assert.Equal(t, "weighted", res.Scheme)
	})

	t.Run("without sub-units degrades to manual", func(t *testing.T) {
		calc := NewCalculator(DefaultParams())
		item := &store.Item{ProgressMethod: store.MethodHybrid, Progress: 50}
		assert.Equal(t, 50, calc.Progress(item))
		assert.Equal(t, "manual", calc.Explain(item).Scheme)
	})

	t.Run("rounds once after blending", func(t *testing.T) {
		calc := NewCalculator(DefaultParams())
		item := &store.Item{
			ProgressMethod: store.MethodHybrid,
			Progress:       0,
			SubUnits:       []store.SubUnit{weighted(true, "64.5"), weighted(false, "35.5")},
		}
		// round(64.5*0.7 + 0*0.3) = round(45.15) = 45; rounding the unit value first would give 46.
		assert.Equal(t, 45, calc.Progress(item))

		res := calc.Explain(item)
		require.NotNil(t, res.UnitProgress)
		assert.Equal(t, 65, *res.UnitProgress)
	})

	t.Run("configurable share", func(t *testing.T) {
		p := DefaultParams()
		p.HybridUnitShare = 0.5
		calc := NewCalculator(p)
		item := &store.Item{
			ProgressMethod: store.MethodHybrid,
			Progress:       50,
			SubUnits:       []store.SubUnit{weighted(true, "80"), weighted(false, "20")},
		}
		assert.Equal(t, 65, calc.Progress(item))
	})
}

func TestProgress_ClampsManualValues(t *testing.T) {
	calc := NewCalculator(DefaultParams())
	assert.Equal(t, 100, calc.Progress(manualItem(120, 1)))
	assert.Equal(t, 0, calc.Progress(manualItem(-5, 1)))
}

func TestProgress_UnknownMethodIsManual(t *testing.T) {
	calc := NewCalculator(DefaultParams())
	item := manualItem(35, 1)
	item.ProgressMethod = "milestones"
	assert.Equal(t, 35, calc.Progress(item))
}

func TestProgress_Idempotent(t *testing.T) {
	calc := NewCalculator(DefaultParams())
	item := &store.Item{
		ProgressMethod: store.MethodHybrid,
		Progress:       33,
		SubUnits:       []store.SubUnit{weighted(true, "33.33"), weighted(false, "33.33"), weighted(true, "33.34")},
	}
	first := calc.Progress(item)
	second := calc.Progress(item)
	assert.Equal(t, first, second)
}
