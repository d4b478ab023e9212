package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

const sampleYAML = `
tenant_id: 7f8d2c1e-4b5a-4c3d-9e2f-1a2b3c4d5e6f
areas:
  - id: 11111111-1111-4111-8111-111111111111
    name: Operations
items:
  - id: 22222222-2222-4222-8222-222222222222
    title: ERP rollout
    area_id: 11111111-1111-4111-8111-111111111111
    status: in_progress
    progress_method: unit_based
    weight_factor: 2.5
    is_strategic: true
    budget: 1500.50
    actual_cost: "900"
    target_date: 2026-06-30
    sub_units:
      - title: Design
        is_completed: true
        weight_percentage: 40
        priority: High
      - title: Build
        weight_percentage: 60
        estimated_hours: 120
  - title: Office move
    completed_at: 2026-02-01T10:30:00Z
`

func TestParseYAML(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "7f8d2c1e-4b5a-4c3d-9e2f-1a2b3c4d5e6f", s.TenantID.String())
	require.Len(t, s.Areas, 1)
	require.Len(t, s.Items, 2)

	erp := s.Items[0]
	assert.Equal(t, store.StatusInProgress, erp.Status)
	assert.Equal(t, store.MethodUnitBased, erp.ProgressMethod)
	assert.Equal(t, 2.5, erp.WeightFactor)
	assert.True(t, erp.IsStrategic)
	assert.Equal(t, "1500.5", erp.Budget.Decimal.String())
	assert.Equal(t, "900", erp.ActualCost.Decimal.String())
	require.NotNil(t, erp.TargetDate)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), *erp.TargetDate)
	assert.Equal(t, "Operations", s.AreaName(erp.AreaID))

	require.Len(t, erp.SubUnits, 2)
	assert.Equal(t, store.PriorityHigh, erp.SubUnits[0].Priority)
	assert.True(t, erp.SubUnits[0].IsCompleted)
	assert.Equal(t, erp.ID, erp.SubUnits[1].ItemID)
	assert.Equal(t, 1, erp.SubUnits[1].Position)
	assert.Equal(t, "60", erp.SubUnits[1].WeightPercentage.Decimal.String())
	require.NotNil(t, erp.SubUnits[1].EstimatedHours)
	assert.Equal(t, 120.0, *erp.SubUnits[1].EstimatedHours)

	move := s.Items[1]
	assert.Equal(t, store.StatusPlanning, move.Status)
	assert.Equal(t, store.MethodManual, move.ProgressMethod)
	assert.Equal(t, 1.0, move.WeightFactor)
	assert.False(t, move.Budget.Valid)
	assert.Nil(t, move.AreaID)
	require.NotNil(t, move.CompletedAt)
	assert.Equal(t, 10, move.CompletedAt.Hour())
	assert.NotNil(t, move.SubUnits)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	data := `{"items": [{"title": "Website", "status": "completed", "progress": 100, "budget": 250, "target_date": "2026-01-15", "sub_units": [{"title": "a", "weight_percentage": "100"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, store.StatusCompleted, s.Items[0].Status)
	assert.Equal(t, "250", s.Items[0].Budget.Decimal.String())
	assert.Equal(t, "100", s.Items[0].SubUnits[0].WeightPercentage.Decimal.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "items:\n  - title: x\n    colour: red\n", "colour"},
		{"bad uuid", "items:\n  - id: nope\n", "items[0]"},
		{"bad amount", "items:\n  - budget: lots\n", "invalid amount"},
		{"bad date", "items:\n  - target_date: tomorrow\n", "invalid date"},
		{"bad tenant", "tenant_id: 42\n", "tenant_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, s.Items)
	assert.Empty(t, s.Items)
}

func TestFind(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "ERP rollout", s.FindItem("22222222-2222-4222-8222-222222222222").Title)
	assert.Equal(t, "Office move", s.FindItem("Office move").Title)
	assert.Nil(t, s.FindItem("missing"))

	assert.Equal(t, "Operations", s.FindArea("Operations").Name)
	assert.NotNil(t, s.FindArea("11111111-1111-4111-8111-111111111111"))
	assert.Nil(t, s.FindArea("Finance"))
}
