package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
)

const testSnapshot = `
tenant_id: 6f1c2d9e-0000-4000-8000-000000000001
areas:
  - id: 6f1c2d9e-0000-4000-8000-0000000000a1
    name: Sales
  - id: 6f1c2d9e-0000-4000-8000-0000000000a2
    name: Ops
items:
  - title: CRM rollout
    area_id: 6f1c2d9e-0000-4000-8000-0000000000a1
    status: in_progress
    progress_method: unit_based
    sub_units:
      - title: pick vendor
        is_completed: true
        weight_percentage: 30
      - title: migrate
        weight_percentage: 30
      - title: train
        weight_percentage: 30
  - title: Warehouse move
    area_id: 6f1c2d9e-0000-4000-8000-0000000000a2
    status: completed
    progress: 100
    is_strategic: true
    weight_factor: 3
    target_date: 2026-04-01
  - title: Hiring plan
    status: in_progress
    progress: 40
    is_strategic: true
    weight_factor: 2.5
    target_date: 2026-03-20
`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSnapshot), 0o644))
	return path
}

func run(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return &out, cmd.Execute()
}

func TestSummarize(t *testing.T) {
	path := writeSnapshot(t)

	out, err := run(t, "summarize", "--file", path)
	require.NoError(t, err)
	var s engine.KPISummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, 3, s.TotalItems)
	assert.Equal(t, 1, s.CompletedItems)
	assert.Equal(t, 1, s.WeightIssueItems)

	out, err = run(t, "summarize", "--file", path, "--area", "Ops")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, 1, s.TotalItems)
	assert.Equal(t, 100, s.AverageProgress)

	_, err = run(t, "summarize", "--file", path, "--area", "Legal")
	assert.Error(t, err)
}

func TestSummarizeStatus(t *testing.T) {
	path := writeSnapshot(t)

	out, err := run(t, "summarize", "--file", path, "--status", "completed")
	require.NoError(t, err)
	var s engine.KPISummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, 1, s.TotalItems)
	assert.Equal(t, 1, s.CompletedItems)

	_, err = run(t, "summarize", "--file", path, "--status", "done")
	assert.EqualError(t, err, `invalid --status "done"`)
}

func TestAreas(t *testing.T) {
	out, err := run(t, "areas", "--file", writeSnapshot(t))
	require.NoError(t, err)
	var areas []engine.AreaMetrics
	require.NoError(t, json.Unmarshal(out.Bytes(), &areas))
	require.Len(t, areas, 3)
	assert.Equal(t, "Ops", areas[0].AreaName)
	assert.Equal(t, "Sales", areas[1].AreaName)
	assert.Nil(t, areas[2].AreaID)
}

func TestStrategic(t *testing.T) {
	out, err := run(t, "strategic", "--file", writeSnapshot(t), "--now", "2026-03-01")
	require.NoError(t, err)
	var m engine.StrategicMetrics
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, 2, m.StrategicItems)
	require.Len(t, m.CriticalItems, 1)
	assert.Equal(t, "Hiring plan", m.CriticalItems[0].Title)
	assert.Equal(t, 19, m.CriticalItems[0].DaysRemaining)
	assert.Equal(t, engine.RiskHigh, m.RiskAssessment)

	_, err = run(t, "strategic", "--file", writeSnapshot(t), "--now", "soon")
	assert.Error(t, err)
}

func TestProgress(t *testing.T) {
	out, err := run(t, "progress", "--file", writeSnapshot(t), "--item", "CRM rollout")
	require.NoError(t, err)
	var res engine.ProgressResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 30, res.Progress)
	assert.Equal(t, "weighted", res.Scheme)
}

func TestValidate(t *testing.T) {
	path := writeSnapshot(t)

	out, err := run(t, "validate", "--file", path, "--item", "CRM rollout")
	assert.Error(t, err)
	var res engine.ValidationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.False(t, res.IsValid)
	assert.Equal(t, 90.0, res.TotalWeight)

	_, err = run(t, "validate", "--file", path, "--item", "Hiring plan")
	assert.NoError(t, err)

	_, err = run(t, "validate", "--file", path, "--item", "Nope")
	assert.Error(t, err)
}

func TestRedistribute(t *testing.T) {
	path := writeSnapshot(t)

	out, err := run(t, "redistribute", "--file", path, "--item", "CRM rollout", "--policy", "normalize")
	require.NoError(t, err)
	var resp struct {
		SubUnits []struct {
			Title            string `json:"title"`
			WeightPercentage string `json:"weight_percentage"`
		} `json:"sub_units"`
		Validation engine.ValidationResult `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.SubUnits, 3)
	assert.True(t, resp.Validation.IsValid)
	assert.Equal(t, 100.0, resp.Validation.TotalWeight)

	_, err = run(t, "redistribute", "--file", path, "--item", "CRM rollout", "--policy", "random")
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "summarize", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = run(t, "summarize")
	assert.Error(t, err)
}
