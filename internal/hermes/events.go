package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
)

type SummaryComputedEvent struct {
	TenantID   string            `json:"tenant_id"`
	Summary    engine.KPISummary `json:"summary"`
	ComputedAt time.Time         `json:"computed_at"`
}

// StrategicRiskEvent is published when a tenant's strategic portfolio has critical items.
type StrategicRiskEvent struct {
	TenantID      string           `json:"tenant_id"`
	Risk          engine.RiskLevel `json:"risk_assessment"`
	CriticalItems int              `json:"critical_items"`
	HealthScore   float64          `json:"portfolio_health_score"`
	EvaluatedAt   time.Time        `json:"evaluated_at"`
}

type WeightsSavedEvent struct {
	TenantID    string    `json:"tenant_id"`
	ItemID      string    `json:"item_id"`
	SubUnits    int       `json:"sub_units"`
	TotalWeight float64   `json:"total_weight"`
	Warnings    []string  `json:"warnings,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

type WeightsInvalidEvent struct {
	TenantID    string    `json:"tenant_id"`
	ItemID      string    `json:"item_id"`
	TotalWeight float64   `json:"total_weight"`
	Errors      []string  `json:"errors"`
	DetectedAt  time.Time `json:"detected_at"`
}
