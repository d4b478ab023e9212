package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// CriticalItem is a heavy strategic item lagging close to its target date.
type CriticalItem struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	AreaID        *uuid.UUID `json:"area_id,omitempty"`
	WeightFactor  float64    `json:"weight_factor"`
	Progress      int        `json:"progress"`
	TargetDate    time.Time  `json:"target_date"`
	DaysRemaining int        `json:"days_remaining"`
}

// StrategicMetrics summarizes the health of the strategic portfolio.
type StrategicMetrics struct {
	StrategicItems       int     `json:"strategic_items"`
	PortfolioHealthScore float64 `json:"portfolio_health_score"`
	CompletionRate       float64 `json:"completion_rate"`
	OnTimeDeliveryRate   float64 `json:"on_time_delivery_rate"`
	AverageProgress      int     `json:"average_progress"`
	ResourceUtilization  float64 `json:"resource_utilization"`
	StrategicAlignment   float64 `json:"strategic_alignment"`

	RiskAssessment RiskLevel      `json:"risk_assessment"`
	CriticalItems  []CriticalItem `json:"critical_items"`
	EvaluatedAt    time.Time      `json:"evaluated_at"`
}

// StrategicEvaluator derives portfolio indicators. It performs no authorization;
// callers must restrict it to privileged roles.
type StrategicEvaluator struct {
	params Params
	calc   *Calculator
}

func NewStrategicEvaluator(params Params, calc *Calculator) *StrategicEvaluator {
	return &StrategicEvaluator{params: params, calc: calc}
}

// Evaluate computes strategic metrics over the strategic items in items, using
// now as the single reference time. Non-strategic items are ignored.
func (e *StrategicEvaluator) Evaluate(items []*store.Item, now time.Time) StrategicMetrics {
	var t tally
	var hoursEstimated, hoursActual float64
	active := 0
	critical := []CriticalItem{}

	for _, item := range items {
		if item == nil || !item.IsStrategic {
			continue
		}
		progress := e.calc.Progress(item)
		t.add(item, progress, true)

		if item.Status == store.StatusInProgress || item.Status == store.StatusCompleted {
			active++
		}
		if item.EstimatedHours != nil && item.ActualHours != nil && *item.EstimatedHours > 0 {
			hoursEstimated += *item.EstimatedHours
			hoursActual += *item.ActualHours
		}
		if c, ok := e.critical(item, progress, now); ok {
			critical = append(critical, c)
		}
	}

	summary := t.summary()
	m := StrategicMetrics{
		StrategicItems:     t.total,
		CompletionRate:     summary.CompletionRate,
		OnTimeDeliveryRate: summary.OnTimeDeliveryRate,
		AverageProgress:    summary.AverageProgress,
		CriticalItems:      critical,
		EvaluatedAt:        now,
	}
	m.PortfolioHealthScore = HealthScore(m.CompletionRate, m.OnTimeDeliveryRate)
	m.ResourceUtilization = clamp(ratio(hoursActual, hoursEstimated), 0, 1)
	m.StrategicAlignment = ratio(float64(active), float64(t.total))
	m.RiskAssessment = e.risk(len(critical), t.total)

	sort.Slice(m.CriticalItems, func(i, j int) bool {
		a, b := m.CriticalItems[i], m.CriticalItems[j]
		if !a.TargetDate.Equal(b.TargetDate) {
			return a.TargetDate.Before(b.TargetDate)
		}
		return a.ID.String() < b.ID.String()
	})
	return m
}

// HealthScore maps completion and on-time rates onto a 0–10 scale.
// It is monotonic increasing in both rates.
func HealthScore(completionRate, onTimeRate float64) float64 {
	score := 10 * (0.6*clamp(completionRate, 0, 1) + 0.4*clamp(onTimeRate, 0, 1))
	return clamp(round(score, 1), 0, 10)
}

func (e *StrategicEvaluator) critical(item *store.Item, progress int, now time.Time) (CriticalItem, bool) {
	if item.TargetDate == nil {
		return CriticalItem{}, false
	}
	if item.WeightFactor <= e.params.CriticalWeightFactor || progress >= e.params.CriticalProgress {
		return CriticalItem{}, false
	}
	days := daysBetween(now, *item.TargetDate)
	if days < 0 || days > e.params.CriticalWindowDays {
		return CriticalItem{}, false
	}
	return CriticalItem{
		ID:            item.ID,
		Title:         item.Title,
		AreaID:        item.AreaID,
		WeightFactor:  item.WeightFactor,
		Progress:      progress,
		TargetDate:    *item.TargetDate,
		DaysRemaining: days,
	}, true
}

func (e *StrategicEvaluator) risk(criticalCount, total int) RiskLevel {
	switch {
	case criticalCount == 0:
		return RiskLow
	case float64(criticalCount) > e.params.HighRiskShare*float64(total):
		return RiskHigh
	default:
		return RiskMedium
	}
}
