package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// AreaMetrics is the KPI projection of one owning area.
type AreaMetrics struct {
	AreaID   *uuid.UUID `json:"area_id"`
	AreaName string     `json:"area_name,omitempty"`
	KPISummary
	// EfficiencyRatio is estimated ÷ actual hours over items reporting both.
	EfficiencyRatio float64 `json:"efficiency_ratio"`
}

// SummarizeArea computes metrics for items already scoped to a single area.
func (a *Aggregator) SummarizeArea(areaID *uuid.UUID, items []*store.Item) AreaMetrics {
	var t tally
	for _, item := range items {
		if item == nil {
			continue
		}
		t.add(item, a.calc.Progress(item), a.weightsValid(item))
	}
	return AreaMetrics{
		AreaID:          areaID,
		KPISummary:      t.summary(),
		EfficiencyRatio: t.efficiency(),
	}
}

// SummarizeByArea groups items by owning area. Areas are ordered by id; items
// without an area come last under a nil AreaID.
func (a *Aggregator) SummarizeByArea(items []*store.Item) []AreaMetrics {
	groups := make(map[uuid.UUID][]*store.Item)
	for _, item := range items {
		if item == nil {
			continue
		}
		key := uuid.Nil
		if item.AreaID != nil {
			key = *item.AreaID
		}
		groups[key] = append(groups[key], item)
	}

	keys := make([]uuid.UUID, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == uuid.Nil || keys[j] == uuid.Nil {
			return keys[j] == uuid.Nil && keys[i] != uuid.Nil
		}
		return keys[i].String() < keys[j].String()
	})

	out := make([]AreaMetrics, 0, len(keys))
	for _, k := range keys {
		var areaID *uuid.UUID
		if k != uuid.Nil {
			id := k
			areaID = &id
		}
		out = append(out, a.SummarizeArea(areaID, groups[k]))
	}
	return out
}
