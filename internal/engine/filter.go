package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// Filter scopes a snapshot before aggregation. Zero values match everything.
// A target date range excludes items without a target date.
type Filter struct {
	AreaID     *uuid.UUID
	Status     *store.ItemStatus
	Strategic  *bool
	Category   string
	TargetFrom *time.Time
	TargetTo   *time.Time
}

// Apply returns the items matching f, preserving order.
func (f Filter) Apply(items []*store.Item) []*store.Item {
	out := make([]*store.Item, 0, len(items))
	for _, item := range items {
		if item != nil && f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

func (f Filter) Match(item *store.Item) bool {
	if f.AreaID != nil && (item.AreaID == nil || *item.AreaID != *f.AreaID) {
		return false
	}
	if f.Status != nil && item.Status != *f.Status {
		return false
	}
	if f.Strategic != nil && item.IsStrategic != *f.Strategic {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.TargetFrom != nil || f.TargetTo != nil {
		if item.TargetDate == nil {
			return false
		}
		target := day(*item.TargetDate)
		if f.TargetFrom != nil && target.Before(day(*f.TargetFrom)) {
			return false
		}
		if f.TargetTo != nil && target.After(day(*f.TargetTo)) {
			return false
		}
	}
	return true
}
