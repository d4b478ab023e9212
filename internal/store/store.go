package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemStatus string

const (
	StatusPlanning   ItemStatus = "planning"
	StatusInProgress ItemStatus = "in_progress"
	StatusCompleted  ItemStatus = "completed"
	StatusOnHold     ItemStatus = "on_hold"
)

// ProgressMethod selects how an item's completion percentage is derived.
type ProgressMethod string

const (
	MethodManual    ProgressMethod = "manual"
	MethodUnitBased ProgressMethod = "unit_based"
	MethodHybrid    ProgressMethod = "hybrid"
)

// UsesSubUnits reports whether the method derives progress from sub-units.
func (m ProgressMethod) UsesSubUnits() bool {
	return m == MethodUnitBased || m == MethodHybrid
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Item is an initiative tracked on the dashboard.
type Item struct {
	ID       uuid.UUID  `json:"id"`
	TenantID uuid.UUID  `json:"tenant_id"`
	AreaID   *uuid.UUID `json:"area_id,omitempty"`
	Title    string     `json:"title"`
	Category string     `json:"category,omitempty"`

	Status         ItemStatus     `json:"status"`
	Progress       int            `json:"progress"`
	ProgressMethod ProgressMethod `json:"progress_method"`
	WeightFactor   float64        `json:"weight_factor"`
	IsStrategic    bool           `json:"is_strategic"`

	// Optional figures; nil / invalid means "unknown", never zero.
	Budget         decimal.NullDecimal `json:"budget"`
	ActualCost     decimal.NullDecimal `json:"actual_cost"`
	EstimatedHours *float64            `json:"estimated_hours,omitempty"`
	ActualHours    *float64            `json:"actual_hours,omitempty"`

	TargetDate  *time.Time `json:"target_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	SubUnits []SubUnit `json:"sub_units,omitempty"`
}

// SubUnit is an activity belonging to exactly one Item.
type SubUnit struct {
	ID               uuid.UUID           `json:"id"`
	ItemID           uuid.UUID           `json:"item_id"`
	Title            string              `json:"title"`
	IsCompleted      bool                `json:"is_completed"`
	WeightPercentage decimal.NullDecimal `json:"weight_percentage"`
	Priority         Priority            `json:"priority,omitempty"`
	EstimatedHours   *float64            `json:"estimated_hours,omitempty"`
	Position         int                 `json:"position"`
}

// Area is an owning organizational unit.
type Area struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
}

type ItemFilter struct {
	TenantID  uuid.UUID
	AreaID    *uuid.UUID
	Status    *ItemStatus
	Strategic *bool
	Category  string
	Limit     int
	Offset    int
}

// WeightUpdate sets one sub-unit's weight.
type WeightUpdate struct {
	SubUnitID        uuid.UUID
	WeightPercentage decimal.NullDecimal
}

type Store interface {
	ListTenants(ctx context.Context) ([]uuid.UUID, error)

	ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error)
	GetItem(ctx context.Context, tenantID, id uuid.UUID) (*Item, error)

	ListAreas(ctx context.Context, tenantID uuid.UUID) ([]*Area, error)
	GetArea(ctx context.Context, tenantID, id uuid.UUID) (*Area, error)

	// UpdateSubUnitWeights rewrites weights of existing sub-units in one transaction.
	UpdateSubUnitWeights(ctx context.Context, tenantID, itemID uuid.UUID, updates []WeightUpdate) error

	Ping(ctx context.Context) error
	Close() error
}
