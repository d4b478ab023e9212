// Package snapshot loads portfolio snapshots from YAML or JSON files for
// offline evaluation.
package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// Snapshot is an immutable view of one tenant's portfolio.
type Snapshot struct {
	TenantID uuid.UUID
	Areas    []*store.Area
	Items    []*store.Item
}

// FindItem looks an item up by id or, failing that, by exact title.
func (s *Snapshot) FindItem(ref string) *store.Item {
	if id, err := uuid.Parse(ref); err == nil {
		for _, item := range s.Items {
			if item.ID == id {
				return item
			}
		}
	}
	for _, item := range s.Items {
		if item.Title == ref {
			return item
		}
	}
	return nil
}

// FindArea looks an area up by id or name.
func (s *Snapshot) FindArea(ref string) *store.Area {
	id, idErr := uuid.Parse(ref)
	for _, a := range s.Areas {
		if (idErr == nil && a.ID == id) || a.Name == ref {
			return a
		}
	}
	return nil
}

func (s *Snapshot) AreaName(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	for _, a := range s.Areas {
		if a.ID == *id {
			return a.Name
		}
	}
	return ""
}

type file struct {
	TenantID string       `yaml:"tenant_id"`
	Areas    []areaRecord `yaml:"areas"`
	Items    []itemRecord `yaml:"items"`
}

type areaRecord struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type itemRecord struct {
	ID             string          `yaml:"id"`
	AreaID         string          `yaml:"area_id"`
	Title          string          `yaml:"title"`
	Category       string          `yaml:"category"`
	Status         string          `yaml:"status"`
	Progress       int             `yaml:"progress"`
	ProgressMethod string          `yaml:"progress_method"`
	WeightFactor   *float64        `yaml:"weight_factor"`
	IsStrategic    bool            `yaml:"is_strategic"`
	Budget         amount          `yaml:"budget"`
	ActualCost     amount          `yaml:"actual_cost"`
	EstimatedHours *float64        `yaml:"estimated_hours"`
	ActualHours    *float64        `yaml:"actual_hours"`
	TargetDate     date            `yaml:"target_date"`
	CompletedAt    date            `yaml:"completed_at"`
	SubUnits       []subUnitRecord `yaml:"sub_units"`
}

type subUnitRecord struct {
	ID               string   `yaml:"id"`
	Title            string   `yaml:"title"`
	IsCompleted      bool     `yaml:"is_completed"`
	WeightPercentage amount   `yaml:"weight_percentage"`
	Priority         string   `yaml:"priority"`
	EstimatedHours   *float64 `yaml:"estimated_hours"`
}

// amount is an optional exact decimal written as a number or a string.
type amount struct {
	decimal.NullDecimal
}

func (a *amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!null" || n.Value == "" {
		a.Valid = false
		return nil
	}
	d, err := decimal.NewFromString(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q", n.Line, n.Value)
	}
	a.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// date is an optional timestamp; bare dates are midnight UTC.
type date struct {
	t *time.Time
}

func (d *date) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!null" || n.Value == "" {
		d.t = nil
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, n.Value); err == nil {
			t = t.UTC()
			d.t = &t
			return nil
		}
	}
	return fmt.Errorf("line %d: invalid date %q", n.Line, n.Value)
}

// Load reads a snapshot file. JSON is accepted as a subset of YAML.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

func Parse(r io.Reader) (*Snapshot, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return f.build()
}

func (f *file) build() (*Snapshot, error) {
	s := &Snapshot{Areas: []*store.Area{}, Items: []*store.Item{}}
	var err error
	if f.TenantID != "" {
		if s.TenantID, err = uuid.Parse(f.TenantID); err != nil {
			return nil, fmt.Errorf("tenant_id: %w", err)
		}
	}

	for i, a := range f.Areas {
		id, err := parseID(a.ID)
		if err != nil {
			return nil, fmt.Errorf("areas[%d].id: %w", i, err)
		}
		s.Areas = append(s.Areas, &store.Area{ID: id, TenantID: s.TenantID, Name: a.Name})
	}

	for i, rec := range f.Items {
		item, err := rec.build(s.TenantID)
		if err != nil {
			return nil, fmt.Errorf("items[%d] %q: %w", i, rec.Title, err)
		}
		s.Items = append(s.Items, item)
	}
	return s, nil
}

func (rec *itemRecord) build(tenantID uuid.UUID) (*store.Item, error) {
	id, err := parseID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	item := &store.Item{
		ID:             id,
		TenantID:       tenantID,
		Title:          rec.Title,
		Category:       rec.Category,
		Status:         store.ItemStatus(strings.ToLower(rec.Status)),
		Progress:       rec.Progress,
		ProgressMethod: store.ProgressMethod(strings.ToLower(rec.ProgressMethod)),
		WeightFactor:   1.0,
		IsStrategic:    rec.IsStrategic,
		Budget:         rec.Budget.NullDecimal,
		ActualCost:     rec.ActualCost.NullDecimal,
		EstimatedHours: rec.EstimatedHours,
		ActualHours:    rec.ActualHours,
		TargetDate:     rec.TargetDate.t,
		CompletedAt:    rec.CompletedAt.t,
	}
	if item.Status == "" {
		item.Status = store.StatusPlanning
	}
	if item.ProgressMethod == "" {
		item.ProgressMethod = store.MethodManual
	}
	if rec.WeightFactor != nil {
		item.WeightFactor = *rec.WeightFactor
	}
	if rec.AreaID != "" {
		areaID, err := uuid.Parse(rec.AreaID)
		if err != nil {
			return nil, fmt.Errorf("area_id: %w", err)
		}
		item.AreaID = &areaID
	}

	item.SubUnits = make([]store.SubUnit, 0, len(rec.SubUnits))
	for j, su := range rec.SubUnits {
		suID, err := parseID(su.ID)
		if err != nil {
			return nil, fmt.Errorf("sub_units[%d].id: %w", j, err)
		}
		item.SubUnits = append(item.SubUnits, store.SubUnit{
			ID:               suID,
			ItemID:           item.ID,
			Title:            su.Title,
			IsCompleted:      su.IsCompleted,
			WeightPercentage: su.WeightPercentage.NullDecimal,
			Priority:         store.Priority(strings.ToLower(su.Priority)),
			EstimatedHours:   su.EstimatedHours,
			Position:         j,
		})
	}
	return item, nil
}

// parseID parses id, generating a fresh one when it is empty.
func parseID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(id)
}
