package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
	"github.com/MikeSquared-Agency/Stratix/internal/trends"
)

type fakeStore struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*store.Item
	areas   map[uuid.UUID]*store.Area
	updates [][]store.WeightUpdate
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items: make(map[uuid.UUID]*store.Item),
		areas: make(map[uuid.UUID]*store.Area),
	}
}

func (f *fakeStore) addItem(item *store.Item) *store.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	for i := range item.SubUnits {
		if item.SubUnits[i].ID == uuid.Nil {
			item.SubUnits[i].ID = uuid.New()
		}
		item.SubUnits[i].ItemID = item.ID
		item.SubUnits[i].Position = i
	}
	f.items[item.ID] = item
	return item
}

func (f *fakeStore) addArea(tenantID uuid.UUID, name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &store.Area{ID: uuid.New(), TenantID: tenantID, Name: name}
	f.areas[a.ID] = a
	return a.ID
}

func (f *fakeStore) ListTenants(context.Context) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, it := range f.items {
		if !seen[it.TenantID] {
			seen[it.TenantID] = true
			out = append(out, it.TenantID)
		}
	}
	return out, f.err
}

func (f *fakeStore) ListItems(_ context.Context, filter store.ItemFilter) ([]*store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*store.Item
	for _, it := range f.items {
		if it.TenantID != filter.TenantID {
			continue
		}
		if filter.AreaID != nil && (it.AreaID == nil || *it.AreaID != *filter.AreaID) {
			continue
		}
		if filter.Status != nil && it.Status != *filter.Status {
			continue
		}
		if filter.Strategic != nil && it.IsStrategic != *filter.Strategic {
			continue
		}
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeStore) GetItem(_ context.Context, tenantID, id uuid.UUID) (*store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	it, ok := f.items[id]
	if !ok || it.TenantID != tenantID {
		return nil, nil
	}
	return it, nil
}

func (f *fakeStore) ListAreas(_ context.Context, tenantID uuid.UUID) ([]*store.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Area
	for _, a := range f.areas {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, f.err
}

func (f *fakeStore) GetArea(_ context.Context, tenantID, id uuid.UUID) (*store.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.areas[id]
	if !ok || a.TenantID != tenantID {
		return nil, f.err
	}
	return a, f.err
}

func (f *fakeStore) UpdateSubUnitWeights(_ context.Context, tenantID, itemID uuid.UUID, updates []store.WeightUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	it, ok := f.items[itemID]
	if !ok || it.TenantID != tenantID {
		return errors.New("item not found")
	}
	for _, u := range updates {
		for i := range it.SubUnits {
			if it.SubUnits[i].ID == u.SubUnitID {
				it.SubUnits[i].WeightPercentage = u.WeightPercentage
			}
		}
	}
	f.updates = append(f.updates, updates)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.err }
func (f *fakeStore) Close() error               { return nil }

func (f *fakeStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type fakeTrends struct {
	series *trends.Series
	err    error
	days   int
}

func (f *fakeTrends) AreaTrend(_ context.Context, _, _ uuid.UUID, days int) (*trends.Series, error) {
	f.days = days
	return f.series, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func float64Ptr(v float64) *float64 { return &v }
