package rollup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/hermes"
	"github.com/MikeSquared-Agency/Stratix/internal/metrics"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockStore) ListItems(ctx context.Context, filter store.ItemFilter) ([]*store.Item, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Item), args.Error(1)
}

func (m *MockStore) GetItem(context.Context, uuid.UUID, uuid.UUID) (*store.Item, error) {
	return nil, nil
}
func (m *MockStore) ListAreas(context.Context, uuid.UUID) ([]*store.Area, error) { return nil, nil }
func (m *MockStore) GetArea(context.Context, uuid.UUID, uuid.UUID) (*store.Area, error) {
	return nil, nil
}
func (m *MockStore) UpdateSubUnitWeights(context.Context, uuid.UUID, uuid.UUID, []store.WeightUpdate) error {
	return nil
}
func (m *MockStore) Ping(context.Context) error { return nil }
func (m *MockStore) Close() error               { return nil }

type MockHermes struct {
	mock.Mock
}

func (m *MockHermes) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	args := m.Called(subject, handler)
	return args.Error(0)
}

func (m *MockHermes) Close() {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var rollupNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newTestPublisher(s store.Store, h hermes.Client) *Publisher {
	p := New(s, h, engine.New(engine.DefaultParams()), metrics.New(prometheus.NewRegistry()),
		Options{Interval: time.Hour, Concurrency: 2}, discardLogger())
	p.now = func() time.Time { return rollupNow }
	return p
}

func TestRollupTenant_PublishesSummary(t *testing.T) {
	tenant := uuid.New()
	items := []*store.Item{
		{ID: uuid.New(), Status: store.StatusCompleted, Progress: 100, WeightFactor: 1},
		{ID: uuid.New(), Status: store.StatusInProgress, Progress: 50, WeightFactor: 1},
	}

	ms := new(MockStore)
	ms.On("ListItems", mock.Anything, store.ItemFilter{TenantID: tenant}).Return(items, nil)
	mh := new(MockHermes)
	mh.On("Publish", hermes.SubjectKPISummary(tenant.String()), mock.MatchedBy(func(ev hermes.SummaryComputedEvent) bool {
		return ev.TenantID == tenant.String() &&
			ev.Summary.TotalItems == 2 &&
			ev.Summary.AverageProgress == 75 &&
			ev.ComputedAt.Equal(rollupNow)
	})).Return(nil).Once()

	err := newTestPublisher(ms, mh).RollupTenant(context.Background(), tenant)
	require.NoError(t, err)
	ms.AssertExpectations(t)
	mh.AssertExpectations(t)
}

func TestRollupTenant_PublishesStrategicRisk(t *testing.T) {
	tenant := uuid.New()
	target := rollupNow.AddDate(0, 0, 7)
	items := []*store.Item{
		{ID: uuid.New(), IsStrategic: true, Status: store.StatusInProgress, Progress: 10, WeightFactor: 3, TargetDate: &target},
	}

	ms := new(MockStore)
	ms.On("ListItems", mock.Anything, mock.Anything).Return(items, nil)
	mh := new(MockHermes)
	mh.On("Publish", hermes.SubjectKPISummary(tenant.String()), mock.Anything).Return(nil)
	mh.On("Publish", hermes.SubjectStrategicRisk(tenant.String()), mock.MatchedBy(func(ev hermes.StrategicRiskEvent) bool {
		return ev.Risk == engine.RiskHigh && ev.CriticalItems == 1
	})).Return(nil).Once()

	require.NoError(t, newTestPublisher(ms, mh).RollupTenant(context.Background(), tenant))
	mh.AssertExpectations(t)
}

func TestRollupTenant_StoreError(t *testing.T) {
	ms := new(MockStore)
	ms.On("ListItems", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	mh := new(MockHermes)

	err := newTestPublisher(ms, mh).RollupTenant(context.Background(), uuid.New())
	assert.Error(t, err)
	mh.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRunOnce_AllTenants(t *testing.T) {
	tenants := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	ms := new(MockStore)
	ms.On("ListTenants", mock.Anything).Return(tenants, nil)
	ms.On("ListItems", mock.Anything, store.ItemFilter{TenantID: tenants[1]}).Return(nil, errors.New("boom"))
	ms.On("ListItems", mock.Anything, mock.Anything).Return([]*store.Item{}, nil)
	mh := new(MockHermes)
	mh.On("Publish", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, newTestPublisher(ms, mh).RunOnce(context.Background()))

	ms.AssertNumberOfCalls(t, "ListItems", 3)
	mh.AssertCalled(t, "Publish", hermes.SubjectKPISummary(tenants[0].String()), mock.Anything)
	mh.AssertCalled(t, "Publish", hermes.SubjectKPISummary(tenants[2].String()), mock.Anything)
	mh.AssertNotCalled(t, "Publish", hermes.SubjectKPISummary(tenants[1].String()), mock.Anything)
}

func TestRunOnce_ListTenantsError(t *testing.T) {
	ms := new(MockStore)
	ms.On("ListTenants", mock.Anything).Return(nil, errors.New("db down"))

	assert.Error(t, newTestPublisher(ms, nil).RunOnce(context.Background()))
}

func TestWeightsEventTriggersRollup(t *testing.T) {
	tenant := uuid.New()
	done := make(chan struct{})

	ms := new(MockStore)
	ms.On("ListItems", mock.Anything, store.ItemFilter{TenantID: tenant}).Return([]*store.Item{}, nil)
	mh := new(MockHermes)
	var handler func(string, []byte)
	mh.On("Subscribe", hermes.SubjectWeightsSavedAll, mock.Anything).Run(func(args mock.Arguments) {
		handler = args.Get(1).(func(string, []byte))
	}).Return(nil)
	mh.On("Publish", hermes.SubjectKPISummary(tenant.String()), mock.Anything).Run(func(mock.Arguments) {
		close(done)
	}).Return(nil).Once()

	p := newTestPublisher(ms, mh)
	p.Start(context.Background())
	defer p.Stop()

	require.NotNil(t, handler)
	handler(hermes.SubjectWeightsSaved(tenant.String(), uuid.New().String()), nil)
	handler("stratix.weights.not-a-uuid.x.saved", nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("weights event did not trigger a rollup")
	}
}

func TestInvalidWeightsEventDoesNotTriggerRollup(t *testing.T) {
	tenant := uuid.New()
	ms := new(MockStore)
	mh := new(MockHermes)
	p := newTestPublisher(ms, mh)

	p.handleWeightsEvent(hermes.SubjectWeightsInvalid(tenant.String(), uuid.New().String()), nil)
	select {
	case got := <-p.kick:
		t.Fatalf("unexpected rollup kick for %s", got)
	default:
	}

	p.handleWeightsEvent(hermes.SubjectWeightsSaved(tenant.String(), uuid.New().String()), nil)
	select {
	case got := <-p.kick:
		assert.Equal(t, tenant, got)
	default:
		t.Fatal("saved event did not queue a rollup")
	}
	ms.AssertNotCalled(t, "ListItems", mock.Anything, mock.Anything)
}
