// Package rollup periodically recomputes every tenant's KPI summary and
// strategic indicators, exports them as gauges and announces them on the bus.
// Results are never persisted.
package rollup

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/hermes"
	"github.com/MikeSquared-Agency/Stratix/internal/metrics"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

type Options struct {
	Interval    time.Duration
	Concurrency int
}

type Publisher struct {
	store   store.Store
	hermes  hermes.Client
	engine  *engine.Engine
	metrics *metrics.Metrics
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	kick chan uuid.UUID

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, h hermes.Client, e *engine.Engine, m *metrics.Metrics, opts Options, logger *slog.Logger) *Publisher {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Publisher{
		store:   s,
		hermes:  h,
		engine:  e,
		metrics: m,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		kick:    make(chan uuid.UUID, 64),
		stopCh:  make(chan struct{}),
	}
}

// Start runs the rollup loop. Saved weight events trigger an immediate
// rollup of the affected tenant.
func (p *Publisher) Start(ctx context.Context) {
	if p.hermes != nil {
		if err := p.hermes.Subscribe(hermes.SubjectWeightsSavedAll, p.handleWeightsEvent); err != nil {
			p.logger.Warn("failed to subscribe to weight events", "error", err)
		}
	}
	p.wg.Add(1)
	go p.loop(ctx)
}

func (p *Publisher) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

func (p *Publisher) handleWeightsEvent(subject string, _ []byte) {
	// Invalid drafts change nothing in the store.
	if !strings.HasSuffix(subject, ".saved") {
		return
	}
	raw, ok := hermes.TenantFromSubject(subject)
	if !ok {
		return
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return
	}
	select {
	case p.kick <- tenantID:
	default:
		// The next tick covers it.
	}
}

func (p *Publisher) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case tenantID := <-p.kick:
			if err := p.RollupTenant(ctx, tenantID); err != nil {
				p.logger.Warn("tenant rollup failed", "tenant", tenantID, "error", err)
			}
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logger.Error("rollup failed", "error", err)
			}
		}
	}
}

// RunOnce rolls up every tenant. A failing tenant is logged and skipped.
func (p *Publisher) RunOnce(ctx context.Context) error {
	start := time.Now()
	tenants, err := p.store.ListTenants(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for _, tenantID := range tenants {
		tenantID := tenantID
		g.Go(func() error {
			if err := p.RollupTenant(gctx, tenantID); err != nil {
				p.logger.Warn("tenant rollup failed", "tenant", tenantID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	p.metrics.ObserveRollup(time.Since(start))
	p.logger.Info("rollup complete", "tenants", len(tenants), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// RollupTenant computes and publishes one tenant's indicators.
func (p *Publisher) RollupTenant(ctx context.Context, tenantID uuid.UUID) error {
	items, err := p.store.ListItems(ctx, store.ItemFilter{TenantID: tenantID})
	if err != nil {
		p.metrics.RollupResult("error")
		return err
	}

	now := p.now()
	tenant := tenantID.String()
	summary := p.engine.Summarize(items)
	strategic := p.engine.EvaluateStrategic(items, now)

	p.metrics.ObserveSummary(tenant, summary)
	p.metrics.ObserveStrategic(tenant, strategic)
	p.metrics.RollupResult("ok")

	if p.hermes == nil {
		return nil
	}
	if err := p.hermes.Publish(hermes.SubjectKPISummary(tenant), hermes.SummaryComputedEvent{
		TenantID:   tenant,
		Summary:    summary,
		ComputedAt: now,
	}); err != nil {
		p.logger.Warn("publish summary failed", "tenant", tenant, "error", err)
	}
	if strategic.RiskAssessment != engine.RiskLow {
		if err := p.hermes.Publish(hermes.SubjectStrategicRisk(tenant), hermes.StrategicRiskEvent{
			TenantID:      tenant,
			Risk:          strategic.RiskAssessment,
			CriticalItems: len(strategic.CriticalItems),
			HealthScore:   strategic.PortfolioHealthScore,
			EvaluatedAt:   now,
		}); err != nil {
			p.logger.Warn("publish strategic risk failed", "tenant", tenant, "error", err)
		}
	}
	return nil
}
