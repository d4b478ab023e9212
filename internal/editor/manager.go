// Package editor keeps interactive weight drafts and autosaves them after a
// quiet period. Validation runs on every edit through the engine; only valid
// drafts reach the store.
package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/hermes"
	"github.com/MikeSquared-Agency/Stratix/internal/metrics"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

const saveTimeout = 10 * time.Second

type Options struct {
	Debounce    time.Duration
	IdleTimeout time.Duration
}

type Manager struct {
	store   store.Store
	hermes  hermes.Client
	engine  *engine.Engine
	metrics *metrics.Metrics
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*Session

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewManager(s store.Store, h hermes.Client, e *engine.Engine, m *metrics.Metrics, opts Options, logger *slog.Logger) *Manager {
	if opts.Debounce <= 0 {
		opts.Debounce = 1500 * time.Millisecond
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 10 * time.Minute
	}
	return &Manager{
		store:    s,
		hermes:   h,
		engine:   e,
		metrics:  m,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[sessionKey]*Session),
		stopCh:   make(chan struct{}),
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.expiryLoop(ctx)
}

// Stop ends the expiry loop and saves every pending draft.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.stopTimer()
		m.flush(s)
	}
}

// Edit replaces the draft of an item, validates it and schedules an autosave.
// The validation result is returned immediately.
func (m *Manager) Edit(tenantID uuid.UUID, item *store.Item, units []store.SubUnit) engine.ValidationResult {
	result := m.engine.ValidateForMethod(item.ProgressMethod, units)

	key := sessionKey{tenantID: tenantID, itemID: item.ID}
	m.mu.Lock()
	s, ok := m.sessions[key]
	if !ok {
		s = &Session{key: key}
		m.sessions[key] = s
	}
	open := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetEditorSessions(open)

	draft := make([]store.SubUnit, len(units))
	copy(draft, units)

	s.mu.Lock()
	s.method = item.ProgressMethod
	s.draft = draft
	s.result = result
	s.pending = true
	s.revision++
	s.lastEdit = m.now()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(m.opts.Debounce, func() { m.flush(s) })
	s.mu.Unlock()

	return result
}

// Session returns the current state of an item's draft.
func (m *Manager) Session(tenantID, itemID uuid.UUID) (Snapshot, bool) {
	m.mu.Lock()
	s, ok := m.sessions[sessionKey{tenantID: tenantID, itemID: itemID}]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// Discard drops an item's draft without saving it. An autosave already in
// progress completes before Discard returns; none starts afterwards.
func (m *Manager) Discard(tenantID, itemID uuid.UUID) bool {
	key := sessionKey{tenantID: tenantID, itemID: itemID}
	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	open := len(m.sessions)
	m.mu.Unlock()
	if ok {
		s.cancel()
		m.metrics.SetEditorSessions(open)
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// flush saves the pending draft of s, if any.
func (m *Manager) flush(s *Session) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap, ok := s.take()
	if !ok {
		return
	}

	tenant, item := snap.TenantID.String(), snap.ItemID.String()
	if !snap.Result.IsValid {
		m.metrics.Autosave("invalid")
		m.logger.Info("draft not saved, weights invalid", "tenant", tenant, "item_id", item, "errors", snap.Result.Errors)
		m.publish(hermes.SubjectWeightsInvalid(tenant, item), hermes.WeightsInvalidEvent{
			TenantID:    tenant,
			ItemID:      item,
			TotalWeight: snap.Result.TotalWeight,
			Errors:      snap.Result.Errors,
			DetectedAt:  m.now(),
		})
		return
	}

	updates := make([]store.WeightUpdate, len(snap.Draft))
	for i, u := range snap.Draft {
		updates[i] = store.WeightUpdate{SubUnitID: u.ID, WeightPercentage: u.WeightPercentage}
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := m.store.UpdateSubUnitWeights(ctx, snap.TenantID, snap.ItemID, updates); err != nil {
		m.metrics.Autosave("error")
		m.logger.Error("autosave failed", "tenant", tenant, "item_id", item, "error", err)
		return
	}

	m.metrics.Autosave("saved")
	m.logger.Info("draft saved", "tenant", tenant, "item_id", item, "revision", snap.Revision)
	m.publish(hermes.SubjectWeightsSaved(tenant, item), hermes.WeightsSavedEvent{
		TenantID:    tenant,
		ItemID:      item,
		SubUnits:    len(snap.Draft),
		TotalWeight: snap.Result.TotalWeight,
		Warnings:    snap.Result.Warnings,
		SavedAt:     m.now(),
	})
}

func (m *Manager) publish(subject string, event interface{}) {
	if m.hermes == nil {
		return
	}
	if err := m.hermes.Publish(subject, event); err != nil {
		m.logger.Warn("publish failed", "subject", subject, "error", err)
	}
}

func (m *Manager) expiryLoop(ctx context.Context) {
	defer m.wg.Done()
	interval := m.opts.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.expireIdle()
		}
	}
}

// expireIdle saves and closes sessions that have not been edited within the idle timeout.
func (m *Manager) expireIdle() int {
	cutoff := m.now().Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	var idle []*Session
	for key, s := range m.sessions {
		s.mu.Lock()
		stale := s.lastEdit.Before(cutoff)
		s.mu.Unlock()
		if stale {
			idle = append(idle, s)
			delete(m.sessions, key)
		}
	}
	open := len(m.sessions)
	m.mu.Unlock()

	for _, s := range idle {
		s.stopTimer()
		m.flush(s)
	}
	if len(idle) > 0 {
		m.metrics.SetEditorSessions(open)
		m.logger.Info("expired idle editing sessions", "count", len(idle))
	}
	return len(idle)
}
