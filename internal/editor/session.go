package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

type sessionKey struct {
	tenantID uuid.UUID
	itemID   uuid.UUID
}

// Session holds the unsaved weight draft of one item.
type Session struct {
	key    sessionKey
	method store.ProgressMethod

	// saveMu serializes saves so a later draft is never overwritten by an earlier one.
	saveMu sync.Mutex

	mu       sync.Mutex
	draft    []store.SubUnit
	result   engine.ValidationResult
	pending  bool
	revision int
	lastEdit time.Time
	timer    *time.Timer
}

// Snapshot is a point-in-time copy of a session's state.
type Snapshot struct {
	TenantID uuid.UUID               `json:"tenant_id"`
	ItemID   uuid.UUID               `json:"item_id"`
	Method   store.ProgressMethod    `json:"progress_method"`
	Draft    []store.SubUnit         `json:"sub_units"`
	Result   engine.ValidationResult `json:"validation"`
	Pending  bool                    `json:"pending"`
	Revision int                     `json:"revision"`
	LastEdit time.Time               `json:"last_edit"`
}

func (s *Session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	draft := make([]store.SubUnit, len(s.draft))
	copy(draft, s.draft)
	return Snapshot{
		TenantID: s.key.tenantID,
		ItemID:   s.key.itemID,
		Method:   s.method,
		Draft:    draft,
		Result:   s.result,
		Pending:  s.pending,
		Revision: s.revision,
		LastEdit: s.lastEdit,
	}
}

// take returns the pending draft and clears the pending flag.
func (s *Session) take() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return Snapshot{}, false
	}
	snap := s.snapshotLocked()
	s.pending = false
	return snap, true
}

func (s *Session) stopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// cancel drops the pending draft and waits for a save already under way, so
// no draft reaches the store once cancel returns.
func (s *Session) cancel() {
	s.stopTimer()
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}
