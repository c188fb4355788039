// Package cache holds the client-side view of each habit: its check-in log and
// the analytics derived from it. Both always change together.
package cache

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/pkg/entity"
)

var ErrNotLoaded = errors.New("habit is not loaded in cache")

// RecomputeFunc derives analytics for a habit from a log.
type RecomputeFunc func(habit entity.Habit, log entity.CheckInLog) entity.Analytics

type Entry struct {
	Habit     entity.Habit
	Log       entity.CheckInLog
	Analytics entity.Analytics
}

func (e Entry) clone() Entry {
	e.Log = e.Log.Clone()
	return e
}

type State int

const (
	StatePending State = iota
	StateConfirmed
	StateRolledBack
	// StateQueued means the write is kept locally and waits in the outbox.
	StateQueued
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolled-back"
	case StateQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// Token identifies one optimistic mutation of one date key.
type Token struct {
	ID      uuid.UUID
	HabitID uuid.UUID
	DateKey entity.DateKey
	// Record is the optimistic record for DateKey; nil means it was removed.
	Record *entity.CheckIn

	arena    *Arena
	snapshot Entry
	version  uint64
	state    State
}

func (t *Token) State() State {
	t.arena.mu.Lock()
	defer t.arena.mu.Unlock()
	return t.state
}

// Snapshot is the cached entry as it was right before the mutation.
func (t *Token) Snapshot() Entry {
	return t.snapshot.clone()
}

type slot struct {
	entry   Entry
	version uint64
	pending map[uuid.UUID]*Token
}

// Arena is keyed by habit ID. It is safe for concurrent use.
type Arena struct {
	mu        sync.Mutex
	slots     map[uuid.UUID]*slot
	recompute RecomputeFunc
}

func New(recompute RecomputeFunc) *Arena {
	return &Arena{
		slots:     make(map[uuid.UUID]*slot),
		recompute: recompute,
	}
}

// Get returns a copy of the cached entry and its version.
func (a *Arena) Get(habitID uuid.UUID) (Entry, uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.slots[habitID]
	if !ok {
		return Entry{}, 0, false
	}
	return s.entry.clone(), s.version, true
}

// Version returns the current version of the habit's entry, 0 if absent.
func (a *Arena) Version(habitID uuid.UUID) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.slots[habitID]; ok {
		return s.version
	}
	return 0
}

// Load stores a freshly read entry if the habit is not cached yet and returns
// whatever is cached afterwards.
func (a *Arena) Load(habitID uuid.UUID, e Entry) Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.slots[habitID]; ok {
		return s.entry.clone()
	}
	e = e.clone()
	a.slots[habitID] = &slot{entry: e, version: 1, pending: make(map[uuid.UUID]*Token)}
	return e.clone()
}

// PutIfVersion replaces the entry only if nothing changed it since version was
// read and no mutation of the habit is pending. It reports whether it wrote.
func (a *Arena) PutIfVersion(habitID uuid.UUID, e Entry, version uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.slots[habitID]
	if !ok {
		if version != 0 {
			return false
		}
		a.slots[habitID] = &slot{entry: e.clone(), version: 1, pending: make(map[uuid.UUID]*Token)}
		return true
	}
	if s.version != version || len(s.pending) > 0 {
		return false
	}
	s.entry = e.clone()
	s.version++
	return true
}

// Invalidate drops the habit from the cache unless a mutation is pending.
func (a *Arena) Invalidate(habitID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.slots[habitID]
	if !ok {
		return true
	}
	if len(s.pending) > 0 {
		return false
	}
	delete(a.slots, habitID)
	return true
}

// Begin snapshots the habit's entry, applies rec at date (nil removes the
// record) and recomputes analytics, all under one lock.
func (a *Arena) Begin(habitID uuid.UUID, date entity.DateKey, rec *entity.CheckIn) (*Token, Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.slots[habitID]
	if !ok {
		return nil, Entry{}, ErrNotLoaded
	}
	if rec != nil {
		cp := *rec
		rec = &cp
	}
	token := &Token{
		ID:       uuid.New(),
		HabitID:  habitID,
		DateKey:  date,
		Record:   rec,
		arena:    a,
		snapshot: s.entry.clone(),
		state:    StatePending,
	}
	next := s.entry.Log.With(date, rec)
	s.entry = Entry{
		Habit:     s.entry.Habit,
		Log:       next,
		Analytics: a.recompute(s.entry.Habit, next),
	}
	s.version++
	token.version = s.version
	s.pending[token.ID] = token
	return token, s.entry.clone(), nil
}

func (a *Arena) settle(token *Token, state State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if token == nil || token.state != StatePending {
		return errorvalues.ErrStaleToken
	}
	token.state = state
	if s, ok := a.slots[token.HabitID]; ok {
		delete(s.pending, token.ID)
		// Reads that started while the write was in flight are now stale.
		s.version++
	}
	return nil
}

// Commit marks the optimistic state as confirmed by the store.
func (a *Arena) Commit(token *Token) error {
	return a.settle(token, StateConfirmed)
}

// MarkQueued keeps the optimistic state; the write will be replayed later.
func (a *Arena) MarkQueued(token *Token) error {
	return a.settle(token, StateQueued)
}

// Rollback restores the snapshot taken by Begin. When another mutation of the
// same habit landed in between, only the token's date key is restored and
// analytics are recomputed, so the other mutation is not lost.
func (a *Arena) Rollback(token *Token) (Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if token == nil || token.state != StatePending {
		return Entry{}, errorvalues.ErrStaleToken
	}
	token.state = StateRolledBack
	s, ok := a.slots[token.HabitID]
	if !ok {
		return Entry{}, ErrNotLoaded
	}
	delete(s.pending, token.ID)
	if s.version == token.version {
		s.entry = token.snapshot.clone()
	} else {
		var prev *entity.CheckIn
		if c, ok := token.snapshot.Log[token.DateKey]; ok {
			prev = &c
		}
		next := s.entry.Log.With(token.DateKey, prev)
		s.entry = Entry{
			Habit:     s.entry.Habit,
			Log:       next,
			Analytics: a.recompute(s.entry.Habit, next),
		}
	}
	s.version++
	return s.entry.clone(), nil
}

// Pending reports how many mutations of the habit are in flight.
func (a *Arena) Pending(habitID uuid.UUID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.slots[habitID]; ok {
		return len(s.pending)
	}
	return 0
}
