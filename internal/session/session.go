// Package session tracks transient multi-step conversations with users.
//
// Sessions are advisory routing state only. They live in process memory, are
// lost on restart, and are never consulted for authorization: privileged
// handlers re-check the admin id and ban flag on their own.
package session

import (
	"sync"
	"time"
)

// Action enumerates every multi-step interaction the bot supports. The set is
// closed: dispatch switches over it exhaustively, so adding a step means
// extending both this enum and the dispatcher.
type Action int

const (
	// ActionNone is the zero value: no conversation in progress.
	ActionNone Action = iota
	// ActionAwaitDepositNominal expects the user's next message to be the
	// deposit amount.
	ActionAwaitDepositNominal
	// ActionAwaitRestockPayload expects the admin's next message to carry
	// new stock lines.
	ActionAwaitRestockPayload
)

// String names the action for logs.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionAwaitDepositNominal:
		return "await_deposit_nominal"
	case ActionAwaitRestockPayload:
		return "await_restock_payload"
	default:
		return "unknown"
	}
}

// Session captures the bot being mid-conversation with a user.
type Session struct {
	Action Action
}

// Store is the session persistence contract. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(userID int64) (Session, bool)
	Set(userID int64, s Session)
	Clear(userID int64)
}

// DefaultTTL bounds how long an abandoned conversation is remembered.
const DefaultTTL = 30 * time.Minute

type entry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is the in-process Store implementation with per-entry TTL
// eviction. The clock is injectable for deterministic tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore constructs a MemoryStore. A non-positive ttl falls back to
// DefaultTTL; a nil clock falls back to time.Now.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}

	return &MemoryStore{
		entries: make(map[int64]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the user's live session, expiring it lazily when stale.
func (m *MemoryStore) Get(userID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		return Session{}, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, userID)
		return Session{}, false
	}

	return e.session, true
}

// Set stores the user's session and refreshes its TTL. Expired entries for
// other users are evicted opportunistically to bound memory growth.
func (m *MemoryStore) Set(userID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
		}
	}

	m.entries[userID] = entry{
		session:   s,
		expiresAt: now.Add(m.ttl),
	}
}

// Clear removes the user's session.
func (m *MemoryStore) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, userID)
}
