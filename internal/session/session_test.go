package session

import (
	"testing"
	"time"
)

func TestMemoryStoreSetGetClear(t *testing.T) {
	store := NewMemoryStore(DefaultTTL, nil)

	if _, ok := store.Get(100); ok {
		t.Fatalf("expected no session for a fresh user")
	}

	store.Set(100, Session{Action: ActionAwaitDepositNominal})

	got, ok := store.Get(100)
	if !ok {
		t.Fatalf("expected a live session")
	}
	if got.Action != ActionAwaitDepositNominal {
		t.Fatalf("expected deposit action, got %v", got.Action)
	}

	store.Clear(100)
	if _, ok := store.Get(100); ok {
		t.Fatalf("expected cleared session to be gone")
	}
}

func TestMemoryStoreExpiresLazily(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore(10*time.Minute, clock)

	store.Set(100, Session{Action: ActionAwaitRestockPayload})

	now = now.Add(9 * time.Minute)
	if _, ok := store.Get(100); !ok {
		t.Fatalf("expected session to survive inside the ttl")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(100); ok {
		t.Fatalf("expected session to expire after the ttl")
	}
}

func TestMemoryStoreSetRefreshesTTL(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore(10*time.Minute, clock)

	store.Set(100, Session{Action: ActionAwaitDepositNominal})

	now = now.Add(8 * time.Minute)
	store.Set(100, Session{Action: ActionAwaitDepositNominal})

	now = now.Add(8 * time.Minute)
	if _, ok := store.Get(100); !ok {
		t.Fatalf("expected refreshed session to still be live")
	}
}

func TestMemoryStoreEvictsExpiredOnSet(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore(10*time.Minute, clock)

	store.Set(100, Session{Action: ActionAwaitDepositNominal})
	store.Set(200, Session{Action: ActionAwaitDepositNominal})

	now = now.Add(11 * time.Minute)
	store.Set(300, Session{Action: ActionAwaitRestockPayload})

	if len(store.entries) != 1 {
		t.Fatalf("expected stale entries to be evicted, got %d live entries", len(store.entries))
	}
	if _, ok := store.entries[300]; !ok {
		t.Fatalf("expected the fresh session to remain")
	}
}

func TestNewMemoryStoreClampsTTL(t *testing.T) {
	store := NewMemoryStore(0, nil)

	if store.ttl != DefaultTTL {
		t.Fatalf("expected fallback ttl %v, got %v", DefaultTTL, store.ttl)
	}
}

func TestActionString(t *testing.T) {
	cases := map[Action]string{
		ActionNone:                "none",
		ActionAwaitDepositNominal: "await_deposit_nominal",
		ActionAwaitRestockPayload: "await_restock_payload",
		Action(99):                "unknown",
	}

	for action, want := range cases {
		if got := action.String(); got != want {
			t.Fatalf("expected %v to render %q, got %q", int(action), want, got)
		}
	}
}
