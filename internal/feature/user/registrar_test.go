package user

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"tg_store_bot/internal/domain"
)

type memTables struct {
	users        map[string]domain.User
	putErr       error
	putUserCalls int
}

func newMemTables() *memTables {
	return &memTables{users: make(map[string]domain.User)}
}

func (m *memTables) Users(context.Context) map[string]domain.User {
	out := make(map[string]domain.User, len(m.users))
	for k, v := range m.users {
		out[k] = v
	}
	return out
}

func (m *memTables) PutUsers(_ context.Context, users map[string]domain.User) error {
	m.putUserCalls++
	if m.putErr != nil {
		return m.putErr
	}
	m.users = users
	return nil
}

func newTestRegistrar(t *testing.T, tables *memTables) *Registrar {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	return NewRegistrar(tables, logger.WithField("test", t.Name()))
}

func TestEnsureRegistersOnFirstContact(t *testing.T) {
	tables := newMemTables()
	registrar := newTestRegistrar(t, tables)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	created, err := registrar.Ensure(context.Background(), 100, now)
	if err != nil {
		t.Fatalf("expected ensure to succeed, got %v", err)
	}
	if !created {
		t.Fatalf("expected a new record on first contact")
	}

	stored, ok := tables.users["100"]
	if !ok {
		t.Fatalf("expected the user record to be persisted")
	}
	if !stored.JoinedAt.Equal(now) {
		t.Fatalf("expected joined_at %v, got %v", now, stored.JoinedAt)
	}
	if stored.Balance != 0 || stored.Banned {
		t.Fatalf("expected a zeroed fresh record, got %+v", stored)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	tables := newMemTables()
	tables.users["100"] = domain.User{Balance: 5000}
	registrar := newTestRegistrar(t, tables)

	created, err := registrar.Ensure(context.Background(), 100, time.Now())
	if err != nil {
		t.Fatalf("expected ensure to succeed, got %v", err)
	}
	if created {
		t.Fatalf("expected no new record for a known user")
	}
	if tables.putUserCalls != 0 {
		t.Fatalf("expected no write for a known user")
	}
	if tables.users["100"].Balance != 5000 {
		t.Fatalf("expected the existing record to be untouched")
	}
}

func TestEnsureRequiresUserID(t *testing.T) {
	registrar := newTestRegistrar(t, newMemTables())

	if _, err := registrar.Ensure(context.Background(), 0, time.Now()); err == nil {
		t.Fatalf("expected zero user id to error")
	}
}

func TestSetBannedCreatesMissingRecord(t *testing.T) {
	tables := newMemTables()
	registrar := newTestRegistrar(t, tables)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	banned, err := registrar.SetBanned(context.Background(), 100, true, now)
	if err != nil {
		t.Fatalf("expected ban to succeed, got %v", err)
	}
	if !banned.Banned {
		t.Fatalf("expected the ban flag to be set")
	}
	if !tables.users["100"].Banned {
		t.Fatalf("expected the ban to persist for an unregistered user")
	}
}

func TestSetBannedUnbanKeepsBalance(t *testing.T) {
	tables := newMemTables()
	tables.users["100"] = domain.User{Balance: 5000, Banned: true}
	registrar := newTestRegistrar(t, tables)

	user, err := registrar.SetBanned(context.Background(), 100, false, time.Now())
	if err != nil {
		t.Fatalf("expected unban to succeed, got %v", err)
	}
	if user.Banned {
		t.Fatalf("expected the ban flag to be cleared")
	}
	if user.Balance != 5000 {
		t.Fatalf("expected the balance to survive the unban, got %d", user.Balance)
	}
}

func TestAdjustBalanceFloorsAtZero(t *testing.T) {
	tables := newMemTables()
	tables.users["100"] = domain.User{Balance: 3000}
	registrar := newTestRegistrar(t, tables)

	user, err := registrar.AdjustBalance(context.Background(), 100, -5000)
	if err != nil {
		t.Fatalf("expected adjust to succeed, got %v", err)
	}
	if user.Balance != 0 {
		t.Fatalf("expected the balance to floor at zero, got %d", user.Balance)
	}
}

func TestAdjustBalanceAddsDelta(t *testing.T) {
	tables := newMemTables()
	tables.users["100"] = domain.User{Balance: 3000}
	registrar := newTestRegistrar(t, tables)

	user, err := registrar.AdjustBalance(context.Background(), 100, 7000)
	if err != nil {
		t.Fatalf("expected adjust to succeed, got %v", err)
	}
	if user.Balance != 10000 {
		t.Fatalf("expected balance 10000, got %d", user.Balance)
	}
	if tables.users["100"].Balance != 10000 {
		t.Fatalf("expected the adjustment to persist")
	}
}

func TestAdjustBalanceRequiresRegistration(t *testing.T) {
	registrar := newTestRegistrar(t, newMemTables())

	_, err := registrar.AdjustBalance(context.Background(), 100, 1000)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGet(t *testing.T) {
	tables := newMemTables()
	tables.users["100"] = domain.User{Balance: 1234}
	registrar := newTestRegistrar(t, tables)

	user, ok := registrar.Get(context.Background(), 100)
	if !ok || user.Balance != 1234 {
		t.Fatalf("expected the stored record, got %+v ok=%v", user, ok)
	}

	if _, ok := registrar.Get(context.Background(), 200); ok {
		t.Fatalf("expected no record for an unknown user")
	}
}
