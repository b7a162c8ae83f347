package store

import (
	"context"
	"testing"
	"time"

	"tg_store_bot/internal/domain"
)

type fakeTableReader struct {
	users    map[string]domain.User
	accounts map[string]domain.Account
	settings domain.Settings
}

func (f *fakeTableReader) Users(context.Context) map[string]domain.User {
	return f.users
}

func (f *fakeTableReader) Accounts(context.Context) map[string]domain.Account {
	return f.accounts
}

func (f *fakeTableReader) Settings(context.Context) domain.Settings {
	return f.settings
}

func TestSnapshotCountsTables(t *testing.T) {
	deployed := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	provider := NewStatsProvider(&fakeTableReader{
		users: map[string]domain.User{
			"100": {},
			"200": {Banned: true},
		},
		accounts: map[string]domain.Account{
			"a@x.com": {Email: "a@x.com", Price: 50000},
		},
		settings: domain.Settings{TotalTransactions: 7, DeployedAt: &deployed},
	})

	stats, err := provider.Snapshot(context.Background(), deployed.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("expected snapshot, got error: %v", err)
	}

	if stats.Users != 2 {
		t.Fatalf("expected 2 users, got %d", stats.Users)
	}
	if stats.Stock != 1 {
		t.Fatalf("expected 1 stock unit, got %d", stats.Stock)
	}
	if stats.Transactions != 7 {
		t.Fatalf("expected 7 transactions, got %d", stats.Transactions)
	}
	if stats.Uptime != 6*time.Hour {
		t.Fatalf("expected 6h uptime, got %v", stats.Uptime)
	}
}

func TestSnapshotWithoutDeployedAt(t *testing.T) {
	provider := NewStatsProvider(&fakeTableReader{})

	stats, err := provider.Snapshot(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("expected snapshot, got error: %v", err)
	}
	if stats.Uptime != 0 {
		t.Fatalf("expected zero uptime before bootstrap, got %v", stats.Uptime)
	}
}

func TestSnapshotRequiresInitialization(t *testing.T) {
	var provider *StatsProvider

	if _, err := provider.Snapshot(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected uninitialized provider to error")
	}

	var nilCtx context.Context
	if _, err := NewStatsProvider(&fakeTableReader{}).Snapshot(nilCtx, time.Now()); err == nil {
		t.Fatalf("expected nil context to error")
	}
}
