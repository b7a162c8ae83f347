package store

import (
	"context"
	"errors"
	"time"

	"tg_store_bot/internal/domain"
)

// tableReader is the subset of Tables the stats provider needs.
type tableReader interface {
	Users(ctx context.Context) map[string]domain.User
	Accounts(ctx context.Context) map[string]domain.Account
	Settings(ctx context.Context) domain.Settings
}

// Stats aggregates the storefront counters reported by /status and /stats.
type Stats struct {
	Users        int           `json:"users"`
	Stock        int           `json:"stock"`
	Transactions int64         `json:"transactions"`
	Uptime       time.Duration `json:"-"`
}

// StatsProvider derives aggregate counters from the table documents without
// leaking persistence details to callers.
type StatsProvider struct {
	tables tableReader
}

// NewStatsProvider constructs a StatsProvider backed by the table layer.
func NewStatsProvider(tables tableReader) *StatsProvider {
	return &StatsProvider{tables: tables}
}

// Snapshot returns the current counters. Uptime is measured since the
// deployment timestamp recorded on first bootstrap; zero when unknown.
func (p *StatsProvider) Snapshot(ctx context.Context, now time.Time) (Stats, error) {
	if p == nil || p.tables == nil {
		return Stats{}, errors.New("stats provider is not initialized")
	}
	if ctx == nil {
		return Stats{}, errors.New("context is required")
	}

	settings := p.tables.Settings(ctx)

	stats := Stats{
		Users:        len(p.tables.Users(ctx)),
		Stock:        len(p.tables.Accounts(ctx)),
		Transactions: settings.TotalTransactions,
	}

	if settings.DeployedAt != nil {
		stats.Uptime = now.Sub(*settings.DeployedAt)
	}

	return stats, nil
}
