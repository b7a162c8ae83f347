// Package shop implements the catalog view and the purchase engine.
package shop

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/logging"
)

// tables is the persistence surface the engine needs.
type tables interface {
	Users(ctx context.Context) map[string]domain.User
	PutUsers(ctx context.Context, users map[string]domain.User) error
	Accounts(ctx context.Context) map[string]domain.Account
	PutAccounts(ctx context.Context, accounts map[string]domain.Account) error
	Settings(ctx context.Context) domain.Settings
	PutSettings(ctx context.Context, settings domain.Settings) error
}

// Notifier delivers audit notifications. Implementations must not block.
type Notifier interface {
	Notify(text string)
}

// Group is one catalog row: identical stock units folded together.
type Group struct {
	Name  string
	Price int64
	Count int
}

// Receipt is returned to the buyer after a successful purchase.
type Receipt struct {
	Account    domain.Account
	NewBalance int64
}

// Engine reads and mutates the users, accounts, and config tables.
type Engine struct {
	tables   tables
	notifier Notifier
	logger   *logrus.Entry
}

// NewEngine constructs the purchase engine. The notifier may be nil when audit
// notifications are disabled.
func NewEngine(t tables, notifier Notifier, logger *logrus.Entry) *Engine {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Engine{
		tables:   t,
		notifier: notifier,
		logger:   logger,
	}
}

// ListGrouped folds live accounts into (name, price) groups sorted by name
// ascending, price ascending as the tie-break, so the catalog renders
// deterministically.
func (e *Engine) ListGrouped(ctx context.Context) []Group {
	counts := make(map[string]*Group)
	for _, account := range e.tables.Accounts(ctx) {
		key := fmt.Sprintf("%s\x00%d", account.Name, account.Price)
		if g, ok := counts[key]; ok {
			g.Count++
			continue
		}
		counts[key] = &Group{Name: account.Name, Price: account.Price, Count: 1}
	}

	groups := make([]Group, 0, len(counts))
	for _, g := range counts {
		groups = append(groups, *g)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].Price < groups[j].Price
	})

	return groups
}

// PickUnit returns one in-stock unit matching the group, chosen deterministic
// by key order, so a catalog tap resolves to a concrete account.
func (e *Engine) PickUnit(ctx context.Context, name string, price int64) (domain.Account, bool) {
	accounts := e.tables.Accounts(ctx)

	keys := make([]string, 0, len(accounts))
	for key, account := range accounts {
		if account.Name == name && account.Price == price {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return domain.Account{}, false
	}

	sort.Strings(keys)
	return accounts[keys[0]], true
}

// Purchase consumes the account identified by accountKey for userID.
//
// Stock existence is re-checked here, at commit time: when two buyers race for
// the last unit the second commit observes the deleted key and fails with
// ErrStockGone. Balance decrement, stock removal, and the transaction counter
// bump are persisted together; stock is removed before the balance is charged,
// so a partial write loses a stock unit, never the user's money.
func (e *Engine) Purchase(ctx context.Context, userID int64, accountKey string) (Receipt, error) {
	if e == nil || e.tables == nil {
		return Receipt{}, errors.New("purchase engine is not initialized")
	}
	if ctx == nil {
		return Receipt{}, errors.New("context is required")
	}

	accounts := e.tables.Accounts(ctx)
	account, ok := accounts[accountKey]
	if !ok {
		return Receipt{}, domain.ErrStockGone
	}

	users := e.tables.Users(ctx)
	key := domain.UserKey(userID)
	user, ok := users[key]
	if !ok {
		return Receipt{}, domain.ErrUserNotFound
	}

	if user.Balance < account.Price {
		return Receipt{}, domain.ErrInsufficientBalance
	}

	user.Balance -= account.Price
	users[key] = user
	delete(accounts, accountKey)

	settings := e.tables.Settings(ctx)
	settings.TotalTransactions++

	if err := e.tables.PutAccounts(ctx, accounts); err != nil {
		return Receipt{}, fmt.Errorf("remove stock: %w", err)
	}
	if err := e.tables.PutUsers(ctx, users); err != nil {
		return Receipt{}, fmt.Errorf("charge balance: %w", err)
	}
	if err := e.tables.PutSettings(ctx, settings); err != nil {
		return Receipt{}, fmt.Errorf("count transaction: %w", err)
	}

	e.logger.WithFields(logging.Fields{
		"event":   "purchase",
		"user_id": userID,
		"account": account.Email,
		"price":   account.Price,
		"balance": user.Balance,
	}).Info("purchase committed")

	if e.notifier != nil {
		e.notifier.Notify(fmt.Sprintf(
			"Purchase: user %d bought %s (%s) for %d, balance now %d",
			userID, account.Name, account.Email, account.Price, user.Balance,
		))
	}

	return Receipt{Account: account, NewBalance: user.Balance}, nil
}

// Restock inserts new stock units keyed by email and reports how many were
// added. Existing keys are overwritten; the accounts table stays the sole
// source of truth for what is sellable.
func (e *Engine) Restock(ctx context.Context, items []domain.Account) (int, error) {
	if e == nil || e.tables == nil {
		return 0, errors.New("purchase engine is not initialized")
	}
	if ctx == nil {
		return 0, errors.New("context is required")
	}

	accounts := e.tables.Accounts(ctx)
	added := 0
	for _, item := range items {
		if item.Email == "" || item.Name == "" || item.Price <= 0 {
			continue
		}
		accounts[item.Email] = item
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if err := e.tables.PutAccounts(ctx, accounts); err != nil {
		return 0, fmt.Errorf("restock: %w", err)
	}

	return added, nil
}
