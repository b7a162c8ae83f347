// Package payment implements the deposit lifecycle: a pending record is
// created per request and leaves the table through confirmation, cancellation,
// or the expiry sweep.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/logging"
)

// tables is the persistence surface the machine needs.
type tables interface {
	Users(ctx context.Context) map[string]domain.User
	PutUsers(ctx context.Context, users map[string]domain.User) error
	Settings(ctx context.Context) domain.Settings
	PutSettings(ctx context.Context, settings domain.Settings) error
	PendingPayments(ctx context.Context) map[string]domain.PendingPayment
	PutPendingPayments(ctx context.Context, pending map[string]domain.PendingPayment) error
}

// Notifier delivers audit notifications. Implementations must not block.
type Notifier interface {
	Notify(text string)
}

// UserNotifier sends a plain message to a user, swallowing delivery failures.
type UserNotifier interface {
	NotifyUser(userID int64, text string)
}

// Confirmation is returned after a deposit is credited.
type Confirmation struct {
	Pending    domain.PendingPayment
	NewBalance int64
}

// Machine owns the pending-payment state transitions.
type Machine struct {
	tables     tables
	notifier   Notifier
	userNotify UserNotifier
	logger     *logrus.Entry
	min        int64
	max        int64
	ttl        time.Duration

	newID func() string
}

// NewMachine constructs the deposit state machine. min/max bound accepted
// nominals; ttl bounds how long a request stays pending.
func NewMachine(t tables, notifier Notifier, userNotify UserNotifier, min, max int64, ttl time.Duration, logger *logrus.Entry) *Machine {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Machine{
		tables:     t,
		notifier:   notifier,
		userNotify: userNotify,
		logger:     logger,
		min:        min,
		max:        max,
		ttl:        ttl,
		newID:      uuid.NewString,
	}
}

// RequestDeposit validates the nominal, replaces any stale pending record for
// the user (only the newest request survives), and persists the new one.
func (m *Machine) RequestDeposit(ctx context.Context, userID int64, nominal int64, now time.Time) (domain.PendingPayment, error) {
	if m == nil || m.tables == nil {
		return domain.PendingPayment{}, errors.New("payment machine is not initialized")
	}
	if ctx == nil {
		return domain.PendingPayment{}, errors.New("context is required")
	}

	if nominal <= 0 || nominal < m.min || nominal > m.max {
		return domain.PendingPayment{}, domain.ErrInvalidNominal
	}

	settings := m.tables.Settings(ctx)
	bonus := nominal * settings.BonusPercent / 100

	record := domain.PendingPayment{
		UserID:        domain.UserKey(userID),
		Nominal:       nominal,
		BonusAmount:   bonus,
		TotalAdded:    nominal + bonus,
		TransactionID: m.newID(),
		CreatedAt:     now.UTC(),
	}

	pending := m.tables.PendingPayments(ctx)
	pending[record.UserID] = record

	if err := m.tables.PutPendingPayments(ctx, pending); err != nil {
		return domain.PendingPayment{}, fmt.Errorf("store pending payment: %w", err)
	}

	m.logger.WithFields(logging.Fields{
		"event":          "deposit_requested",
		"user_id":        userID,
		"nominal":        nominal,
		"bonus":          bonus,
		"transaction_id": record.TransactionID,
	}).Info("pending payment created")

	return record, nil
}

// Confirm credits the pending total to the user's balance, bumps the
// transaction counter, and deletes the record. A record already removed by the
// sweep or an earlier confirmation yields ErrNoPendingPayment, never a second
// credit.
func (m *Machine) Confirm(ctx context.Context, userID int64, now time.Time) (Confirmation, error) {
	if m == nil || m.tables == nil {
		return Confirmation{}, errors.New("payment machine is not initialized")
	}
	if ctx == nil {
		return Confirmation{}, errors.New("context is required")
	}

	key := domain.UserKey(userID)

	pending := m.tables.PendingPayments(ctx)
	record, ok := pending[key]
	if !ok {
		return Confirmation{}, domain.ErrNoPendingPayment
	}

	users := m.tables.Users(ctx)
	user, ok := users[key]
	if !ok {
		user = domain.User{JoinedAt: now.UTC()}
	}
	user.Balance += record.TotalAdded
	users[key] = user

	settings := m.tables.Settings(ctx)
	settings.TotalTransactions++

	delete(pending, key)

	if err := m.tables.PutUsers(ctx, users); err != nil {
		return Confirmation{}, fmt.Errorf("credit balance: %w", err)
	}
	if err := m.tables.PutPendingPayments(ctx, pending); err != nil {
		return Confirmation{}, fmt.Errorf("clear pending payment: %w", err)
	}
	if err := m.tables.PutSettings(ctx, settings); err != nil {
		return Confirmation{}, fmt.Errorf("count transaction: %w", err)
	}

	m.logger.WithFields(logging.Fields{
		"event":          "deposit_confirmed",
		"user_id":        userID,
		"nominal":        record.Nominal,
		"bonus":          record.BonusAmount,
		"total":          record.TotalAdded,
		"balance":        user.Balance,
		"transaction_id": record.TransactionID,
	}).Info("deposit credited")

	if m.notifier != nil {
		m.notifier.Notify(fmt.Sprintf(
			"Deposit confirmed: user %d, nominal %d, bonus %d, total %d, balance now %d",
			userID, record.Nominal, record.BonusAmount, record.TotalAdded, user.Balance,
		))
	}

	return Confirmation{Pending: record, NewBalance: user.Balance}, nil
}

// Cancel deletes the user's pending record without touching the balance.
func (m *Machine) Cancel(ctx context.Context, userID int64) (domain.PendingPayment, error) {
	if m == nil || m.tables == nil {
		return domain.PendingPayment{}, errors.New("payment machine is not initialized")
	}
	if ctx == nil {
		return domain.PendingPayment{}, errors.New("context is required")
	}

	key := domain.UserKey(userID)

	pending := m.tables.PendingPayments(ctx)
	record, ok := pending[key]
	if !ok {
		return domain.PendingPayment{}, domain.ErrNoPendingPayment
	}

	delete(pending, key)
	if err := m.tables.PutPendingPayments(ctx, pending); err != nil {
		return domain.PendingPayment{}, fmt.Errorf("clear pending payment: %w", err)
	}

	m.logger.WithFields(logging.Fields{
		"event":          "deposit_cancelled",
		"user_id":        userID,
		"transaction_id": record.TransactionID,
	}).Info("pending payment cancelled")

	return record, nil
}

// SweepExpired removes every pending record older than the TTL, notifying each
// affected user. A failed notification never aborts the rest of the sweep.
// Returns the number of expired records.
func (m *Machine) SweepExpired(ctx context.Context, now time.Time) int {
	if m == nil || m.tables == nil {
		return 0
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pending := m.tables.PendingPayments(ctx)

	expired := make([]domain.PendingPayment, 0)
	for key, record := range pending {
		if record.Age(now) <= m.ttl {
			continue
		}
		delete(pending, key)
		expired = append(expired, record)
	}

	if len(expired) == 0 {
		return 0
	}

	if err := m.tables.PutPendingPayments(ctx, pending); err != nil {
		m.logger.WithField("event", "sweep_failed").WithError(err).Warn("failed to persist expiry sweep")
		return 0
	}

	for _, record := range expired {
		m.logger.WithFields(logging.Fields{
			"event":          "deposit_expired",
			"user_key":       record.UserID,
			"transaction_id": record.TransactionID,
		}).Info("pending payment expired")

		if m.userNotify == nil {
			continue
		}
		if id, err := parseUserKey(record.UserID); err == nil {
			m.userNotify.NotifyUser(id, "Your deposit request expired. Start a new one when you are ready.")
		}
	}

	return len(expired)
}

// TTL returns the configured pending-payment lifetime.
func (m *Machine) TTL() time.Duration {
	return m.ttl
}
