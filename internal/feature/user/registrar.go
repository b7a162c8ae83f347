// Package user provides helpers for user registration and account-state
// mutations (ban flag, balance adjustments).
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/logging"
)

type tables interface {
	Users(ctx context.Context) map[string]domain.User
	PutUsers(ctx context.Context, users map[string]domain.User) error
}

// Registrar ensures users are present in the users table and applies
// account-state mutations.
type Registrar struct {
	tables tables
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar over the table layer.
func NewRegistrar(t tables, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		tables: t,
		logger: logger,
	}
}

// Get fetches the user's record.
func (r *Registrar) Get(ctx context.Context, userID int64) (domain.User, bool) {
	if r == nil || r.tables == nil {
		return domain.User{}, false
	}

	user, ok := r.tables.Users(ctx)[domain.UserKey(userID)]
	return user, ok
}

// Ensure creates the user record on first contact. Reports whether a new
// record was created.
func (r *Registrar) Ensure(ctx context.Context, userID int64, now time.Time) (bool, error) {
	if r == nil || r.tables == nil {
		return false, errors.New("user registrar is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if userID == 0 {
		return false, errors.New("user id is required")
	}

	users := r.tables.Users(ctx)
	key := domain.UserKey(userID)
	if _, ok := users[key]; ok {
		return false, nil
	}

	users[key] = domain.User{JoinedAt: now.UTC().Truncate(time.Millisecond)}
	if err := r.tables.PutUsers(ctx, users); err != nil {
		return false, fmt.Errorf("ensure user: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":   "user_registered",
		"user_id": userID,
	}).Info("registered new user")

	return true, nil
}

// SetBanned flips the user's ban flag, creating the record when absent so the
// auto-ban gate can persist a ban for a user who never ran /start.
func (r *Registrar) SetBanned(ctx context.Context, userID int64, banned bool, now time.Time) (domain.User, error) {
	if r == nil || r.tables == nil {
		return domain.User{}, errors.New("user registrar is not initialized")
	}
	if ctx == nil {
		return domain.User{}, errors.New("context is required")
	}
	if userID == 0 {
		return domain.User{}, errors.New("user id is required")
	}

	users := r.tables.Users(ctx)
	key := domain.UserKey(userID)
	user, ok := users[key]
	if !ok {
		user = domain.User{JoinedAt: now.UTC().Truncate(time.Millisecond)}
	}

	user.Banned = banned
	users[key] = user

	if err := r.tables.PutUsers(ctx, users); err != nil {
		return domain.User{}, fmt.Errorf("set banned: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":   "user_ban_flag",
		"user_id": userID,
		"banned":  banned,
	}).Info("updated user ban flag")

	return user, nil
}

// AdjustBalance adds delta to the user's balance, flooring at zero. The user
// must already be registered.
func (r *Registrar) AdjustBalance(ctx context.Context, userID int64, delta int64) (domain.User, error) {
	if r == nil || r.tables == nil {
		return domain.User{}, errors.New("user registrar is not initialized")
	}
	if ctx == nil {
		return domain.User{}, errors.New("context is required")
	}

	users := r.tables.Users(ctx)
	key := domain.UserKey(userID)
	user, ok := users[key]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}

	user.Balance += delta
	if user.Balance < 0 {
		user.Balance = 0
	}
	users[key] = user

	if err := r.tables.PutUsers(ctx, users); err != nil {
		return domain.User{}, fmt.Errorf("adjust balance: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":   "balance_adjusted",
		"user_id": userID,
		"delta":   delta,
		"balance": user.Balance,
	}).Info("adjusted user balance")

	return user, nil
}
