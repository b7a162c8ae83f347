package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/logging"
)

const (
	retryAttempts = 3
	retryDelay    = 100 * time.Millisecond
)

// tableCollection narrows mongo.Collection to the calls the table layer needs,
// so tests can run against an in-memory fake.
type tableCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// Tables provides whole-document access to the four logical tables. Reads that
// fail after bounded retries degrade to an empty document (logged, never
// propagated); writes propagate their error so callers can tell the user the
// action did not stick.
type Tables struct {
	coll   tableCollection
	logger *logrus.Entry
}

// NewTables constructs the table layer over the provided collection.
func NewTables(coll tableCollection, logger *logrus.Entry) *Tables {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Tables{
		coll:   coll,
		logger: logger,
	}
}

// Users loads the users table. Missing or unreadable data yields an empty map.
func (t *Tables) Users(ctx context.Context) map[string]domain.User {
	users := make(map[string]domain.User)
	t.get(ctx, TableUsers, &users)
	return users
}

// PutUsers replaces the users table document.
func (t *Tables) PutUsers(ctx context.Context, users map[string]domain.User) error {
	return t.put(ctx, TableUsers, users)
}

// Accounts loads the accounts table. Missing or unreadable data yields an
// empty map.
func (t *Tables) Accounts(ctx context.Context) map[string]domain.Account {
	accounts := make(map[string]domain.Account)
	t.get(ctx, TableAccounts, &accounts)
	return accounts
}

// PutAccounts replaces the accounts table document.
func (t *Tables) PutAccounts(ctx context.Context, accounts map[string]domain.Account) error {
	return t.put(ctx, TableAccounts, accounts)
}

// Settings loads the singleton config table.
func (t *Tables) Settings(ctx context.Context) domain.Settings {
	var settings domain.Settings
	t.get(ctx, TableConfig, &settings)
	return settings
}

// PutSettings replaces the config table document.
func (t *Tables) PutSettings(ctx context.Context, settings domain.Settings) error {
	return t.put(ctx, TableConfig, settings)
}

// PendingPayments loads the pending_payments table. Missing or unreadable
// data yields an empty map.
func (t *Tables) PendingPayments(ctx context.Context) map[string]domain.PendingPayment {
	pending := make(map[string]domain.PendingPayment)
	t.get(ctx, TablePendingPayments, &pending)
	return pending
}

// PutPendingPayments replaces the pending_payments table document.
func (t *Tables) PutPendingPayments(ctx context.Context, pending map[string]domain.PendingPayment) error {
	return t.put(ctx, TablePendingPayments, pending)
}

// Bootstrap loads the settings document, stamping DeployedAt on the very first
// access and seeding the bonus percentage for a fresh deployment.
func (t *Tables) Bootstrap(ctx context.Context, bonusPercent int64, now time.Time) (domain.Settings, error) {
	if t == nil || t.coll == nil {
		return domain.Settings{}, errors.New("table store is not initialized")
	}
	if ctx == nil {
		return domain.Settings{}, errors.New("context is required")
	}

	settings := t.Settings(ctx)
	if settings.DeployedAt != nil {
		return settings, nil
	}

	deployed := now.UTC().Truncate(time.Millisecond)
	settings.DeployedAt = &deployed
	if settings.BonusPercent == 0 {
		settings.BonusPercent = bonusPercent
	}

	if err := t.PutSettings(ctx, settings); err != nil {
		return domain.Settings{}, fmt.Errorf("bootstrap settings: %w", err)
	}

	t.logger.WithFields(logging.Fields{
		"event":         "settings_bootstrap",
		"deployed_at":   deployed,
		"bonus_percent": settings.BonusPercent,
	}).Info("initialized settings table")

	return settings, nil
}

func (t *Tables) get(ctx context.Context, table string, out interface{}) {
	if t == nil || t.coll == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var doc tableDoc
	err := retry.Do(
		func() error {
			result := t.coll.FindOne(ctx, bson.M{"_id": table})
			if result == nil {
				return errors.New("find returned no result")
			}
			if err := result.Err(); err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					// Routine empty table, not a failure.
					return nil
				}
				return err
			}
			return result.Decode(&doc)
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		t.logger.WithFields(logging.Fields{
			"event": "table_read_degraded",
			"table": table,
		}).WithError(err).Warn("table read failed, using empty document")
		return
	}

	if len(doc.Data) == 0 {
		return
	}

	if err := bson.Unmarshal(doc.Data, out); err != nil {
		t.logger.WithFields(logging.Fields{
			"event": "table_decode_degraded",
			"table": table,
		}).WithError(err).Warn("table decode failed, using empty document")
	}
}

func (t *Tables) put(ctx context.Context, table string, data interface{}) error {
	if t == nil || t.coll == nil {
		return errors.New("table store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	err := retry.Do(
		func() error {
			_, err := t.coll.ReplaceOne(ctx,
				bson.M{"_id": table},
				bson.M{"_id": table, "data": data},
				options.Replace().SetUpsert(true),
			)
			return err
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("put table %s: %w", table, err)
	}

	return nil
}
