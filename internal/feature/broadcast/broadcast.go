// Package broadcast fans a message out to every known user.
package broadcast

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/logging"
)

type tables interface {
	Users(ctx context.Context) map[string]domain.User
}

// Sender delivers one message to one chat and reports delivery failure.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Broadcaster iterates all known user ids and sends to each. A failure for one
// recipient never aborts the remaining sends.
type Broadcaster struct {
	tables tables
	sender Sender
	logger *logrus.Entry
}

// NewBroadcaster constructs a Broadcaster.
func NewBroadcaster(t tables, sender Sender, logger *logrus.Entry) *Broadcaster {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Broadcaster{
		tables: t,
		sender: sender,
		logger: logger,
	}
}

// Send delivers text to every registered user in deterministic key order.
// Returns the delivered and failed counts.
func (b *Broadcaster) Send(ctx context.Context, text string) (int, int, error) {
	if b == nil || b.tables == nil || b.sender == nil {
		return 0, 0, errors.New("broadcaster is not initialized")
	}
	if ctx == nil {
		return 0, 0, errors.New("context is required")
	}

	users := b.tables.Users(ctx)
	keys := make([]string, 0, len(users))
	for key := range users {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	delivered, failed := 0, 0
	for _, key := range keys {
		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			failed++
			b.logger.WithFields(logging.Fields{
				"event":    "broadcast_bad_key",
				"user_key": key,
			}).Warn("skipping malformed user key")
			continue
		}

		if err := b.sender.Send(ctx, userID, text); err != nil {
			failed++
			b.logger.WithFields(logging.Fields{
				"event":   "broadcast_delivery_failed",
				"user_id": userID,
			}).WithError(err).Warn("broadcast delivery failed")
			continue
		}
		delivered++
	}

	b.logger.WithFields(logging.Fields{
		"event":     "broadcast_done",
		"delivered": delivered,
		"failed":    failed,
	}).Info("broadcast finished")

	return delivered, failed, nil
}
