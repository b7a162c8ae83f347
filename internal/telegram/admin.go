package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/logging"
	"tg_store_bot/internal/session"
)

// handleAdminCommand routes privileged commands. Every branch re-validates the
// caller against the configured admin id; neither sessions nor callback data
// are trusted for authorization.
func (c *Client) handleAdminCommand(ctx context.Context, userID, chatID int64, cmd string, args []string, raw string) {
	operation := strings.TrimPrefix(cmd, "/")
	if !c.authorizer.Authorize(userID, operation) {
		// Privileged commands from regular users fall under the same no-op
		// policy as unknown text.
		return
	}

	switch cmd {
	case "/stats":
		c.adminStats(ctx, chatID)
	case "/restock":
		c.sessions.Set(userID, session.Session{Action: session.ActionAwaitRestockPayload})
		c.messenger.SendMessage(ctx, chatID, textRestockPrompt, nil)
	case "/addbalance":
		c.adminAddBalance(ctx, chatID, args)
	case "/ban":
		c.adminSetBanned(ctx, chatID, args, true)
	case "/unban":
		c.adminSetBanned(ctx, chatID, args, false)
	case "/broadcast":
		c.adminBroadcast(ctx, chatID, raw)
	case "/cancelpayment":
		c.adminCancelPayment(ctx, chatID, args)
	}
}

func (c *Client) adminStats(ctx context.Context, chatID int64) {
	if c.stats == nil {
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	snapshot, err := c.stats.Snapshot(ctx, c.now())
	if err != nil {
		c.logger.WithField("event", "stats_failed").WithError(err).Error("failed to read stats")
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	c.messenger.SendMessage(ctx, chatID, statsText(snapshot), nil)
}

// handleRestockPayload consumes the admin's stock lines. The session only
// carried us here for routing; the admin id is re-checked regardless.
func (c *Client) handleRestockPayload(ctx context.Context, userID, chatID int64, text string) {
	c.sessions.Clear(userID)

	if !c.authorizer.Authorize(userID, "restock") {
		return
	}

	items, malformed := parseRestockLines(text)
	if len(items) == 0 {
		c.messenger.SendMessage(ctx, chatID, textRestockEmpty, nil)
		return
	}

	added, err := c.shop.Restock(ctx, items)
	if err != nil {
		c.logger.WithField("event", "restock_failed").WithError(err).Error("failed to persist restock")
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	c.messenger.SendMessage(ctx, chatID, restockDoneText(added, malformed), nil)
	c.audit.Notify(fmt.Sprintf("Restock: %d unit(s) added", added))
}

// parseRestockLines decodes one account per line:
// email|name|price[|password[|description[|note]]]
func parseRestockLines(text string) ([]domain.Account, int) {
	items := make([]domain.Account, 0)
	malformed := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			malformed++
			continue
		}

		price, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil || price <= 0 {
			malformed++
			continue
		}

		account := domain.Account{
			Email: strings.TrimSpace(parts[0]),
			Name:  strings.TrimSpace(parts[1]),
			Price: price,
		}
		if account.Email == "" || account.Name == "" {
			malformed++
			continue
		}
		if len(parts) > 3 {
			account.Password = strings.TrimSpace(parts[3])
		}
		if len(parts) > 4 {
			account.Description = strings.TrimSpace(parts[4])
		}
		if len(parts) > 5 {
			account.Note = strings.TrimSpace(parts[5])
		}

		items = append(items, account)
	}

	return items, malformed
}

func (c *Client) adminAddBalance(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		c.messenger.SendMessage(ctx, chatID, "Usage: /addbalance <user_id> <amount>", nil)
		return
	}

	targetID, err1 := strconv.ParseInt(args[0], 10, 64)
	delta, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		c.messenger.SendMessage(ctx, chatID, "Usage: /addbalance <user_id> <amount>", nil)
		return
	}

	user, err := c.registrar.AdjustBalance(ctx, targetID, delta)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.messenger.SendMessage(ctx, chatID, textTargetNotFound, nil)
		return
	case err != nil:
		c.logger.WithField("event", "adjust_failed").WithError(err).Error("failed to adjust balance")
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	c.messenger.SendMessage(ctx, chatID,
		fmt.Sprintf("Balance of %d adjusted by %d, now %d.", targetID, delta, user.Balance), nil)
	c.audit.Notify(fmt.Sprintf("Balance adjust: user %d by %d, now %d", targetID, delta, user.Balance))
}

func (c *Client) adminSetBanned(ctx context.Context, chatID int64, args []string, banned bool) {
	verb := "unban"
	if banned {
		verb = "ban"
	}

	if len(args) != 1 {
		c.messenger.SendMessage(ctx, chatID, fmt.Sprintf("Usage: /%s <user_id>", verb), nil)
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		c.messenger.SendMessage(ctx, chatID, fmt.Sprintf("Usage: /%s <user_id>", verb), nil)
		return
	}

	if _, err := c.registrar.SetBanned(ctx, targetID, banned, c.now()); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "ban_flag_failed",
			"user_id": targetID,
		}).WithError(err).Error("failed to update ban flag")
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	c.messenger.SendMessage(ctx, chatID, fmt.Sprintf("User %d %sned.", targetID, verb), nil)
	if !banned {
		c.limiter.Reset(targetID)
		_ = c.messenger.Send(ctx, targetID, textUnbanned)
	}
	c.audit.Notify(fmt.Sprintf("Admin %s: user %d", verb, targetID))
}

func (c *Client) adminBroadcast(ctx context.Context, chatID int64, raw string) {
	_, rest, _ := strings.Cut(raw, " ")
	text := strings.TrimSpace(rest)
	if text == "" {
		c.messenger.SendMessage(ctx, chatID, "Usage: /broadcast <text>", nil)
		return
	}

	delivered, failed, err := c.broadcaster.Send(ctx, text)
	if err != nil {
		c.logger.WithField("event", "broadcast_failed").WithError(err).Error("broadcast did not run")
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	c.messenger.SendMessage(ctx, chatID,
		fmt.Sprintf("Broadcast delivered to %d user(s), %d failed.", delivered, failed), nil)
	c.audit.Notify(fmt.Sprintf("Broadcast: delivered %d, failed %d", delivered, failed))
}

func (c *Client) adminCancelPayment(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		c.messenger.SendMessage(ctx, chatID, "Usage: /cancelpayment <user_id>", nil)
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		c.messenger.SendMessage(ctx, chatID, "Usage: /cancelpayment <user_id>", nil)
		return
	}

	record, err := c.payments.Cancel(ctx, targetID)
	switch {
	case errors.Is(err, domain.ErrNoPendingPayment):
		c.messenger.SendMessage(ctx, chatID, textTargetNoPending, nil)
		return
	case err != nil:
		c.logger.WithField("event", "admin_cancel_failed").WithError(err).Error("failed to cancel pending payment")
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	c.messenger.SendMessage(ctx, chatID,
		fmt.Sprintf("Pending payment %s of user %d cancelled.", record.TransactionID, targetID), nil)
	c.messenger.NotifyUser(targetID, textDepositCancelledByAdmin)
	c.audit.Notify(fmt.Sprintf("Admin cancelled pending payment %s of user %d", record.TransactionID, targetID))
}
