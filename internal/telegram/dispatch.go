package telegram

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tg_store_bot/internal/logging"
	"tg_store_bot/internal/session"
)

// handleUpdate is the single entry point for every inbound update. Ordering:
// opportunistic expiry sweep (detached), rate gate (messages only), ban gate,
// session step, command, callback.
func (c *Client) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil {
		return
	}

	// The sweep rides along with every update but must never delay the
	// response to it.
	go c.sweepDetached()

	switch {
	case update.Message != nil:
		c.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		c.handleCallback(ctx, update.CallbackQuery)
	}
}

func (c *Client) sweepDetached() {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundSendTimeout)
	defer cancel()

	if count := c.payments.SweepExpired(ctx, c.now()); count > 0 {
		c.logger.WithFields(logging.Fields{
			"event":   "sweep_expired",
			"expired": count,
		}).Info("expired pending payments")
	}
}

func (c *Client) handleMessage(ctx context.Context, msg *models.Message) {
	if msg.From == nil {
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	isAdmin := c.cfg.IsAdmin(userID)

	user, registered := c.registrar.Get(ctx, userID)
	banned := registered && user.Banned

	// Spam accounting applies to messages only. The admin is exempt, and
	// already-banned users hit the ban gate below instead.
	if !isAdmin && !banned {
		if _, over := c.limiter.Record(userID, c.now()); over {
			c.autoBan(ctx, userID, chatID)
			return
		}
	}

	if banned && !isAdmin {
		c.messenger.SendMessage(ctx, chatID, textBanned, nil)
		return
	}

	// A live session owns the next free-text message, ahead of command
	// parsing.
	if sess, ok := c.sessions.Get(userID); ok {
		c.handleSessionStep(ctx, userID, chatID, text, sess)
		return
	}

	if strings.HasPrefix(text, "/") {
		c.handleCommand(ctx, userID, chatID, text)
		return
	}

	// Plain text with no session from a non-admin is deliberately ignored.
	c.logger.WithFields(logging.Fields{
		"event":   "text_ignored",
		"user_id": userID,
	}).Debug("ignoring free text without a session")
}

func (c *Client) handleCallback(ctx context.Context, cb *models.CallbackQuery) {
	userID := cb.From.ID
	chatID, messageID := callbackOrigin(cb)
	if chatID == 0 {
		// Private-chat bot: the chat id equals the user id when the original
		// message is no longer accessible.
		chatID = userID
	}

	user, registered := c.registrar.Get(ctx, userID)
	if registered && user.Banned && !c.cfg.IsAdmin(userID) {
		c.messenger.AnswerCallback(ctx, cb.ID, textBanned, true)
		return
	}

	action := parseCallback(cb.Data)
	switch action.kind {
	case cbMenu:
		c.messenger.AnswerCallback(ctx, cb.ID, "", false)
		c.showMenu(ctx, chatID, messageID)
	case cbCatalog:
		c.messenger.AnswerCallback(ctx, cb.ID, "", false)
		c.showCatalog(ctx, chatID, messageID)
	case cbBalance:
		c.messenger.AnswerCallback(ctx, cb.ID, "", false)
		c.showBalance(ctx, userID, chatID, messageID)
	case cbDeposit:
		c.messenger.AnswerCallback(ctx, cb.ID, "", false)
		c.startDeposit(ctx, userID, chatID)
	case cbHelp:
		c.messenger.AnswerCallback(ctx, cb.ID, "", false)
		c.showHelp(ctx, chatID, messageID)
	case cbGroup:
		c.showGroupUnit(ctx, cb.ID, chatID, messageID, action.name, action.price)
	case cbBuy:
		c.completePurchase(ctx, cb.ID, userID, chatID, action.key)
	case cbPayConfirm:
		c.confirmDeposit(ctx, cb.ID, userID, chatID)
	case cbPayCancel:
		c.cancelDeposit(ctx, cb.ID, userID, chatID)
	case cbUnknown:
		c.messenger.AnswerCallback(ctx, cb.ID, textUnknownAction, false)
	}
}

// autoBan persists the ban, clears the spam window, and notifies the user,
// the admin, and the audit channel. The triggering update is dropped.
func (c *Client) autoBan(ctx context.Context, userID, chatID int64) {
	if _, err := c.registrar.SetBanned(ctx, userID, true, c.now()); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "auto_ban_failed",
			"user_id": userID,
		}).WithError(err).Error("failed to persist auto-ban")
		return
	}

	c.limiter.Reset(userID)

	c.logger.WithFields(logging.Fields{
		"event":   "auto_ban",
		"user_id": userID,
		"limit":   c.limiter.Limit(),
		"window":  c.limiter.Window(),
	}).Warn("banned user for spamming")

	c.messenger.SendMessage(ctx, chatID, textAutoBanned, nil)
	if c.cfg.AdminID != 0 {
		c.messenger.SendMessage(ctx, c.cfg.AdminID, adminAutoBanText(userID), nil)
	}
	c.audit.Notify(adminAutoBanText(userID))
}

func (c *Client) handleSessionStep(ctx context.Context, userID, chatID int64, text string, sess session.Session) {
	switch sess.Action {
	case session.ActionAwaitDepositNominal:
		c.handleDepositNominal(ctx, userID, chatID, text)
	case session.ActionAwaitRestockPayload:
		c.handleRestockPayload(ctx, userID, chatID, text)
	case session.ActionNone:
		c.sessions.Clear(userID)
	default:
		c.sessions.Clear(userID)
	}
}

func callbackOrigin(cb *models.CallbackQuery) (int64, int) {
	switch cb.Message.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if cb.Message.Message == nil {
			return 0, 0
		}
		return cb.Message.Message.Chat.ID, cb.Message.Message.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if cb.Message.InaccessibleMessage == nil {
			return 0, 0
		}
		return cb.Message.InaccessibleMessage.Chat.ID, 0
	default:
		return 0, 0
	}
}
