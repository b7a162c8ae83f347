package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"tg_store_bot/internal/domain"
	"tg_store_bot/internal/logging"
	"tg_store_bot/internal/session"
)

func (c *Client) handleCommand(ctx context.Context, userID, chatID int64, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}

	cmd := fields[0]
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}

	switch cmd {
	case "/start":
		c.handleStart(ctx, userID, chatID)
	case "/menu":
		c.showMenu(ctx, chatID, 0)
	case "/help":
		c.showHelp(ctx, chatID, 0)
	case "/restock", "/addbalance", "/ban", "/unban", "/broadcast", "/cancelpayment", "/stats":
		c.handleAdminCommand(ctx, userID, chatID, cmd, fields[1:], text)
	default:
		if c.cfg.IsAdmin(userID) {
			c.messenger.SendMessage(ctx, chatID, textUnknownCommand, nil)
			return
		}
		c.logger.WithFields(logging.Fields{
			"event":   "command_ignored",
			"user_id": userID,
			"command": cmd,
		}).Debug("ignoring unknown command")
	}
}

func (c *Client) handleStart(ctx context.Context, userID, chatID int64) {
	if _, err := c.registrar.Ensure(ctx, userID, c.now()); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "start_failed",
			"user_id": userID,
		}).WithError(err).Error("failed to register user")
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	c.sessions.Clear(userID)
	c.messenger.SendMessage(ctx, chatID, welcomeText(c.cfg.BotName), mainMenuKeyboard())
}

// showMenu renders the main menu, editing in place when the tap came from an
// existing message.
func (c *Client) showMenu(ctx context.Context, chatID int64, messageID int) {
	c.render(ctx, chatID, messageID, menuText(c.cfg.BotName), mainMenuKeyboard())
}

func (c *Client) showCatalog(ctx context.Context, chatID int64, messageID int) {
	groups := c.shop.ListGrouped(ctx)
	if len(groups) == 0 {
		c.render(ctx, chatID, messageID, textCatalogEmpty, backKeyboard())
		return
	}

	c.render(ctx, chatID, messageID, textCatalogHeader, catalogKeyboard(groups))
}

func (c *Client) showGroupUnit(ctx context.Context, callbackID string, chatID int64, messageID int, name string, price int64) {
	account, ok := c.shop.PickUnit(ctx, name, price)
	if !ok {
		c.messenger.AnswerCallback(ctx, callbackID, textStockGone, true)
		c.showCatalog(ctx, chatID, messageID)
		return
	}

	c.messenger.AnswerCallback(ctx, callbackID, "", false)
	c.render(ctx, chatID, messageID, unitText(account), unitKeyboard(account))
}

func (c *Client) completePurchase(ctx context.Context, callbackID string, userID, chatID int64, accountKey string) {
	receipt, err := c.shop.Purchase(ctx, userID, accountKey)
	switch {
	case errors.Is(err, domain.ErrStockGone):
		c.messenger.AnswerCallback(ctx, callbackID, textStockGone, true)
		c.showCatalog(ctx, chatID, 0)
		return
	case errors.Is(err, domain.ErrUserNotFound):
		c.messenger.AnswerCallback(ctx, callbackID, textNeedStart, true)
		return
	case errors.Is(err, domain.ErrInsufficientBalance):
		c.messenger.AnswerCallback(ctx, callbackID, textNoBalance, true)
		return
	case err != nil:
		c.logger.WithFields(logging.Fields{
			"event":   "purchase_failed",
			"user_id": userID,
		}).WithError(err).Error("purchase did not commit")
		c.messenger.AnswerCallback(ctx, callbackID, textTryAgain, true)
		return
	}

	c.messenger.AnswerCallback(ctx, callbackID, "", false)
	c.messenger.SendMessage(ctx, chatID, receiptText(receipt), backKeyboard())
}

func (c *Client) showBalance(ctx context.Context, userID, chatID int64, messageID int) {
	user, ok := c.registrar.Get(ctx, userID)
	if !ok {
		c.render(ctx, chatID, messageID, textNeedStart, backKeyboard())
		return
	}

	c.render(ctx, chatID, messageID, balanceText(user.Balance), backKeyboard())
}

func (c *Client) startDeposit(ctx context.Context, userID, chatID int64) {
	c.sessions.Set(userID, session.Session{Action: session.ActionAwaitDepositNominal})
	c.messenger.SendMessage(ctx, chatID, depositPromptText(c.cfg.DepositMin, c.cfg.DepositMax), nil)
}

func (c *Client) handleDepositNominal(ctx context.Context, userID, chatID int64, text string) {
	nominal, parseErr := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if parseErr != nil {
		// Session stays live so the user can retry with a number.
		c.messenger.SendMessage(ctx, chatID, depositInvalidText(c.cfg.DepositMin, c.cfg.DepositMax), nil)
		return
	}

	record, err := c.payments.RequestDeposit(ctx, userID, nominal, c.now())
	switch {
	case errors.Is(err, domain.ErrInvalidNominal):
		c.messenger.SendMessage(ctx, chatID, depositInvalidText(c.cfg.DepositMin, c.cfg.DepositMax), nil)
		return
	case err != nil:
		c.logger.WithFields(logging.Fields{
			"event":   "deposit_request_failed",
			"user_id": userID,
		}).WithError(err).Error("failed to store pending payment")
		c.sessions.Clear(userID)
		c.messenger.SendMessage(ctx, chatID, textTryAgain, nil)
		return
	}

	c.sessions.Clear(userID)
	c.messenger.SendPhoto(ctx, chatID, qrURL(record),
		depositInstructionsText(record, c.cfg.AdminUsername, c.payments.TTL()),
		paymentKeyboard())
}

func (c *Client) confirmDeposit(ctx context.Context, callbackID string, userID, chatID int64) {
	conf, err := c.payments.Confirm(ctx, userID, c.now())
	switch {
	case errors.Is(err, domain.ErrNoPendingPayment):
		c.messenger.AnswerCallback(ctx, callbackID, textNoPending, true)
		return
	case err != nil:
		c.logger.WithFields(logging.Fields{
			"event":   "deposit_confirm_failed",
			"user_id": userID,
		}).WithError(err).Error("failed to credit deposit")
		c.messenger.AnswerCallback(ctx, callbackID, textTryAgain, true)
		return
	}

	c.messenger.AnswerCallback(ctx, callbackID, "", false)
	c.messenger.SendMessage(ctx, chatID, depositCreditedText(conf), backKeyboard())
}

func (c *Client) cancelDeposit(ctx context.Context, callbackID string, userID, chatID int64) {
	_, err := c.payments.Cancel(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNoPendingPayment):
		c.messenger.AnswerCallback(ctx, callbackID, textNoPending, true)
		return
	case err != nil:
		c.logger.WithFields(logging.Fields{
			"event":   "deposit_cancel_failed",
			"user_id": userID,
		}).WithError(err).Error("failed to cancel deposit")
		c.messenger.AnswerCallback(ctx, callbackID, textTryAgain, true)
		return
	}

	c.messenger.AnswerCallback(ctx, callbackID, "", false)
	c.messenger.SendMessage(ctx, chatID, textDepositCancelled, backKeyboard())
}

func (c *Client) showHelp(ctx context.Context, chatID int64, messageID int) {
	c.render(ctx, chatID, messageID, helpText(c.cfg.BotName, c.cfg.AdminUsername), backKeyboard())
}

// render edits the originating message in place when possible, otherwise
// sends a fresh one.
func (c *Client) render(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	if messageID != 0 {
		c.messenger.EditMessageText(ctx, chatID, messageID, text, markup)
		return
	}

	c.messenger.SendMessage(ctx, chatID, text, markup)
}
