package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_store_bot/internal/logging"
)

const backgroundSendTimeout = 10 * time.Second

// api captures the outbound Telegram calls the bot makes, allowing tests to
// run against a recording fake.
type api interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	EditMessageCaption(ctx context.Context, params *bot.EditMessageCaptionParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Messenger wraps the outbound API. Delivery failures are logged and
// swallowed: the user simply does not receive that message, and the action
// that triggered the send is never failed because of it.
type Messenger struct {
	api    api
	logger *logrus.Entry
}

// NewMessenger constructs a Messenger.
func NewMessenger(a api, logger *logrus.Entry) *Messenger {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Messenger{
		api:    a,
		logger: logger,
	}
}

// SendMessage sends text with an optional keyboard, swallowing failures.
func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := m.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		m.logDeliveryFailure("send_message", chatID, err)
	}
}

// Send sends plain text and reports failure; used where the caller counts
// deliveries (broadcast).
func (m *Messenger) Send(ctx context.Context, chatID int64, text string) error {
	_, err := m.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		m.logDeliveryFailure("send_message", chatID, err)
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// SendPhoto sends a photo by URL with a caption and optional keyboard.
func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, markup models.ReplyMarkup) {
	_, err := m.api.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileString{Data: photoURL},
		Caption:     caption,
		ReplyMarkup: markup,
	})
	if err != nil {
		m.logDeliveryFailure("send_photo", chatID, err)
	}
}

// EditMessageText replaces a previously sent message's text and keyboard.
func (m *Messenger) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	_, err := m.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		m.logDeliveryFailure("edit_message_text", chatID, err)
	}
}

// EditMessageCaption replaces a previously sent photo's caption and keyboard.
func (m *Messenger) EditMessageCaption(ctx context.Context, chatID int64, messageID int, caption string, markup models.ReplyMarkup) {
	_, err := m.api.EditMessageCaption(ctx, &bot.EditMessageCaptionParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Caption:     caption,
		ReplyMarkup: markup,
	})
	if err != nil {
		m.logDeliveryFailure("edit_message_caption", chatID, err)
	}
}

// AnswerCallback answers a callback query, optionally as an alert box.
func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) {
	_, err := m.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       showAlert,
	})
	if err != nil {
		m.logDeliveryFailure("answer_callback", 0, err)
	}
}

// NotifyUser delivers a plain message outside an update's request scope, for
// background work such as the expiry sweep.
func (m *Messenger) NotifyUser(userID int64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundSendTimeout)
	defer cancel()

	_ = m.Send(ctx, userID, text)
}

func (m *Messenger) logDeliveryFailure(operation string, chatID int64, err error) {
	fields := logging.Fields{"event": "delivery_failed", "operation": operation}
	if chatID != 0 {
		fields["chat_id"] = chatID
	}
	m.logger.WithFields(fields).WithError(err).Warn("outbound telegram call failed")
}

// AuditNotifier reports audit events to the configured log channel without
// ever blocking the caller. A zero channel id disables notifications.
type AuditNotifier struct {
	messenger *Messenger
	channelID int64
}

// NewAuditNotifier constructs an AuditNotifier.
func NewAuditNotifier(messenger *Messenger, channelID int64) *AuditNotifier {
	return &AuditNotifier{
		messenger: messenger,
		channelID: channelID,
	}
}

// Notify sends text to the audit channel in the background.
func (n *AuditNotifier) Notify(text string) {
	if n == nil || n.messenger == nil || n.channelID == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundSendTimeout)
		defer cancel()

		_ = n.messenger.Send(ctx, n.channelID, text)
	}()
}
