// Package telegram hosts the Telegram client, update dispatch, and handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"

	"tg_store_bot/internal/config"
	adminfeat "tg_store_bot/internal/feature/admin"
	"tg_store_bot/internal/feature/broadcast"
	userfeat "tg_store_bot/internal/feature/user"
	"tg_store_bot/internal/logging"
	"tg_store_bot/internal/payment"
	"tg_store_bot/internal/ratelimit"
	"tg_store_bot/internal/session"
	"tg_store_bot/internal/shop"
	"tg_store_bot/internal/store"
)

// botAPI is the bot surface the client relies on, narrowed for test fakes.
type botAPI interface {
	api
	Start(ctx context.Context)
	StartWebhook(ctx context.Context)
	WebhookHandler() http.HandlerFunc
	SetWebhook(ctx context.Context, params *bot.SetWebhookParams) (bool, error)
}

// createBot is overridable for tests.
var createBot = func(token string, options ...bot.Option) (botAPI, error) {
	return bot.New(token, options...)
}

var defaultAllowedUpdates = bot.AllowedUpdates{
	"message",
	"callback_query",
}

// Client wires the Telegram transport to the storefront engines.
type Client struct {
	bot       botAPI
	cfg       config.Config
	logger    *logrus.Entry
	messenger *Messenger
	audit     *AuditNotifier

	registrar   *userfeat.Registrar
	authorizer  *adminfeat.Authorizer
	limiter     *ratelimit.Limiter
	sessions    session.Store
	shop        *shop.Engine
	payments    *payment.Machine
	broadcaster *broadcast.Broadcaster
	stats       *store.StatsProvider

	now func() time.Time
}

// Option customizes client construction, mainly for deterministic tests.
type Option func(*Client)

// WithClock overrides the client's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithSessionStore overrides the session store.
func WithSessionStore(s session.Store) Option {
	return func(c *Client) {
		c.sessions = s
	}
}

// WithLimiter overrides the rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient initializes the Telegram bot and every handler-side dependency
// over the provided table layer.
func NewClient(cfg config.Config, tables *store.Tables, stats *store.StatsProvider, logger *logrus.Entry, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if tables == nil {
		return nil, errors.New("table store is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
		stats:  stats,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.sessions == nil {
		c.sessions = session.NewMemoryStore(session.DefaultTTL, c.now)
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(cfg.SpamLimit, cfg.SpamWindow)
	}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithDefaultHandler(c.handleUpdate),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	c.bot = tgBot
	c.messenger = NewMessenger(tgBot, logger)
	c.audit = NewAuditNotifier(c.messenger, cfg.LogChannelID)
	c.registrar = userfeat.NewRegistrar(tables, logger)
	c.authorizer = adminfeat.NewAuthorizer(cfg.AdminID, logger)
	c.shop = shop.NewEngine(tables, c.audit, logger)
	c.payments = payment.NewMachine(tables, c.audit, c.messenger,
		cfg.DepositMin, cfg.DepositMax, cfg.PaymentTTL, logger)
	c.broadcaster = broadcast.NewBroadcaster(tables, c.messenger, logger)

	return c, nil
}

// WebhookHandler returns the HTTP handler receiving Telegram updates. Mount it
// on the shared mux; malformed bodies are rejected with a non-2xx status by
// the underlying library.
func (c *Client) WebhookHandler() http.HandlerFunc {
	return c.bot.WebhookHandler()
}

// Start runs the update loop until the context is canceled. With a configured
// webhook URL it registers the webhook and consumes updates received over
// HTTP; otherwise it falls back to long polling, which is convenient in
// development.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	if c.cfg.WebhookURL != "" {
		if _, err := c.bot.SetWebhook(ctx, &bot.SetWebhookParams{URL: c.cfg.WebhookURL}); err != nil {
			c.logger.WithField("event", "webhook_register_failed").WithError(err).Error("failed to register webhook")
			return
		}

		c.logger.WithFields(logging.Fields{
			"event": "telegram_listen",
			"mode":  "webhook",
			"url":   c.cfg.WebhookURL,
		}).Info("starting webhook update loop")

		c.bot.StartWebhook(ctx)
	} else {
		c.logger.WithFields(logging.Fields{
			"event": "telegram_listen",
			"mode":  "polling",
		}).Info("starting telegram long polling")

		c.bot.Start(ctx)
	}

	c.logger.WithField("event", "telegram_stopped").Info("telegram update loop stopped")
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram transport error")
	}
}
