// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyTelegramToken = "TELEGRAM_TOKEN"
	KeyAdminID       = "ADMIN_ID"
	KeyAdminUsername = "ADMIN_USERNAME"
	KeyBotName       = "BOT_NAME"
	KeyMongoURI      = "MONGO_URI"
	KeyMongoDB       = "MONGO_DB"
	KeyBonusPercent  = "BONUS_PERCENT"
	KeyDepositMin    = "DEPOSIT_MIN"
	KeyDepositMax    = "DEPOSIT_MAX"
	KeySpamLimit     = "SPAM_LIMIT"
	KeySpamWindowMS  = "SPAM_WINDOW_MS"
	KeyPaymentTTLMin = "PAYMENT_TTL_MIN"
	KeyLogChannelID  = "LOG_CHANNEL_ID"
	KeyWebhookURL    = "WEBHOOK_URL"
	KeyAppEnv        = "APP_ENV"
	KeyLogLevel      = "LOG_LEVEL"
	KeyHTTPPort      = "HTTP_PORT"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv        = EnvProduction
	DefaultLogLevel      = "info"
	DefaultHTTPPort      = 8080
	DefaultAdminUsername = "admin"
	DefaultBotName       = "Storefront Bot"
	DefaultBonusPercent  = int64(0)
	DefaultDepositMin    = int64(10000)
	DefaultDepositMax    = int64(1000000)
	DefaultSpamLimit     = 5
	DefaultSpamWindowMS  = 5000
	DefaultPaymentTTLMin = 15
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyTelegramToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather.",
	},
	{
		Key:         KeyAdminID,
		Example:     "123456789",
		Required:    true,
		Description: "Telegram user_id of the single storefront administrator.",
	},
	{
		Key:         KeyAdminUsername,
		Example:     "@shopadmin",
		Default:     DefaultAdminUsername,
		Description: "Display username shown to users in payment instructions.",
	},
	{
		Key:         KeyBotName,
		Example:     DefaultBotName,
		Default:     DefaultBotName,
		Description: "Bot display name used in menu texts.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string.",
	},
	{
		Key:         KeyMongoDB,
		Example:     "store_bot",
		Required:    true,
		Description: "MongoDB database name.",
	},
	{
		Key:         KeyBonusPercent,
		Example:     "10",
		Default:     "0",
		Description: "Deposit bonus percentage credited on confirmation.",
	},
	{
		Key:         KeyDepositMin,
		Example:     "10000",
		Default:     strconv.FormatInt(DefaultDepositMin, 10),
		Description: "Smallest accepted deposit nominal.",
	},
	{
		Key:         KeyDepositMax,
		Example:     "1000000",
		Default:     strconv.FormatInt(DefaultDepositMax, 10),
		Description: "Largest accepted deposit nominal.",
	},
	{
		Key:         KeySpamLimit,
		Example:     "5",
		Default:     strconv.Itoa(DefaultSpamLimit),
		Description: "Messages allowed inside the spam window before auto-ban.",
	},
	{
		Key:         KeySpamWindowMS,
		Example:     "5000",
		Default:     strconv.Itoa(DefaultSpamWindowMS),
		Description: "Sliding spam window in milliseconds.",
	},
	{
		Key:         KeyPaymentTTLMin,
		Example:     "15",
		Default:     strconv.Itoa(DefaultPaymentTTLMin),
		Description: "Minutes before an unconfirmed deposit request expires.",
	},
	{
		Key:         KeyLogChannelID,
		Example:     "-1001234567890",
		Description: "Chat id receiving audit notifications; empty disables them.",
	},
	{
		Key:         KeyWebhookURL,
		Example:     "https://bot.example.com/webhook",
		Description: "Public webhook URL registered with Telegram at startup when set.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "Port serving the webhook, health, and status endpoints.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	TelegramToken string
	AdminID       int64
	AdminUsername string
	BotName       string
	MongoURI      string
	MongoDB       string
	BonusPercent  int64
	DepositMin    int64
	DepositMax    int64
	SpamLimit     int
	SpamWindow    time.Duration
	PaymentTTL    time.Duration
	LogChannelID  int64
	WebhookURL    string
	AppEnv        string
	LogLevel      string
	HTTPPort      int
}

// Load resolves configuration from the environment (with optional dotenv in
// development). Tuning knobs fall back to their defaults when unset or
// non-numeric; identity and connection values are validated strictly.
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:        firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		TelegramToken: strings.TrimSpace(os.Getenv(KeyTelegramToken)),
		AdminUsername: firstNonEmpty(strings.TrimSpace(os.Getenv(KeyAdminUsername)), DefaultAdminUsername),
		BotName:       firstNonEmpty(strings.TrimSpace(os.Getenv(KeyBotName)), DefaultBotName),
		MongoURI:      strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:       strings.TrimSpace(os.Getenv(KeyMongoDB)),
		WebhookURL:    strings.TrimSpace(os.Getenv(KeyWebhookURL)),
		LogLevel:      firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:      DefaultHTTPPort,
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.TelegramToken == "" {
		missing = append(missing, KeyTelegramToken)
	}

	adminRaw := strings.TrimSpace(os.Getenv(KeyAdminID))
	if adminRaw == "" {
		missing = append(missing, KeyAdminID)
	} else {
		adminID, parseErr := strconv.ParseInt(adminRaw, 10, 64)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyAdminID, parseErr)
		}
		cfg.AdminID = adminID
	}

	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}

	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	cfg.BonusPercent = lenientInt64(KeyBonusPercent, DefaultBonusPercent)
	cfg.DepositMin = lenientInt64(KeyDepositMin, DefaultDepositMin)
	cfg.DepositMax = lenientInt64(KeyDepositMax, DefaultDepositMax)
	cfg.SpamLimit = lenientPositiveInt(KeySpamLimit, DefaultSpamLimit)
	cfg.SpamWindow = time.Duration(lenientPositiveInt(KeySpamWindowMS, DefaultSpamWindowMS)) * time.Millisecond
	cfg.PaymentTTL = time.Duration(lenientPositiveInt(KeyPaymentTTLMin, DefaultPaymentTTLMin)) * time.Minute

	if cfg.DepositMax < cfg.DepositMin {
		return Config{}, fmt.Errorf("%s must not be smaller than %s", KeyDepositMax, KeyDepositMin)
	}

	channelRaw := strings.TrimSpace(os.Getenv(KeyLogChannelID))
	if channelRaw != "" {
		channelID, parseErr := strconv.ParseInt(channelRaw, 10, 64)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyLogChannelID, parseErr)
		}
		cfg.LogChannelID = channelID
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// IsAdmin reports whether userID is the configured administrator.
func (c Config) IsAdmin(userID int64) bool {
	return c.AdminID != 0 && userID == c.AdminID
}

// lenientInt64 parses an optional numeric knob, falling back to def when the
// variable is unset, non-numeric, or negative.
func lenientInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return def
	}

	return value
}

func lenientPositiveInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}

	return value
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
