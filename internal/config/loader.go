package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads the TOML file at path over the built-in defaults, loads a .env
// file when present, and applies OFFERBOT_* environment overrides. A missing
// file at path is not an error; the defaults and environment are used. The
// result is not validated; callers should invoke Validate.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides overwrites Config fields from OFFERBOT_* variables that
// are set and non-empty, so secrets can be injected at deploy time.
func applyEnvOverrides(cfg *Config) {
	for _, m := range []struct {
		prefix string
		cfg    *MarketplaceConfig
	}{
		{"OFFERBOT_NOONES_", &cfg.Noones},
		{"OFFERBOT_PAXFUL_", &cfg.Paxful},
	} {
		setBool(&m.cfg.Enabled, m.prefix+"ENABLED")
		setStr(&m.cfg.AuthURL, m.prefix+"AUTH_URL")
		setStr(&m.cfg.APIURL, m.prefix+"API_URL")
		setStr(&m.cfg.ClientID, m.prefix+"CLIENT_ID")
		setStr(&m.cfg.ClientSecret, m.prefix+"CLIENT_SECRET")
	}

	setStr(&cfg.CoinMarketCap.BaseURL, "OFFERBOT_COINMARKETCAP_BASE_URL")
	setStr(&cfg.CoinMarketCap.APIKey, "OFFERBOT_COINMARKETCAP_API_KEY")
	setDuration(&cfg.CoinMarketCap.PriceTTL, "OFFERBOT_COINMARKETCAP_PRICE_TTL")

	setStr(&cfg.Postgres.DSN, "OFFERBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL")
	setStr(&cfg.Postgres.Host, "OFFERBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "OFFERBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "OFFERBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "OFFERBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "OFFERBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "OFFERBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "OFFERBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "OFFERBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "OFFERBOT_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "OFFERBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "OFFERBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "OFFERBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "OFFERBOT_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "OFFERBOT_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "OFFERBOT_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.TokenTTL, "OFFERBOT_REDIS_TOKEN_TTL")
	setDuration(&cfg.Redis.ConfigTTL, "OFFERBOT_REDIS_CONFIG_TTL")

	setDuration(&cfg.Repricer.TokenSafetyWindow, "OFFERBOT_REPRICER_TOKEN_SAFETY_WINDOW")
	setBool(&cfg.Repricer.SearchAllBankPaymentMethods, "OFFERBOT_REPRICER_SEARCH_ALL_BANK_PAYMENT_METHODS")
	setStr(&cfg.Repricer.UserCountry, "OFFERBOT_REPRICER_USER_COUNTRY")
	setInt(&cfg.Repricer.PageSize, "OFFERBOT_REPRICER_PAGE_SIZE")

	setStr(&cfg.Scheduler.ImproveCron, "OFFERBOT_SCHEDULER_IMPROVE_CRON")
	setStr(&cfg.Scheduler.MaintainTokenCron, "OFFERBOT_SCHEDULER_MAINTAIN_TOKEN_CRON")
	setStr(&cfg.Scheduler.ArchiveCron, "OFFERBOT_SCHEDULER_ARCHIVE_CRON")
	setBool(&cfg.Scheduler.RunOnStart, "OFFERBOT_SCHEDULER_RUN_ON_START")

	setInt(&cfg.Server.Port, "OFFERBOT_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "OFFERBOT_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "OFFERBOT_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "OFFERBOT_SERVER_RATE_LIMIT")

	setStr(&cfg.Notify.TelegramToken, "OFFERBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "OFFERBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "OFFERBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.Email.Host, "OFFERBOT_NOTIFY_EMAIL_HOST")
	setInt(&cfg.Notify.Email.Port, "OFFERBOT_NOTIFY_EMAIL_PORT")
	setStr(&cfg.Notify.Email.Username, "OFFERBOT_NOTIFY_EMAIL_USERNAME")
	setStr(&cfg.Notify.Email.Password, "OFFERBOT_NOTIFY_EMAIL_PASSWORD")
	setStr(&cfg.Notify.Email.From, "OFFERBOT_NOTIFY_EMAIL_FROM")
	setStringSlice(&cfg.Notify.Email.To, "OFFERBOT_NOTIFY_EMAIL_TO")
	setStringSlice(&cfg.Notify.Events, "OFFERBOT_NOTIFY_EVENTS")

	setStr(&cfg.S3.Endpoint, "OFFERBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "OFFERBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "OFFERBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "OFFERBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "OFFERBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "OFFERBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "OFFERBOT_S3_FORCE_PATH_STYLE")

	setBool(&cfg.Archive.Enabled, "OFFERBOT_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "OFFERBOT_ARCHIVE_RETENTION_DAYS")

	setStr(&cfg.Mode, "OFFERBOT_MODE")
	setStr(&cfg.LogLevel, "OFFERBOT_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the variable is
// present, non-empty and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var cleaned []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
