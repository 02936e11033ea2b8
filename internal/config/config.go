// Package config defines the offerbot configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by OFFERBOT_* environment variables.
type Config struct {
	Noones        MarketplaceConfig   `toml:"noones"`
	Paxful        MarketplaceConfig   `toml:"paxful"`
	CoinMarketCap CoinMarketCapConfig `toml:"coinmarketcap"`
	Postgres      PostgresConfig      `toml:"postgres"`
	Redis         RedisConfig         `toml:"redis"`
	Repricer      RepricerConfig      `toml:"repricer"`
	Scheduler     SchedulerConfig     `toml:"scheduler"`
	Server        ServerConfig        `toml:"server"`
	Notify        NotifyConfig        `toml:"notify"`
	S3            S3Config            `toml:"s3"`
	Archive       ArchiveConfig       `toml:"archive"`
	Mode          string              `toml:"mode"`
	LogLevel      string              `toml:"log_level"`
}

// MarketplaceConfig holds the gateway endpoints and OAuth client credentials
// of one P2P marketplace.
type MarketplaceConfig struct {
	Enabled      bool   `toml:"enabled"`
	AuthURL      string `toml:"auth_url"`
	APIURL       string `toml:"api_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// CoinMarketCapConfig holds the market price API settings.
type CoinMarketCapConfig struct {
	BaseURL  string   `toml:"base_url"`
	APIKey   string   `toml:"api_key"`
	PriceTTL duration `toml:"price_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters and cache lifetimes.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	KeyPrefix  string   `toml:"key_prefix"`
	TokenTTL   duration `toml:"token_ttl"`
	ConfigTTL  duration `toml:"config_ttl"`
}

// RepricerConfig holds engine-wide repricing settings.
type RepricerConfig struct {
	TokenSafetyWindow           duration `toml:"token_safety_window"`
	TokenLockTTL                duration `toml:"token_lock_ttl"`
	SearchAllBankPaymentMethods bool     `toml:"search_all_bank_payment_methods"`
	UserCountry                 string   `toml:"user_country"`
	PageSize                    int      `toml:"page_size"`
}

// SchedulerConfig holds the cron specs of the periodic jobs.
type SchedulerConfig struct {
	ImproveCron       string `toml:"improve_cron"`
	MaintainTokenCron string `toml:"maintain_token_cron"`
	ArchiveCron       string `toml:"archive_cron"`
	RunOnStart        bool   `toml:"run_on_start"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls cold-storage export of reprice history.
type ArchiveConfig struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
	BatchSize     int  `toml:"batch_size"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "5m" or "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   int      `toml:"rate_limit"` // requests per client per minute, 0 disables
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string      `toml:"telegram_token"`
	TelegramChatID    string      `toml:"telegram_chat_id"`
	DiscordWebhookURL string      `toml:"discord_webhook_url"`
	Email             EmailConfig `toml:"email"`
	Events            []string    `toml:"events"`
}

// EmailConfig holds SMTP settings for email alerts.
type EmailConfig struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
}

// Defaults returns a Config populated with the values of config.example.toml.
func Defaults() Config {
	return Config{
		Noones: MarketplaceConfig{
			Enabled: true,
			AuthURL: "https://auth.noones.com",
			APIURL:  "https://api.noones.com",
		},
		Paxful: MarketplaceConfig{
			AuthURL: "https://accounts.paxful.com",
			APIURL:  "https://api.paxful.com",
		},
		CoinMarketCap: CoinMarketCapConfig{
			BaseURL:  "https://pro-api.coinmarketcap.com",
			PriceTTL: duration{time.Minute},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "offerbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			KeyPrefix:  "offerbot",
			TokenTTL:   duration{time.Hour},
			ConfigTTL:  duration{time.Hour},
		},
		Repricer: RepricerConfig{
			TokenSafetyWindow: duration{10 * time.Minute},
			TokenLockTTL:      duration{time.Minute},
			UserCountry:       "US",
			PageSize:          300,
		},
		Scheduler: SchedulerConfig{
			ImproveCron:       "*/5 * * * *",
			MaintainTokenCron: "*/10 * * * *",
			ArchiveCron:       "0 3 * * *",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Notify: NotifyConfig{
			Email: EmailConfig{Port: 587},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "offerbot-archive",
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			RetentionDays: 90,
			BatchSize:     1000,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"improve":        true,
	"maintain-token": true,
	"scheduler":      true,
	"server":         true,
	"full":           true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: improve, maintain-token, scheduler, server, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if !c.Noones.Enabled && !c.Paxful.Enabled {
		errs = append(errs, "at least one of noones or paxful must be enabled")
	}
	for _, m := range []struct {
		name string
		cfg  MarketplaceConfig
	}{{"noones", c.Noones}, {"paxful", c.Paxful}} {
		if !m.cfg.Enabled {
			continue
		}
		if m.cfg.AuthURL == "" || m.cfg.APIURL == "" {
			errs = append(errs, m.name+": auth_url and api_url must not be empty")
		}
		if m.cfg.ClientID == "" || m.cfg.ClientSecret == "" {
			errs = append(errs, m.name+": client_id and client_secret are required")
		}
	}

	if c.CoinMarketCap.APIKey == "" {
		errs = append(errs, "coinmarketcap: api_key is required")
	}
	if c.CoinMarketCap.PriceTTL.Duration <= 0 {
		errs = append(errs, "coinmarketcap: price_ttl must be positive")
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.Redis.TokenTTL.Duration <= 0 || c.Redis.ConfigTTL.Duration <= 0 {
		errs = append(errs, "redis: token_ttl and config_ttl must be positive")
	}

	if c.Repricer.TokenSafetyWindow.Duration < 0 {
		errs = append(errs, "repricer: token_safety_window must not be negative")
	}
	if c.Repricer.PageSize < 1 {
		errs = append(errs, "repricer: page_size must be >= 1")
	}
	if c.Repricer.UserCountry == "" {
		errs = append(errs, "repricer: user_country must not be empty")
	}

	if c.Scheduler.ImproveCron == "" || c.Scheduler.MaintainTokenCron == "" {
		errs = append(errs, "scheduler: improve_cron and maintain_token_cron must not be empty")
	}

	if c.Archive.Enabled {
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			errs = append(errs, "s3: endpoint and bucket are required when archive is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.Scheduler.ArchiveCron == "" {
			errs = append(errs, "scheduler: archive_cron must not be empty when archive is enabled")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must not be negative")
	}

	if e := c.Notify.Email; e.Host != "" && (e.From == "" || len(e.To) == 0) {
		errs = append(errs, "notify.email: from and to are required when host is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
