package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ADMIND_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ADMIND_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "ADMIND_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "ADMIND_POLYMARKET_WS_HOST")
	setDuration(&cfg.Polymarket.SyncInterval, "ADMIND_POLYMARKET_SYNC_INTERVAL")
	setBool(&cfg.Polymarket.PushEnabled, "ADMIND_POLYMARKET_PUSH_ENABLED")

	// ── Listing ──
	setStr(&cfg.Listing.BaseURL, "ADMIND_LISTING_BASE_URL")
	setStr(&cfg.Listing.KeyID, "ADMIND_LISTING_KEY_ID")
	setStr(&cfg.Listing.Secret, "ADMIND_LISTING_SECRET")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ADMIND_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ADMIND_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ADMIND_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ADMIND_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ADMIND_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ADMIND_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ADMIND_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ADMIND_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ADMIND_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ADMIND_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ADMIND_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ADMIND_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ADMIND_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ADMIND_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ADMIND_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ADMIND_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ADMIND_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ADMIND_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ADMIND_S3_REGION")
	setStr(&cfg.S3.Bucket, "ADMIND_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ADMIND_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ADMIND_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ADMIND_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ADMIND_S3_FORCE_PATH_STYLE")

	// ── Kafka ──
	setBool(&cfg.Kafka.Enabled, "ADMIND_KAFKA_ENABLED")
	setStringSlice(&cfg.Kafka.Brokers, "ADMIND_KAFKA_BROKERS")
	setStr(&cfg.Kafka.Topic, "ADMIND_KAFKA_TOPIC")

	// ── Hedge ──
	setBool(&cfg.Hedge.Enabled, "ADMIND_HEDGE_ENABLED")
	setFloat64(&cfg.Hedge.MinCoverage, "ADMIND_HEDGE_MIN_COVERAGE")
	setDuration(&cfg.Hedge.CheckInterval, "ADMIND_HEDGE_CHECK_INTERVAL")

	// ── Server ──
	setInt(&cfg.Server.Port, "ADMIND_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ADMIND_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ADMIND_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "ADMIND_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "ADMIND_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ADMIND_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ADMIND_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ADMIND_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ADMIND_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ADMIND_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
