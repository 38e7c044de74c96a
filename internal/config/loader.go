package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBBOT_* environment variable overrides, and
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

// applyEnvOverrides reads well-known ARBBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Trade ──
	setStr(&cfg.Trade.Symbol, "ARBBOT_TRADE_SYMBOL")
	setFloat64(&cfg.Trade.UsdAmount, "ARBBOT_TRADE_USD_AMOUNT")
	setFloat64(&cfg.Trade.PriceDiffPercent, "ARBBOT_TRADE_PRICE_DIFF_PERCENT")
	setInt(&cfg.Trade.PauseSeconds, "ARBBOT_TRADE_PAUSE_SECONDS")
	setInt(&cfg.Trade.ImpactBuffer, "ARBBOT_TRADE_IMPACT_BUFFER")
	setInt(&cfg.Trade.BookDepth, "ARBBOT_TRADE_BOOK_DEPTH")
	setInt(&cfg.Trade.ConfirmPollSeconds, "ARBBOT_TRADE_CONFIRM_POLL_SECONDS")
	setInt(&cfg.Trade.ConfirmTimeoutSeconds, "ARBBOT_TRADE_CONFIRM_TIMEOUT_SECONDS")

	// ── CEX ──
	setStr(&cfg.CEX.APIKey, "ARBBOT_CEX_API_KEY")
	setStr(&cfg.CEX.SecretKey, "ARBBOT_CEX_SECRET_KEY")
	setStr(&cfg.CEX.RestHost, "ARBBOT_CEX_REST_HOST")
	setStr(&cfg.CEX.WsHost, "ARBBOT_CEX_WS_HOST")
	setBool(&cfg.CEX.UseFeed, "ARBBOT_CEX_USE_FEED")
	setFloat64(&cfg.CEX.RequestsPerSecond, "ARBBOT_CEX_REQUESTS_PER_SECOND")

	// ── AMM ──
	setStr(&cfg.AMM.Endpoint, "ARBBOT_AMM_ENDPOINT")
	setStr(&cfg.AMM.PoolID, "ARBBOT_AMM_POOL_ID")
	setStr(&cfg.AMM.BaseMint, "ARBBOT_AMM_BASE_MINT")
	setStr(&cfg.AMM.WalletSecretKey, "ARBBOT_AMM_WALLET_SECRET_KEY")
	setStr(&cfg.AMM.RegistryURL, "ARBBOT_AMM_REGISTRY_URL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.MaxConns, "ARBBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.MinConns, "ARBBOT_POSTGRES_POOL_MIN_CONNS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBBOT_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.CacheTTLMinutes, "ARBBOT_REDIS_CACHE_TTL_MINUTES")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	if v := os.Getenv("ARBBOT_NOTIFY_EVENTS"); v != "" {
		cfg.Notify.Events = splitCSV(v)
	}

	// ── Top level ──
	setStr(&cfg.Mode, "ARBBOT_MODE")
	setStr(&cfg.LogLevel, "ARBBOT_LOG_LEVEL")
}

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

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
