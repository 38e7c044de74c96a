// Package config defines the top-level configuration for the arbitrage bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBBOT_* environment variables.
type Config struct {
	Trade    TradeConfig    `toml:"trade"`
	CEX      CEXConfig      `toml:"cex"`
	AMM      AMMConfig      `toml:"amm"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// TradeConfig holds the pair and the opportunity/execution parameters.
type TradeConfig struct {
	// Symbol is the trading pair in "BASE/QUOTE" form, e.g. "SOL/USDT".
	Symbol string `toml:"symbol"`
	// UsdAmount is the quote notional committed per trade.
	UsdAmount float64 `toml:"usd_amount"`
	// PriceDiffPercent gates both the raw divergence and the depth-adjusted
	// profit margin.
	PriceDiffPercent float64 `toml:"price_diff_percent"`
	// PauseSeconds is the sleep between monitoring cycles.
	PauseSeconds int `toml:"pause_seconds"`
	// ImpactBuffer is how many book levels past the satisfying level the
	// assumed execution price is taken from.
	ImpactBuffer int `toml:"impact_buffer"`
	// BookDepth is the number of levels requested per book fetch.
	BookDepth int `toml:"book_depth"`
	// ConfirmPollSeconds is the balance-confirmation poll interval.
	ConfirmPollSeconds int `toml:"confirm_poll_seconds"`
	// ConfirmTimeoutSeconds bounds the balance-confirmation wait. Zero keeps
	// the original unbounded behavior.
	ConfirmTimeoutSeconds int `toml:"confirm_timeout_seconds"`
}

// Pause returns the inter-cycle sleep as a duration.
func (t TradeConfig) Pause() time.Duration {
	return time.Duration(t.PauseSeconds) * time.Second
}

// ConfirmPoll returns the balance poll interval as a duration.
func (t TradeConfig) ConfirmPoll() time.Duration {
	return time.Duration(t.ConfirmPollSeconds) * time.Second
}

// ConfirmTimeout returns the balance wait bound; zero means no timeout.
func (t TradeConfig) ConfirmTimeout() time.Duration {
	return time.Duration(t.ConfirmTimeoutSeconds) * time.Second
}

// BaseSymbol returns the base asset of the configured pair.
func (t TradeConfig) BaseSymbol() string {
	base, _, _ := strings.Cut(t.Symbol, "/")
	return base
}

// QuoteSymbol returns the quote asset of the configured pair.
func (t TradeConfig) QuoteSymbol() string {
	_, quote, _ := strings.Cut(t.Symbol, "/")
	return quote
}

// CEXConfig holds the exchange API endpoints and credentials.
type CEXConfig struct {
	APIKey    string `toml:"api_key"`
	SecretKey string `toml:"secret_key"`
	RestHost  string `toml:"rest_host"`
	WsHost    string `toml:"ws_host"`
	// UseFeed switches quote sourcing to the WebSocket depth feed when true.
	UseFeed bool `toml:"use_feed"`
	// RequestsPerSecond caps signed REST calls. Zero disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// AMMConfig holds the on-chain venue parameters.
type AMMConfig struct {
	// Endpoint is the Solana JSON-RPC endpoint.
	Endpoint string `toml:"endpoint"`
	// PoolID is the Raydium AMM pool account. When empty it is resolved from
	// BaseMint through the pool registry at startup.
	PoolID string `toml:"pool_id"`
	// BaseMint is the base token mint address.
	BaseMint string `toml:"base_mint"`
	// WalletSecretKey is the base58-encoded wallet secret key.
	WalletSecretKey string `toml:"wallet_secret_key"`
	// RegistryURL is the pool registry document location.
	RegistryURL string `toml:"registry_url"`
}

// PostgresConfig holds the optional execution-journal database. The journal
// is disabled when DSN and Host are both empty.
type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"ssl_mode"`
	MaxConns int    `toml:"pool_max_conns"`
	MinConns int    `toml:"pool_min_conns"`
}

// Enabled reports whether a journal connection should be opened.
func (p PostgresConfig) Enabled() bool {
	return p.DSN != "" || p.Host != ""
}

// RedisConfig holds the optional registry-cache connection. Caching is
// disabled when Addr is empty.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	// CacheTTLMinutes bounds the registry document cache entry.
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`
}

// Enabled reports whether the cache should be wired.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// NotifyConfig holds the optional alert channels.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with sane defaults for everything that
// has one. Credentials and pair selection have no defaults and must come from
// the file or environment.
func Defaults() Config {
	return Config{
		Trade: TradeConfig{
			UsdAmount:          20,
			PriceDiffPercent:   0.5,
			PauseSeconds:       5,
			ImpactBuffer:       4,
			BookDepth:          20,
			ConfirmPollSeconds: 1,
		},
		CEX: CEXConfig{
			RestHost:          "https://api.huobi.pro",
			WsHost:            "wss://api.huobi.pro/ws",
			RequestsPerSecond: 5,
		},
		AMM: AMMConfig{
			Endpoint:    "https://api.mainnet-beta.solana.com",
			RegistryURL: "https://api.raydium.io/v2/sdk/liquidity/mainnet.json",
		},
		Postgres: PostgresConfig{
			SSLMode:  "disable",
			MaxConns: 4,
		},
		Redis: RedisConfig{
			CacheTTLMinutes: 60,
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// Validate checks the configuration for the selected mode and returns a
// descriptive error for the first problem found.
func (c *Config) Validate() error {
	base, quote, ok := strings.Cut(c.Trade.Symbol, "/")
	if !ok || base == "" || quote == "" {
		return fmt.Errorf("config: trade.symbol must be BASE/QUOTE, got %q", c.Trade.Symbol)
	}
	if c.Trade.UsdAmount <= 0 {
		return fmt.Errorf("config: trade.usd_amount must be positive, got %v", c.Trade.UsdAmount)
	}
	if c.Trade.PriceDiffPercent <= 0 {
		return fmt.Errorf("config: trade.price_diff_percent must be positive, got %v", c.Trade.PriceDiffPercent)
	}
	if c.Trade.PauseSeconds <= 0 {
		return fmt.Errorf("config: trade.pause_seconds must be positive, got %d", c.Trade.PauseSeconds)
	}
	if c.Trade.ImpactBuffer < 0 {
		return fmt.Errorf("config: trade.impact_buffer must not be negative, got %d", c.Trade.ImpactBuffer)
	}
	if c.Trade.BookDepth < c.Trade.ImpactBuffer+1 {
		return fmt.Errorf("config: trade.book_depth %d cannot satisfy impact_buffer %d", c.Trade.BookDepth, c.Trade.ImpactBuffer)
	}
	if c.AMM.Endpoint == "" {
		return fmt.Errorf("config: amm.endpoint is required")
	}
	if c.AMM.PoolID == "" && c.AMM.BaseMint == "" {
		return fmt.Errorf("config: one of amm.pool_id or amm.base_mint is required")
	}

	mode := strings.ToLower(c.Mode)
	switch mode {
	case "monitor":
		// Observation only; no credentials needed.
	case "trade":
		if c.CEX.APIKey == "" || c.CEX.SecretKey == "" {
			return fmt.Errorf("config: cex.api_key and cex.secret_key are required in trade mode")
		}
		if c.AMM.WalletSecretKey == "" {
			return fmt.Errorf("config: amm.wallet_secret_key is required in trade mode")
		}
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unsupported log_level %q", c.LogLevel)
	}

	return nil
}
