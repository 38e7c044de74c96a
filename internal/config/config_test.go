package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsApply(t *testing.T) {
	path := writeConfig(t, `
[trade]
symbol = "SOL/USDT"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "SOL/USDT", cfg.Trade.Symbol)
	assert.Equal(t, 20.0, cfg.Trade.UsdAmount)
	assert.Equal(t, 0.5, cfg.Trade.PriceDiffPercent)
	assert.Equal(t, 4, cfg.Trade.ImpactBuffer)
	assert.Equal(t, 20, cfg.Trade.BookDepth)
	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, "https://api.huobi.pro", cfg.CEX.RestHost)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.AMM.Endpoint)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "trade"

[trade]
symbol = "RAY/USDT"
usd_amount = 50.0
pause_seconds = 10
confirm_timeout_seconds = 120
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "trade", cfg.Mode)
	assert.Equal(t, 50.0, cfg.Trade.UsdAmount)
	assert.Equal(t, 10*time.Second, cfg.Trade.Pause())
	assert.Equal(t, 2*time.Minute, cfg.Trade.ConfirmTimeout())
	assert.Equal(t, time.Second, cfg.Trade.ConfirmPoll())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[trade]
symbol = "SOL/USDT"

[cex]
api_key = "from-file"
`)
	t.Setenv("ARBBOT_CEX_API_KEY", "from-env")
	t.Setenv("ARBBOT_TRADE_USD_AMOUNT", "75.5")
	t.Setenv("ARBBOT_NOTIFY_EVENTS", "trade_settled, trade_failed")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.CEX.APIKey)
	assert.Equal(t, 75.5, cfg.Trade.UsdAmount)
	assert.Equal(t, []string{"trade_settled", "trade_failed"}, cfg.Notify.Events)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestSymbolSplit(t *testing.T) {
	tr := TradeConfig{Symbol: "SOL/USDT"}
	assert.Equal(t, "SOL", tr.BaseSymbol())
	assert.Equal(t, "USDT", tr.QuoteSymbol())
}

func validConfig() Config {
	cfg := Defaults()
	cfg.Trade.Symbol = "SOL/USDT"
	cfg.AMM.BaseMint = "So11111111111111111111111111111111111111112"
	return cfg
}

func TestValidate_MonitorModeNeedsNoCredentials(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TradeModeRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "trade"
	assert.Error(t, cfg.Validate())

	cfg.CEX.APIKey = "key"
	cfg.CEX.SecretKey = "secret"
	assert.Error(t, cfg.Validate())

	cfg.AMM.WalletSecretKey = "base58secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Rejections(t *testing.T) {
	cases := map[string]func(*Config){
		"bad symbol":         func(c *Config) { c.Trade.Symbol = "SOLUSDT" },
		"zero notional":      func(c *Config) { c.Trade.UsdAmount = 0 },
		"zero threshold":     func(c *Config) { c.Trade.PriceDiffPercent = 0 },
		"negative buffer":    func(c *Config) { c.Trade.ImpactBuffer = -1 },
		"depth below buffer": func(c *Config) { c.Trade.BookDepth = 3 },
		"missing endpoint":   func(c *Config) { c.AMM.Endpoint = "" },
		"no pool or mint":    func(c *Config) { c.AMM.BaseMint = "" },
		"unknown mode":       func(c *Config) { c.Mode = "backtest" },
		"unknown log level":  func(c *Config) { c.LogLevel = "trace" },
		"zero pause":         func(c *Config) { c.Trade.PauseSeconds = 0 },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestPostgresRedisEnabled(t *testing.T) {
	var pg PostgresConfig
	assert.False(t, pg.Enabled())
	pg.Host = "localhost"
	assert.True(t, pg.Enabled())

	var rd RedisConfig
	assert.False(t, rd.Enabled())
	rd.Addr = "localhost:6379"
	assert.True(t, rd.Enabled())
}
