package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arbalab/cexdexarb/internal/arbitrage"
	"github.com/arbalab/cexdexarb/internal/cache/redis"
	"github.com/arbalab/cexdexarb/internal/config"
	"github.com/arbalab/cexdexarb/internal/domain"
	"github.com/arbalab/cexdexarb/internal/executor"
	"github.com/arbalab/cexdexarb/internal/feed"
	"github.com/arbalab/cexdexarb/internal/monitor"
	"github.com/arbalab/cexdexarb/internal/notify"
	"github.com/arbalab/cexdexarb/internal/platform/huobi"
	"github.com/arbalab/cexdexarb/internal/platform/raydium"
	"github.com/arbalab/cexdexarb/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Cex      *huobi.Client
	Amm      *raydium.Client
	Journal  domain.ExecutionJournal // nil when postgres is not configured
	Notifier *notify.Notifier        // nil when no channel is configured
	Feed     *feed.HuobiDepthFeed    // nil unless the depth stream is enabled
	Loop     *monitor.Loop
}

// Wire constructs all concrete dependencies from the configuration. The pool
// account set is resolved from the registry up front so the hot loop never
// touches it.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{}

	// Registry document cache, only when redis is configured.
	var docCache raydium.DocumentCache
	if cfg.Redis.Enabled() {
		rdb, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = rdb.Close() })
		docCache = redis.NewDocumentCache(rdb, time.Duration(cfg.Redis.CacheTTLMinutes)*time.Minute)
	}

	// Resolve the pool account set once at startup.
	registry := raydium.NewRegistry(cfg.AMM.RegistryURL, docCache, logger)
	poolID := cfg.AMM.PoolID
	if poolID == "" {
		id, err := registry.ResolvePoolID(ctx, cfg.AMM.BaseMint)
		if err != nil {
			return fail(fmt.Errorf("wire: resolve pool: %w", err))
		}
		poolID = id
		logger.InfoContext(ctx, "pool resolved from registry",
			slog.String("base_mint", cfg.AMM.BaseMint),
			slog.String("pool_id", poolID),
		)
	}
	keys, err := registry.FetchPoolKeys(ctx, poolID)
	if err != nil {
		return fail(fmt.Errorf("wire: fetch pool keys: %w", err))
	}

	deps.Amm, err = raydium.NewClient(raydium.ClientConfig{
		Endpoint:        cfg.AMM.Endpoint,
		Keys:            keys,
		WalletSecretKey: cfg.AMM.WalletSecretKey,
		Logger:          logger,
	})
	if err != nil {
		return fail(fmt.Errorf("wire: amm client: %w", err))
	}

	deps.Cex, err = huobi.NewClient(huobi.ClientConfig{
		RestHost:          cfg.CEX.RestHost,
		APIKey:            cfg.CEX.APIKey,
		SecretKey:         cfg.CEX.SecretKey,
		Symbol:            cfg.Trade.Symbol,
		RequestsPerSecond: cfg.CEX.RequestsPerSecond,
	})
	if err != nil {
		return fail(fmt.Errorf("wire: cex client: %w", err))
	}

	// Execution journal, only when postgres is configured.
	if cfg.Postgres.Enabled() {
		pg, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pg.Close)
		if err := pg.RunMigrations(ctx); err != nil {
			return fail(fmt.Errorf("wire: postgres migrations: %w", err))
		}
		deps.Journal = postgres.NewJournalStore(pg.Pool())
	}

	// Alert channels.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	evaluator := arbitrage.NewEvaluator(arbitrage.EvaluatorConfig{
		NotionalQuote:    cfg.Trade.UsdAmount,
		ThresholdPercent: cfg.Trade.PriceDiffPercent,
		ImpactBuffer:     cfg.Trade.ImpactBuffer,
	}, logger)

	// The executor exists only in trade mode; without it gated plans are
	// logged and dropped.
	var planExecutor monitor.PlanExecutor
	if strings.ToLower(cfg.Mode) == "trade" {
		orchCfg := executor.Config{
			Cex:          deps.Cex,
			Amm:          deps.Amm,
			Journal:      deps.Journal,
			PollInterval: cfg.Trade.ConfirmPoll(),
			WaitTimeout:  cfg.Trade.ConfirmTimeout(),
			Logger:       logger,
		}
		if deps.Notifier != nil {
			orchCfg.Alerter = deps.Notifier
		}
		planExecutor = executor.New(orchCfg)
	}

	if cfg.CEX.UseFeed {
		wsSymbol := strings.ToLower(cfg.Trade.BaseSymbol() + cfg.Trade.QuoteSymbol())
		deps.Feed = feed.NewHuobiDepthFeed(cfg.CEX.WsHost, wsSymbol, logger)
	}

	loopCfg := monitor.Config{
		Cex:       deps.Cex,
		Amm:       deps.Amm,
		Evaluator: evaluator,
		Executor:  planExecutor,
		Pause:     cfg.Trade.Pause(),
		BookDepth: cfg.Trade.BookDepth,
		Logger:    logger,
	}
	if deps.Feed != nil {
		loopCfg.Feed = deps.Feed
	}
	deps.Loop = monitor.New(loopCfg)

	return deps, cleanup, nil
}
