// Package monitor drives the polling cycle: pull balances and quotes from
// both venues, evaluate both arbitrage directions, execute any plan that
// clears the gates, sleep, repeat. Each cycle is isolated: any error is
// caught at the loop boundary and the venue connections are torn down and
// rebuilt on the next cycle.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arbalab/cexdexarb/internal/arbitrage"
	"github.com/arbalab/cexdexarb/internal/domain"
)

// CexVenue is the slice of the CEX client the loop needs.
type CexVenue interface {
	Open(ctx context.Context) error
	Close() error
	FetchBalance(ctx context.Context) (domain.Balance, error)
	FetchOrderBook(ctx context.Context, depth int) (domain.DepthSnapshot, error)
}

// AmmVenue is the slice of the on-chain client the loop needs.
type AmmVenue interface {
	Open(ctx context.Context) error
	Close() error
	GetBalance(ctx context.Context) (domain.Balance, error)
	GetUnitPrices(ctx context.Context) (buy, sell float64, err error)
}

// PlanExecutor runs a gated plan to settlement. Implemented by
// executor.Orchestrator.
type PlanExecutor interface {
	Execute(ctx context.Context, plan domain.TradePlan) (domain.ExecutionRecord, error)
}

// BookSource is an optional push-based replacement for the REST book fetch,
// fed by the WebSocket depth stream. Latest returns false until the first
// snapshot arrives.
type BookSource interface {
	Latest() (domain.DepthSnapshot, bool)
}

// Config configures the loop.
type Config struct {
	Cex       CexVenue
	Amm       AmmVenue
	Evaluator *arbitrage.Evaluator
	// Executor is nil in monitor mode; plans are then logged, not run.
	Executor PlanExecutor
	// Feed, when set, supplies book snapshots instead of REST polling.
	Feed BookSource
	// MaxBookAge is the oldest feed snapshot the cycle accepts before it
	// falls back to REST. Zero selects DefaultMaxBookAge.
	MaxBookAge time.Duration
	// Pause is the inter-cycle sleep.
	Pause time.Duration
	// BookDepth is the number of levels per REST book fetch.
	BookDepth int
	Logger    *slog.Logger
}

// Loop is the single long-running monitoring cycle. Exactly one cycle is in
// flight at a time and there is never more than one in-flight trade plan, so
// the loop needs no locking.
type Loop struct {
	cfg    Config
	logger *slog.Logger
}

// DefaultMaxBookAge bounds how stale a feed snapshot may be before a cycle
// refuses it. A wedged stream that stops delivering without erroring must not
// keep feeding the evaluator yesterday's book.
const DefaultMaxBookAge = 30 * time.Second

// New creates a Loop.
func New(cfg Config) *Loop {
	if cfg.MaxBookAge <= 0 {
		cfg.MaxBookAge = DefaultMaxBookAge
	}
	return &Loop{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "monitor")),
	}
}

// Run cycles until ctx is cancelled. Per-cycle errors never stop the loop;
// the next cycle is the retry mechanism.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("monitor loop started",
		slog.Duration("pause", l.cfg.Pause),
		slog.Bool("executing", l.cfg.Executor != nil),
	)
	defer l.logger.Info("monitor loop stopped")

	for {
		if err := l.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, domain.ErrInsufficientDepth) {
				l.logger.Info("no opportunity this cycle", slog.String("reason", err.Error()))
			} else {
				l.logger.Error("cycle failed", slog.String("error", err.Error()))
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.Pause):
		}
	}
}

// cycle runs one full observation/evaluation/execution pass. Venue
// connections are opened fresh and closed on the way out regardless of
// outcome.
func (l *Loop) cycle(ctx context.Context) error {
	if err := l.cfg.Amm.Open(ctx); err != nil {
		return fmt.Errorf("monitor: open amm: %w", err)
	}
	defer func() {
		if err := l.cfg.Amm.Close(); err != nil {
			l.logger.Warn("amm close failed", slog.String("error", err.Error()))
		}
	}()
	if err := l.cfg.Cex.Open(ctx); err != nil {
		return fmt.Errorf("monitor: open cex: %w", err)
	}
	defer func() {
		if err := l.cfg.Cex.Close(); err != nil {
			l.logger.Warn("cex close failed", slog.String("error", err.Error()))
		}
	}()

	ammBalance, err := l.cfg.Amm.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("monitor: amm balance: %w", err)
	}
	l.logger.Info("amm balance", slog.Float64("base", ammBalance.Base), slog.Float64("quote", ammBalance.Quote))

	cexBalance, err := l.cfg.Cex.FetchBalance(ctx)
	if err != nil {
		return fmt.Errorf("monitor: cex balance: %w", err)
	}
	l.logger.Info("cex balance", slog.Float64("base", cexBalance.Base), slog.Float64("quote", cexBalance.Quote))

	ammBuy, ammSell, err := l.cfg.Amm.GetUnitPrices(ctx)
	if err != nil {
		return fmt.Errorf("monitor: amm prices: %w", err)
	}

	snap, err := l.fetchBook(ctx)
	if err != nil {
		return fmt.Errorf("monitor: order book: %w", err)
	}

	l.logger.Info("quotes",
		slog.Float64("amm_buy", ammBuy),
		slog.Float64("amm_sell", ammSell),
		slog.Float64("cex_bid", snap.BestBid()),
		slog.Float64("cex_ask", snap.BestAsk()),
	)

	plans, err := l.cfg.Evaluator.Evaluate(ctx, arbitrage.CycleInput{
		AmmBuyPrice:  ammBuy,
		AmmSellPrice: ammSell,
		Book:         snap,
	})
	if err != nil {
		return err
	}

	for _, plan := range plans {
		if l.cfg.Executor == nil {
			l.logger.Info("plan gated but execution disabled",
				slog.String("direction", string(plan.Direction)),
				slog.Float64("amount_base", plan.AmountBase),
				slog.Float64("profit_percent", plan.EstimatedProfitPercent),
			)
			continue
		}
		if _, err := l.cfg.Executor.Execute(ctx, plan); err != nil {
			// Partial execution is diagnosed from the execution record; the
			// remaining plans of this cycle are abandoned.
			return err
		}
	}
	return nil
}

// fetchBook returns the freshest depth snapshot: the feed's when one is
// wired, has delivered, and is younger than MaxBookAge, otherwise a REST
// fetch.
func (l *Loop) fetchBook(ctx context.Context) (domain.DepthSnapshot, error) {
	if l.cfg.Feed != nil {
		snap, ok := l.cfg.Feed.Latest()
		switch {
		case !ok:
			l.logger.Debug("feed has no snapshot yet, falling back to rest")
		case time.Since(snap.Timestamp) > l.cfg.MaxBookAge:
			l.logger.Warn("feed snapshot is stale, falling back to rest",
				slog.Time("snapshot_time", snap.Timestamp),
				slog.Duration("max_age", l.cfg.MaxBookAge),
			)
		default:
			return snap, nil
		}
	}
	return l.cfg.Cex.FetchOrderBook(ctx, l.cfg.BookDepth)
}
