// Package arbitrage decides whether a cross-venue price divergence is worth
// executing. A candidate direction must clear two gates: the raw top-of-book
// divergence, and the depth-adjusted round-trip margin after walking the CEX
// book at the configured notional.
package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/arbalab/cexdexarb/internal/book"
	"github.com/arbalab/cexdexarb/internal/domain"
)

// EvaluatorConfig holds the opportunity parameters.
type EvaluatorConfig struct {
	// NotionalQuote is the quote-asset amount committed per trade.
	NotionalQuote float64
	// ThresholdPercent gates both the raw divergence and the depth-adjusted
	// profit.
	ThresholdPercent float64
	// ImpactBuffer is forwarded to the depth walker. Zero means the
	// reference price is the satisfying level itself; negative falls back
	// to book.DefaultImpactBuffer.
	ImpactBuffer int
}

// CycleInput bundles everything the evaluator needs from one monitoring
// cycle: per-unit AMM prices and the full CEX depth snapshot.
type CycleInput struct {
	AmmBuyPrice  float64
	AmmSellPrice float64
	Book         domain.DepthSnapshot
}

// Evaluator scores cross-venue divergences. It keeps no per-cycle state, so
// evaluating identical inputs twice yields identical plans.
type Evaluator struct {
	cfg    EvaluatorConfig
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(cfg EvaluatorConfig, logger *slog.Logger) *Evaluator {
	if cfg.ImpactBuffer < 0 {
		cfg.ImpactBuffer = book.DefaultImpactBuffer
	}
	return &Evaluator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "evaluator")),
	}
}

// Evaluate checks both directions independently and returns every plan that
// clears both gates; zero, one, or both directions may produce a plan in the
// same cycle. Insufficient book depth is logged and skipped, never returned
// as an error.
func (e *Evaluator) Evaluate(ctx context.Context, in CycleInput) ([]domain.TradePlan, error) {
	var plans []domain.TradePlan

	cexBid := in.Book.BestBid()
	cexAsk := in.Book.BestAsk()
	if cexBid <= 0 || cexAsk <= 0 {
		return nil, fmt.Errorf("arbitrage: empty book for %s: %w", in.Book.Symbol, domain.ErrInsufficientDepth)
	}

	if cexBid > in.AmmBuyPrice {
		opp := e.observe(ctx, domain.BuyOnDex, in.AmmBuyPrice, cexBid)
		plan, err := e.gate(ctx, opp, in)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			plans = append(plans, *plan)
		}
	}
	if in.AmmSellPrice > cexAsk {
		opp := e.observe(ctx, domain.BuyOnCex, in.AmmSellPrice, cexAsk)
		plan, err := e.gate(ctx, opp, in)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			plans = append(plans, *plan)
		}
	}

	return plans, nil
}

// observe builds the raw Opportunity for a direction. The divergence is
// referenced against the price of the venue being bought on: the AMM price
// when buying on the AMM, else the CEX price.
func (e *Evaluator) observe(ctx context.Context, dir domain.Direction, dexPrice, cexPrice float64) domain.Opportunity {
	ref := dexPrice
	if dir == domain.BuyOnCex {
		ref = cexPrice
	}
	opp := domain.Opportunity{
		Direction:   dir,
		DexPrice:    dexPrice,
		CexPrice:    cexPrice,
		DiffPercent: math.Abs(dexPrice-cexPrice) / ref * 100,
	}
	e.logger.InfoContext(ctx, "price divergence",
		slog.String("direction", string(dir)),
		slog.Float64("dex_price", dexPrice),
		slog.Float64("cex_price", cexPrice),
		slog.Float64("diff_percent", opp.DiffPercent),
	)
	return opp
}

// gate applies both profitability gates to an observed opportunity and
// returns a plan only when both pass.
func (e *Evaluator) gate(ctx context.Context, opp domain.Opportunity, in CycleInput) (*domain.TradePlan, error) {
	log := e.logger.With(slog.String("direction", string(opp.Direction)))

	if opp.DiffPercent < e.cfg.ThresholdPercent {
		log.DebugContext(ctx, "below divergence threshold",
			slog.Float64("diff_percent", opp.DiffPercent),
			slog.Float64("threshold", e.cfg.ThresholdPercent),
		)
		return nil, nil
	}

	plan, err := e.depthAdjust(opp, in)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientDepth) {
			log.InfoContext(ctx, "insufficient depth, no opportunity",
				slog.String("error", err.Error()),
			)
			return nil, nil
		}
		return nil, err
	}

	log.InfoContext(ctx, "opportunity evaluated",
		slog.Float64("amount_base", plan.AmountBase),
		slog.Float64("cex_price", plan.CexPrice),
		slog.Float64("execution_price", plan.ExecutionPrice),
		slog.Float64("profit_percent", plan.EstimatedProfitPercent),
	)

	if plan.EstimatedProfitPercent < e.cfg.ThresholdPercent {
		log.InfoContext(ctx, "not profitable after depth adjustment, skipping",
			slog.Float64("profit_percent", plan.EstimatedProfitPercent),
		)
		return nil, nil
	}
	return plan, nil
}

// depthAdjust estimates what executing the configured notional would really
// cost. Only the CEX leg is walked against the book; the AMM side uses its
// unit price as a proxy since the pool has no discrete levels. The AMM leg
// therefore carries no slippage accounting in this model.
func (e *Evaluator) depthAdjust(opp domain.Opportunity, in CycleInput) (*domain.TradePlan, error) {
	var (
		amountBase float64
		proceeds   float64
		est        domain.FillEstimate
		err        error
	)

	switch opp.Direction {
	case domain.BuyOnDex:
		// Buy base on the AMM for the notional, sell it into CEX bids.
		amountBase = round5(e.cfg.NotionalQuote / opp.DexPrice)
		est, err = book.WalkForSell(in.Book.Bids, amountBase, e.cfg.ImpactBuffer)
		if err != nil {
			return nil, err
		}
		proceeds = est.Amount
	case domain.BuyOnCex:
		// Buy base from CEX asks with the notional, sell it on the AMM.
		est, err = book.WalkForBuy(in.Book.Asks, e.cfg.NotionalQuote, e.cfg.ImpactBuffer)
		if err != nil {
			return nil, err
		}
		amountBase = round5(est.Amount)
		proceeds = est.Amount * opp.DexPrice
	default:
		return nil, fmt.Errorf("arbitrage: unknown direction %q", opp.Direction)
	}

	// Profit formula: (1 - input/output) * 100.
	profit := (1 - e.cfg.NotionalQuote/proceeds) * 100

	return &domain.TradePlan{
		Direction:              opp.Direction,
		AmountBase:             amountBase,
		CexPrice:               est.StartPrice,
		ExecutionPrice:         est.ReferencePrice,
		NotionalQuote:          e.cfg.NotionalQuote,
		EstimatedProfitPercent: profit,
	}, nil
}

// round5 rounds to five decimal places, the precision venue order sizes are
// submitted at.
func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
