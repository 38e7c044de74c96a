// Package executor runs a gated trade plan as a two-leg saga: buy on the
// cheaper venue, sell on the other, then wait for the on-chain balance to
// confirm settlement. Legs are strictly sequential and never rolled back; a
// failed second leg leaves a partially executed plan that requires manual
// reconciliation.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arbalab/cexdexarb/internal/domain"
)

// CexTrader is the slice of the CEX client the orchestrator needs.
type CexTrader interface {
	FetchBalance(ctx context.Context) (domain.Balance, error)
	LimitBuy(ctx context.Context, amount, price float64) (string, error)
	LimitSell(ctx context.Context, amount, price float64) (string, error)
}

// AmmTrader is the slice of the on-chain client the orchestrator needs. Buy
// takes a quote notional, Sell takes a base amount; both return the
// transaction signature.
type AmmTrader interface {
	GetBalance(ctx context.Context) (domain.Balance, error)
	Buy(ctx context.Context, notionalQuote float64) (string, error)
	Sell(ctx context.Context, amountBase float64) (string, error)
}

// Alerter receives trade and failure notifications. Implemented by
// notify.Notifier; nil disables alerting.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config configures the orchestrator.
type Config struct {
	Cex CexTrader
	Amm AmmTrader
	// Journal persists saga transitions; nil disables journaling.
	Journal domain.ExecutionJournal
	// Alerter is notified on settlement and on leg failure; nil disables it.
	Alerter Alerter
	// PollInterval is the balance-confirmation poll cadence.
	PollInterval time.Duration
	// WaitTimeout bounds the balance-confirmation wait. Zero preserves the
	// original unbounded behavior; the wait then ends only with the balance
	// change or context cancellation.
	WaitTimeout time.Duration
	Logger      *slog.Logger
}

// Orchestrator executes trade plans one at a time.
type Orchestrator struct {
	cex          CexTrader
	amm          AmmTrader
	journal      domain.ExecutionJournal
	alerter      Alerter
	pollInterval time.Duration
	waitTimeout  time.Duration
	logger       *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Orchestrator{
		cex:          cfg.Cex,
		amm:          cfg.Amm,
		journal:      cfg.Journal,
		alerter:      cfg.Alerter,
		pollInterval: cfg.PollInterval,
		waitTimeout:  cfg.WaitTimeout,
		logger:       cfg.Logger.With(slog.String("component", "orchestrator")),
	}
}

// Execute runs the plan through the full saga and returns the completed
// record. The returned error wraps domain.ErrLegFailed when a submission
// failed; by then the opposite leg may already be live, which the record's
// Legs slice makes visible.
func (o *Orchestrator) Execute(ctx context.Context, plan domain.TradePlan) (domain.ExecutionRecord, error) {
	rec := domain.ExecutionRecord{
		ID:        uuid.New().String(),
		Direction: plan.Direction,
		State:     domain.ExecIdle,
		Plan:      plan,
		StartedAt: time.Now().UTC(),
	}
	log := o.logger.With(
		slog.String("execution_id", rec.ID),
		slog.String("direction", string(plan.Direction)),
	)
	if o.journal != nil {
		if err := o.journal.Create(ctx, rec); err != nil {
			log.Warn("journal create failed", slog.String("error", err.Error()))
		}
	}

	// Pre-trade snapshots; realized fills are reported as deltas against
	// these after settlement.
	ammBefore, err := o.amm.GetBalance(ctx)
	if err != nil {
		return o.fail(ctx, rec, fmt.Errorf("executor: amm balance before trade: %w", err))
	}
	cexBefore, err := o.cex.FetchBalance(ctx)
	if err != nil {
		return o.fail(ctx, rec, fmt.Errorf("executor: cex balance before trade: %w", err))
	}

	log.Info("executing plan",
		slog.Float64("amount_base", plan.AmountBase),
		slog.Float64("notional_quote", plan.NotionalQuote),
		slog.Float64("execution_price", plan.ExecutionPrice),
		slog.Float64("estimated_profit_percent", plan.EstimatedProfitPercent),
	)

	// The sell leg goes out as soon as the buy submission returns, without
	// waiting for its confirmation. The market can move between legs; that
	// leg risk is accepted in exchange for not parking capital.
	if err := o.submitLegs(ctx, &rec, plan, log); err != nil {
		return o.fail(ctx, rec, err)
	}

	o.transition(ctx, &rec, domain.ExecSellLegConfirming, log)
	ammAfter, err := o.waitForBalanceChange(ctx, ammBefore)
	if err != nil {
		return o.fail(ctx, rec, fmt.Errorf("executor: balance confirmation: %w", err))
	}
	cexAfter, err := o.cex.FetchBalance(ctx)
	if err != nil {
		return o.fail(ctx, rec, fmt.Errorf("executor: cex balance after trade: %w", err))
	}

	o.report(plan.Direction, ammBefore, ammAfter, cexBefore, cexAfter, log)

	now := time.Now().UTC()
	rec.CompletedAt = &now
	o.transition(ctx, &rec, domain.ExecSettled, log)

	if o.alerter != nil {
		msg := fmt.Sprintf("%s settled: %v base @ %v, est. profit %.3f%%",
			plan.Direction, plan.AmountBase, plan.ExecutionPrice, plan.EstimatedProfitPercent)
		if err := o.alerter.Notify(ctx, "trade_settled", "Arbitrage settled", msg); err != nil {
			log.Warn("settlement alert failed", slog.String("error", err.Error()))
		}
	}
	return rec, nil
}

// submitLegs issues the buy and then the sell leg for the plan's direction.
func (o *Orchestrator) submitLegs(ctx context.Context, rec *domain.ExecutionRecord, plan domain.TradePlan, log *slog.Logger) error {
	switch plan.Direction {
	case domain.BuyOnDex:
		sig, err := o.amm.Buy(ctx, plan.NotionalQuote)
		if err != nil {
			return fmt.Errorf("executor: amm buy leg (%v quote): %w: %v", plan.NotionalQuote, domain.ErrLegFailed, err)
		}
		o.recordLeg(ctx, rec, domain.LegVenueAMM, "buy", plan.NotionalQuote, 0, sig, log)
		o.transition(ctx, rec, domain.ExecBuyLegConfirming, log)

		id, err := o.cex.LimitSell(ctx, plan.AmountBase, plan.ExecutionPrice)
		if err != nil {
			return fmt.Errorf("executor: cex sell leg (%v @ %v) after amm buy %s: %w: %v",
				plan.AmountBase, plan.ExecutionPrice, sig, domain.ErrLegFailed, err)
		}
		o.recordLeg(ctx, rec, domain.LegVenueCEX, "sell", plan.AmountBase, plan.ExecutionPrice, id, log)

	case domain.BuyOnCex:
		id, err := o.cex.LimitBuy(ctx, plan.AmountBase, plan.ExecutionPrice)
		if err != nil {
			return fmt.Errorf("executor: cex buy leg (%v @ %v): %w: %v",
				plan.AmountBase, plan.ExecutionPrice, domain.ErrLegFailed, err)
		}
		o.recordLeg(ctx, rec, domain.LegVenueCEX, "buy", plan.AmountBase, plan.ExecutionPrice, id, log)
		o.transition(ctx, rec, domain.ExecBuyLegConfirming, log)

		sig, err := o.amm.Sell(ctx, plan.AmountBase)
		if err != nil {
			return fmt.Errorf("executor: amm sell leg (%v base) after cex buy %s: %w: %v",
				plan.AmountBase, id, domain.ErrLegFailed, err)
		}
		o.recordLeg(ctx, rec, domain.LegVenueAMM, "sell", plan.AmountBase, 0, sig, log)

	default:
		return fmt.Errorf("executor: unknown direction %q", plan.Direction)
	}
	return nil
}

// recordLeg appends a submitted leg, advances the saga state, and journals.
func (o *Orchestrator) recordLeg(ctx context.Context, rec *domain.ExecutionRecord, venue domain.LegVenue, side string, amount, price float64, receipt string, log *slog.Logger) {
	rec.Legs = append(rec.Legs, domain.ExecutionLeg{
		Venue:       venue,
		Side:        side,
		Amount:      amount,
		Price:       price,
		Receipt:     receipt,
		SubmittedAt: time.Now().UTC(),
	})
	state := domain.ExecBuyLegSubmitted
	if len(rec.Legs) > 1 {
		state = domain.ExecSellLegSubmitted
	}
	log.Info("leg submitted",
		slog.String("venue", string(venue)),
		slog.String("side", side),
		slog.Float64("amount", amount),
		slog.Float64("price", price),
		slog.String("receipt", receipt),
	)
	o.transition(ctx, rec, state, log)
}

// transition advances the saga state and journals it. Journal failures are
// logged, not fatal: the trade is already in flight.
func (o *Orchestrator) transition(ctx context.Context, rec *domain.ExecutionRecord, state domain.ExecutionState, log *slog.Logger) {
	rec.State = state
	log.Debug("saga transition", slog.String("state", string(state)))
	if o.journal == nil {
		return
	}
	if err := o.journal.Update(ctx, *rec); err != nil {
		log.Warn("journal update failed",
			slog.String("state", string(state)),
			slog.String("error", err.Error()),
		)
	}
}

// fail marks the record failed, journals it, alerts, and returns the error.
func (o *Orchestrator) fail(ctx context.Context, rec domain.ExecutionRecord, err error) (domain.ExecutionRecord, error) {
	rec.State = domain.ExecFailed
	rec.Error = err.Error()
	now := time.Now().UTC()
	rec.CompletedAt = &now
	if o.journal != nil {
		if jerr := o.journal.Update(ctx, rec); jerr != nil {
			o.logger.Warn("journal update failed", slog.String("error", jerr.Error()))
		}
	}
	o.logger.Error("execution failed",
		slog.String("execution_id", rec.ID),
		slog.String("direction", string(rec.Direction)),
		slog.Int("legs_submitted", len(rec.Legs)),
		slog.String("error", err.Error()),
	)
	if o.alerter != nil {
		msg := fmt.Sprintf("%s failed after %d leg(s): %v", rec.Direction, len(rec.Legs), err)
		if aerr := o.alerter.Notify(ctx, "trade_failed", "Arbitrage leg failure", msg); aerr != nil {
			o.logger.Warn("failure alert failed", slog.String("error", aerr.Error()))
		}
	}
	return rec, err
}

// waitForBalanceChange polls the on-chain balance until it differs from the
// pre-trade snapshot. With WaitTimeout zero the wait is unbounded, matching
// the original semantics; it still honors ctx cancellation.
func (o *Orchestrator) waitForBalanceChange(ctx context.Context, before domain.Balance) (domain.Balance, error) {
	if o.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.waitTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		after, err := o.amm.GetBalance(ctx)
		if err != nil {
			return domain.Balance{}, err
		}
		if !after.Equal(before) {
			return after, nil
		}
		select {
		case <-ctx.Done():
			return domain.Balance{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
