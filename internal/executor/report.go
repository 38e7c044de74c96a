package executor

import (
	"log/slog"

	"github.com/arbalab/cexdexarb/internal/domain"
)

// report logs realized fills for both venues as before/after balance deltas.
// The direction decides which venue bought and which sold.
func (o *Orchestrator) report(dir domain.Direction, ammBefore, ammAfter, cexBefore, cexAfter domain.Balance, log *slog.Logger) {
	log.Info("amm balance", slog.Float64("base", ammAfter.Base), slog.Float64("quote", ammAfter.Quote))
	log.Info("cex balance", slog.Float64("base", cexAfter.Base), slog.Float64("quote", cexAfter.Quote))

	if dir == domain.BuyOnDex {
		logPurchase(log.With(slog.String("venue", "amm")), ammBefore, ammAfter)
		logSale(log.With(slog.String("venue", "cex")), cexBefore, cexAfter)
		return
	}
	logPurchase(log.With(slog.String("venue", "cex")), cexBefore, cexAfter)
	logSale(log.With(slog.String("venue", "amm")), ammBefore, ammAfter)
}

// logPurchase reports how much base was bought and at what realized price.
func logPurchase(log *slog.Logger, before, after domain.Balance) {
	bought := after.Base - before.Base
	spent := before.Quote - after.Quote
	price := 0.0
	if bought != 0 {
		price = spent / bought
	}
	log.Info("purchase settled",
		slog.Float64("bought_base", bought),
		slog.Float64("quote_spent", spent),
		slog.Float64("realized_price", price),
	)
}

// logSale reports how much base was sold and at what realized price.
func logSale(log *slog.Logger, before, after domain.Balance) {
	sold := before.Base - after.Base
	received := after.Quote - before.Quote
	price := 0.0
	if sold != 0 {
		price = received / sold
	}
	log.Info("sale settled",
		slog.Float64("sold_base", sold),
		slog.Float64("quote_received", received),
		slog.Float64("realized_price", price),
	)
}
