// Package book walks order-book depth snapshots to estimate realistic fill
// prices for a given size, instead of quoting against top-of-book alone.
package book

import (
	"fmt"

	"github.com/arbalab/cexdexarb/internal/domain"
)

// DefaultImpactBuffer is how many levels past the satisfying level the
// assumed execution price is taken from when no override is configured.
const DefaultImpactBuffer = 4

// WalkForSell consumes bids from the best price outward until amountToSell
// base units are disposed of. It returns the total quote proceeds, the best
// price touched, and a reference price impactBuffer levels past the level
// where the target was satisfied. The reference price approximates the book
// after impact and is what a sell limit order should be priced at.
//
// Returns domain.ErrInsufficientDepth when the snapshot cannot absorb the
// amount, or when the look-ahead index runs past the last level. Callers
// treat that as "no opportunity", not a failure.
func WalkForSell(bids []domain.PriceLevel, amountToSell float64, impactBuffer int) (domain.FillEstimate, error) {
	if amountToSell <= 0 {
		return domain.FillEstimate{}, fmt.Errorf("book: sell walk: non-positive amount %v", amountToSell)
	}
	if impactBuffer < 0 {
		return domain.FillEstimate{}, fmt.Errorf("book: sell walk: negative impact buffer %d", impactBuffer)
	}

	remaining := amountToSell
	proceeds := 0.0
	for i, level := range bids {
		if level.Size >= remaining {
			proceeds += level.Price * remaining
			ref := i + impactBuffer
			if ref >= len(bids) {
				return domain.FillEstimate{}, fmt.Errorf("book: sell walk: look-ahead %d past %d levels: %w", ref, len(bids), domain.ErrInsufficientDepth)
			}
			return domain.FillEstimate{
				Amount:         proceeds,
				StartPrice:     bids[0].Price,
				ReferencePrice: bids[ref].Price,
			}, nil
		}
		proceeds += level.Price * level.Size
		remaining -= level.Size
	}
	return domain.FillEstimate{}, fmt.Errorf("book: sell walk: %v of %v unfilled: %w", remaining, amountToSell, domain.ErrInsufficientDepth)
}

// WalkForBuy consumes asks from the best price outward until quoteBudget is
// spent, accumulating the base amount obtainable. Same reference-price rule
// and error conditions as WalkForSell.
func WalkForBuy(asks []domain.PriceLevel, quoteBudget float64, impactBuffer int) (domain.FillEstimate, error) {
	if quoteBudget <= 0 {
		return domain.FillEstimate{}, fmt.Errorf("book: buy walk: non-positive budget %v", quoteBudget)
	}
	if impactBuffer < 0 {
		return domain.FillEstimate{}, fmt.Errorf("book: buy walk: negative impact buffer %d", impactBuffer)
	}

	remaining := quoteBudget
	amount := 0.0
	for i, level := range asks {
		notional := level.Price * level.Size
		if notional >= remaining {
			amount += remaining / level.Price
			ref := i + impactBuffer
			if ref >= len(asks) {
				return domain.FillEstimate{}, fmt.Errorf("book: buy walk: look-ahead %d past %d levels: %w", ref, len(asks), domain.ErrInsufficientDepth)
			}
			return domain.FillEstimate{
				Amount:         amount,
				StartPrice:     asks[0].Price,
				ReferencePrice: asks[ref].Price,
			}, nil
		}
		amount += level.Size
		remaining -= notional
	}
	return domain.FillEstimate{}, fmt.Errorf("book: buy walk: %v of %v unspent: %w", remaining, quoteBudget, domain.ErrInsufficientDepth)
}
