// Package amm prices a constant-product liquidity pool. Both functions are
// pure over a domain.PoolState read from a single on-chain simulation, so
// repeated calls with the same state always return the same price.
package amm

import (
	"fmt"
	"math"

	"github.com/arbalab/cexdexarb/internal/domain"
)

// UnitSellPrice returns the quote-asset price received for selling one whole
// unit of the base asset. The proportional input fee is subtracted before the
// constant-product invariant is applied.
func UnitSellPrice(pool domain.PoolState) (float64, error) {
	if !pool.Valid() {
		return 0, fmt.Errorf("amm: sell price: %w", domain.ErrInvalidPoolState)
	}

	reserveIn := float64(pool.ReserveBase)
	reserveOut := float64(pool.ReserveQuote)

	amountIn := math.Pow(10, float64(pool.BaseDecimals))
	fee := amountIn * float64(pool.FeeNumerator) / float64(pool.FeeDenominator)
	amountInWithFee := amountIn - fee

	amountOut := reserveOut * amountInWithFee / (reserveIn + amountInWithFee)
	return amountOut / math.Pow(10, float64(pool.QuoteDecimals)), nil
}

// UnitBuyPrice returns the quote-asset price paid to buy one whole unit of
// the base asset. The invariant is inverted for a fixed one-unit output and
// the input-side fee is then applied as a linear correction on the fee-free
// solution. This is an approximation, not an exact inverse: the true input
// would have to be solved with the fee inside the invariant.
func UnitBuyPrice(pool domain.PoolState) (float64, error) {
	if !pool.Valid() {
		return 0, fmt.Errorf("amm: buy price: %w", domain.ErrInvalidPoolState)
	}

	reserveIn := float64(pool.ReserveQuote)
	reserveOut := float64(pool.ReserveBase)

	amountOut := math.Pow(10, float64(pool.BaseDecimals))
	if reserveOut <= amountOut {
		// Pool too thin to source a single unit.
		return 0, fmt.Errorf("amm: buy price: base reserve below one unit: %w", domain.ErrInvalidPoolState)
	}

	amountInNoFee := reserveIn * amountOut / (reserveOut - amountOut)
	amountIn := amountInNoFee * float64(pool.FeeDenominator) / float64(pool.FeeDenominator-pool.FeeNumerator)
	return amountIn / math.Pow(10, float64(pool.QuoteDecimals)), nil
}

// UnitPrices returns (buy, sell) in one call; monitoring logs both every
// cycle.
func UnitPrices(pool domain.PoolState) (buy, sell float64, err error) {
	if buy, err = UnitBuyPrice(pool); err != nil {
		return 0, 0, err
	}
	if sell, err = UnitSellPrice(pool); err != nil {
		return 0, 0, err
	}
	return buy, sell, nil
}
