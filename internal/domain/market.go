// Package domain holds the cycle-scoped value objects shared across the bot:
// quotes, book levels, pool state, balances, opportunities, and trade plans.
// None of these outlive a single monitoring cycle.
package domain

import "time"

// PriceLevel is a single price+size entry on one side of an order book.
type PriceLevel struct {
	Price float64
	Size  float64
}

// DepthSnapshot is an ordered view of one point in time of the CEX book:
// bids non-increasing by price, asks non-decreasing by price, starting from
// the best price on each side.
type DepthSnapshot struct {
	Symbol    string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BestBid returns the top-of-book bid price, or 0 for an empty side.
func (s DepthSnapshot) BestBid() float64 {
	if len(s.Bids) == 0 {
		return 0
	}
	return s.Bids[0].Price
}

// BestAsk returns the top-of-book ask price, or 0 for an empty side.
func (s DepthSnapshot) BestAsk() float64 {
	if len(s.Asks) == 0 {
		return 0
	}
	return s.Asks[0].Price
}

// Quote is a venue's top-of-book at a point in time. For the AMM venue the
// "bid" is the unit sell price and the "ask" is the unit buy price.
type Quote struct {
	BestBid float64
	BestAsk float64
}

// Balance is the free balance of the trading pair on one venue, expressed in
// whole units of the base and quote assets.
type Balance struct {
	Base  float64
	Quote float64
}

// Equal reports whether two balances are identical. Balance confirmation
// after a trade polls until this turns false against the pre-trade snapshot.
func (b Balance) Equal(other Balance) bool {
	return b.Base == other.Base && b.Quote == other.Quote
}
