package domain

// PoolState is a constant-product pool's reserves and fee parameters as read
// from a single on-chain simulation. Reserves are raw token amounts (not
// decimal-adjusted).
type PoolState struct {
	ReserveBase    uint64
	ReserveQuote   uint64
	BaseDecimals   int
	QuoteDecimals  int
	FeeNumerator   uint64
	FeeDenominator uint64
}

// FeeRate returns the proportional swap fee, e.g. 25/10000 = 0.0025.
func (p PoolState) FeeRate() float64 {
	if p.FeeDenominator == 0 {
		return 0
	}
	return float64(p.FeeNumerator) / float64(p.FeeDenominator)
}

// Valid reports whether the pool can be priced: both reserves positive and
// fee rate in [0, 1).
func (p PoolState) Valid() bool {
	if p.ReserveBase == 0 || p.ReserveQuote == 0 {
		return false
	}
	if p.FeeDenominator == 0 || p.FeeNumerator >= p.FeeDenominator {
		return false
	}
	return true
}
