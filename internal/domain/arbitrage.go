package domain

// Direction identifies which venue the buy leg runs on.
type Direction string

const (
	// BuyOnDex buys on the AMM and sells on the CEX.
	BuyOnDex Direction = "buy_on_dex"
	// BuyOnCex buys on the CEX and sells on the AMM.
	BuyOnCex Direction = "buy_on_cex"
)

// FillEstimate is the result of walking a depth snapshot. Amount is the total
// obtainable for the walked target: quote proceeds for a sell walk, base
// amount for a buy walk. StartPrice is the best price touched. ReferencePrice
// is the look-ahead-buffered price used as the assumed execution price; it is
// a conservative estimate of the price after impact, not the true touched
// price.
type FillEstimate struct {
	Amount         float64
	StartPrice     float64
	ReferencePrice float64
}

// Opportunity is a raw cross-venue price divergence observed in one cycle,
// before depth adjustment.
type Opportunity struct {
	Direction   Direction
	DexPrice    float64
	CexPrice    float64
	DiffPercent float64
}

// TradePlan is a fully gated, depth-adjusted plan ready for execution. It is
// consumed immediately by the orchestrator and then discarded.
type TradePlan struct {
	Direction Direction
	// AmountBase is the base-asset size of both legs.
	AmountBase float64
	// CexPrice is the best book price touched by the depth walk.
	CexPrice float64
	// ExecutionPrice is the look-ahead reference price the CEX limit order
	// is priced at.
	ExecutionPrice float64
	// NotionalQuote is the quote-asset notional committed to the buy leg.
	NotionalQuote float64
	// EstimatedProfitPercent is the depth-adjusted round-trip margin.
	EstimatedProfitPercent float64
}
