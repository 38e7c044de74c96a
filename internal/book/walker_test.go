package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbalab/cexdexarb/internal/domain"
)

func levels(pairs ...float64) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.PriceLevel{Price: pairs[i], Size: pairs[i+1]})
	}
	return out
}

func TestWalkForSell_SpansLevels(t *testing.T) {
	bids := levels(100, 2, 99, 3, 98, 5)

	// Selling 4: 2 at 100, then 2 of the 3 at 99 = 398 proceeds.
	est, err := WalkForSell(bids, 4, 1)
	require.NoError(t, err)
	assert.InDelta(t, 398.0, est.Amount, 1e-9)
	assert.Equal(t, 100.0, est.StartPrice)
	// Satisfied at index 1, look-ahead 1 lands on the 98 level.
	assert.Equal(t, 98.0, est.ReferencePrice)
}

func TestWalkForSell_LookAheadPastEnd(t *testing.T) {
	bids := levels(100, 2, 99, 3, 98, 5)
	_, err := WalkForSell(bids, 4, DefaultImpactBuffer)
	assert.ErrorIs(t, err, domain.ErrInsufficientDepth)
}

func TestWalkForSell_BookTooShallow(t *testing.T) {
	bids := levels(100, 2, 99, 1)
	_, err := WalkForSell(bids, 10, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientDepth)
}

func TestWalkForSell_NonPositiveAmount(t *testing.T) {
	_, err := WalkForSell(levels(100, 2), 0, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInsufficientDepth)
}

func TestWalkForSell_ProceedsShrinkWithDepthWalked(t *testing.T) {
	bids := levels(100, 1, 90, 1, 80, 1, 70, 1, 60, 10)

	small, err := WalkForSell(bids, 1, 0)
	require.NoError(t, err)
	large, err := WalkForSell(bids, 3, 0)
	require.NoError(t, err)

	// More sold still means more proceeds in absolute terms, but the
	// average realized price degrades as the walk goes deeper.
	assert.Greater(t, large.Amount, small.Amount)
	assert.Greater(t, small.Amount/1, large.Amount/3)
}

func TestWalkForSell_NegativeBuffer(t *testing.T) {
	_, err := WalkForSell(levels(100, 2), 1, -1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInsufficientDepth)
}

func TestWalkForBuy_SpansLevels(t *testing.T) {
	asks := levels(100, 1, 101, 1, 102, 5, 103, 5)

	// Spending 150.5: 1 unit at 100, then 50.5/101 = 0.5 at 101.
	est, err := WalkForBuy(asks, 150.5, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, est.Amount, 1e-9)
	assert.Equal(t, 100.0, est.StartPrice)
	assert.Equal(t, 102.0, est.ReferencePrice)
}

func TestWalkForBuy_FirstLevelSatisfies(t *testing.T) {
	asks := levels(100, 10, 101, 10, 102, 10)

	est, err := WalkForBuy(asks, 500, 2)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, est.Amount, 1e-9)
	assert.Equal(t, 102.0, est.ReferencePrice)
}

func TestWalkForBuy_LookAheadPastEnd(t *testing.T) {
	asks := levels(100, 10, 101, 10)
	_, err := WalkForBuy(asks, 500, DefaultImpactBuffer)
	assert.ErrorIs(t, err, domain.ErrInsufficientDepth)
}

func TestWalkForBuy_BudgetExceedsBook(t *testing.T) {
	asks := levels(100, 1, 101, 1)
	_, err := WalkForBuy(asks, 100_000, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientDepth)
}

func TestWalkForBuy_EmptyBook(t *testing.T) {
	_, err := WalkForBuy(nil, 100, 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientDepth)
}

func TestWalkForBuy_NegativeBuffer(t *testing.T) {
	_, err := WalkForBuy(levels(100, 2), 100, -1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInsufficientDepth)
}

func TestWalkForBuy_AveragePriceRisesWithBudget(t *testing.T) {
	asks := levels(100, 1, 110, 1, 120, 1, 130, 1, 140, 10)

	budgets := []float64{50, 150, 300, 450}
	prev := 0.0
	for _, budget := range budgets {
		est, err := WalkForBuy(asks, budget, 0)
		require.NoError(t, err)
		avg := budget / est.Amount
		// A larger budget walks deeper, so the effective average
		// price paid never decreases.
		assert.GreaterOrEqual(t, avg, prev, "budget %v", budget)
		prev = avg
	}
}
