package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbalab/cexdexarb/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCex records every call in submission order.
type fakeCex struct {
	mu      sync.Mutex
	calls   []string
	balance domain.Balance
	buyErr  error
	sellErr error
	buys    []struct{ amount, price float64 }
	sells   []struct{ amount, price float64 }
}

func (f *fakeCex) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCex) FetchBalance(ctx context.Context) (domain.Balance, error) {
	f.record("FetchBalance")
	return f.balance, nil
}

func (f *fakeCex) LimitBuy(ctx context.Context, amount, price float64) (string, error) {
	f.record("LimitBuy")
	if f.buyErr != nil {
		return "", f.buyErr
	}
	f.buys = append(f.buys, struct{ amount, price float64 }{amount, price})
	return fmt.Sprintf("order-%d", len(f.buys)), nil
}

func (f *fakeCex) LimitSell(ctx context.Context, amount, price float64) (string, error) {
	f.record("LimitSell")
	if f.sellErr != nil {
		return "", f.sellErr
	}
	f.sells = append(f.sells, struct{ amount, price float64 }{amount, price})
	return fmt.Sprintf("order-%d", len(f.sells)), nil
}

// fakeAmm serves a scripted sequence of balances so the confirmation poll
// can be steered: the balance "changes" once balanceAfter polls have been
// served.
type fakeAmm struct {
	mu           sync.Mutex
	calls        []string
	before       domain.Balance
	after        domain.Balance
	changeAfter  int // number of GetBalance calls that still return before
	balanceCalls int
	buyErr       error
	sellErr      error
	buyNotional  float64
	sellAmount   float64
}

func (f *fakeAmm) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeAmm) GetBalance(ctx context.Context) (domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetBalance")
	f.balanceCalls++
	if f.balanceCalls <= f.changeAfter {
		return f.before, nil
	}
	return f.after, nil
}

func (f *fakeAmm) Buy(ctx context.Context, notionalQuote float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Buy")
	if f.buyErr != nil {
		return "", f.buyErr
	}
	f.buyNotional = notionalQuote
	return "sig-buy", nil
}

func (f *fakeAmm) Sell(ctx context.Context, amountBase float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Sell")
	if f.sellErr != nil {
		return "", f.sellErr
	}
	f.sellAmount = amountBase
	return "sig-sell", nil
}

// memJournal keeps every state the saga passed through.
type memJournal struct {
	mu        sync.Mutex
	createErr error
	records   map[string]domain.ExecutionRecord
	states    []domain.ExecutionState
}

func newMemJournal() *memJournal {
	return &memJournal{records: map[string]domain.ExecutionRecord{}}
}

func (j *memJournal) Create(ctx context.Context, rec domain.ExecutionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.createErr != nil {
		return j.createErr
	}
	j.records[rec.ID] = rec
	j.states = append(j.states, rec.State)
	return nil
}

func (j *memJournal) Update(ctx context.Context, rec domain.ExecutionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[rec.ID] = rec
	j.states = append(j.states, rec.State)
	return nil
}

func (j *memJournal) GetByID(ctx context.Context, id string) (domain.ExecutionRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec, ok := j.records[id]
	if !ok {
		return domain.ExecutionRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

type memAlerter struct {
	mu     sync.Mutex
	events []string
}

func (a *memAlerter) Notify(ctx context.Context, event, title, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func dexPlan() domain.TradePlan {
	return domain.TradePlan{
		Direction:              domain.BuyOnDex,
		AmountBase:             0.2,
		CexPrice:               101,
		ExecutionPrice:         100.9,
		NotionalQuote:          20,
		EstimatedProfitPercent: 0.99,
	}
}

func TestExecute_BuyOnDex_Settles(t *testing.T) {
	cex := &fakeCex{balance: domain.Balance{Base: 1, Quote: 500}}
	amm := &fakeAmm{
		before:      domain.Balance{Base: 0.5, Quote: 100},
		after:       domain.Balance{Base: 0.7, Quote: 79.8},
		changeAfter: 2,
	}
	journal := newMemJournal()
	alerter := &memAlerter{}

	o := New(Config{
		Cex: cex, Amm: amm, Journal: journal, Alerter: alerter,
		PollInterval: time.Millisecond, Logger: testLogger(),
	})

	rec, err := o.Execute(context.Background(), dexPlan())
	require.NoError(t, err)

	assert.Equal(t, domain.ExecSettled, rec.State)
	require.NotNil(t, rec.CompletedAt)
	require.Len(t, rec.Legs, 2)

	// AMM buy goes out first, against the committed notional.
	assert.Equal(t, domain.LegVenueAMM, rec.Legs[0].Venue)
	assert.Equal(t, "buy", rec.Legs[0].Side)
	assert.Equal(t, 20.0, amm.buyNotional)
	assert.Equal(t, "sig-buy", rec.Legs[0].Receipt)

	// CEX sell follows as soon as the buy submission returned.
	assert.Equal(t, domain.LegVenueCEX, rec.Legs[1].Venue)
	assert.Equal(t, "sell", rec.Legs[1].Side)
	require.Len(t, cex.sells, 1)
	assert.Equal(t, 0.2, cex.sells[0].amount)
	assert.Equal(t, 100.9, cex.sells[0].price)

	assert.Contains(t, journal.states, domain.ExecBuyLegSubmitted)
	assert.Contains(t, journal.states, domain.ExecSellLegSubmitted)
	assert.Equal(t, domain.ExecSettled, journal.states[len(journal.states)-1])
	assert.Equal(t, []string{"trade_settled"}, alerter.events)
}

func TestExecute_BuyOnCex_LegOrder(t *testing.T) {
	cex := &fakeCex{balance: domain.Balance{Base: 1, Quote: 500}}
	amm := &fakeAmm{
		before:      domain.Balance{Base: 0.5, Quote: 100},
		after:       domain.Balance{Base: 0.3, Quote: 121},
		changeAfter: 1,
	}

	o := New(Config{Cex: cex, Amm: amm, PollInterval: time.Millisecond, Logger: testLogger()})

	plan := dexPlan()
	plan.Direction = domain.BuyOnCex

	rec, err := o.Execute(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, rec.Legs, 2)
	assert.Equal(t, domain.LegVenueCEX, rec.Legs[0].Venue)
	assert.Equal(t, "buy", rec.Legs[0].Side)
	assert.Equal(t, domain.LegVenueAMM, rec.Legs[1].Venue)
	assert.Equal(t, "sell", rec.Legs[1].Side)

	require.Len(t, cex.buys, 1)
	assert.Equal(t, 0.2, cex.buys[0].amount)
	assert.Equal(t, 100.9, cex.buys[0].price)
	assert.Equal(t, 0.2, amm.sellAmount)
}

func TestExecute_BuyLegFailure_StopsBeforeSecondLeg(t *testing.T) {
	cex := &fakeCex{balance: domain.Balance{Base: 1, Quote: 500}}
	amm := &fakeAmm{
		before: domain.Balance{Base: 0.5, Quote: 100},
		buyErr: errors.New("rpc unavailable"),
	}
	alerter := &memAlerter{}

	o := New(Config{Cex: cex, Amm: amm, Alerter: alerter, PollInterval: time.Millisecond, Logger: testLogger()})

	rec, err := o.Execute(context.Background(), dexPlan())
	assert.ErrorIs(t, err, domain.ErrLegFailed)
	assert.Equal(t, domain.ExecFailed, rec.State)
	assert.Empty(t, rec.Legs)
	assert.NotContains(t, cex.calls, "LimitSell")
	assert.Equal(t, []string{"trade_failed"}, alerter.events)
}

func TestExecute_SecondLegFailure_NoRollback(t *testing.T) {
	cex := &fakeCex{
		balance: domain.Balance{Base: 1, Quote: 500},
		sellErr: errors.New("insufficient balance"),
	}
	amm := &fakeAmm{before: domain.Balance{Base: 0.5, Quote: 100}}

	o := New(Config{Cex: cex, Amm: amm, PollInterval: time.Millisecond, Logger: testLogger()})

	rec, err := o.Execute(context.Background(), dexPlan())
	assert.ErrorIs(t, err, domain.ErrLegFailed)
	assert.Equal(t, domain.ExecFailed, rec.State)

	// The AMM buy already went out and stays out: one leg on record, no
	// compensating swap issued.
	require.Len(t, rec.Legs, 1)
	assert.Equal(t, domain.LegVenueAMM, rec.Legs[0].Venue)
	assert.NotContains(t, amm.calls, "Sell")
	assert.NotEmpty(t, rec.Error)
}

func TestExecute_BalanceWaitTimeout(t *testing.T) {
	cex := &fakeCex{balance: domain.Balance{Base: 1, Quote: 500}}
	amm := &fakeAmm{
		before:      domain.Balance{Base: 0.5, Quote: 100},
		after:       domain.Balance{Base: 0.5, Quote: 100}, // never changes
		changeAfter: 1 << 30,
	}

	o := New(Config{
		Cex: cex, Amm: amm,
		PollInterval: time.Millisecond,
		WaitTimeout:  20 * time.Millisecond,
		Logger:       testLogger(),
	})

	rec, err := o.Execute(context.Background(), dexPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.ExecFailed, rec.State)
}

func TestExecute_BalanceWaitHonorsCancellation(t *testing.T) {
	cex := &fakeCex{balance: domain.Balance{Base: 1, Quote: 500}}
	amm := &fakeAmm{
		before:      domain.Balance{Base: 0.5, Quote: 100},
		after:       domain.Balance{Base: 0.5, Quote: 100},
		changeAfter: 1 << 30,
	}

	// No WaitTimeout: the wait is unbounded and must end with the context.
	o := New(Config{Cex: cex, Amm: amm, PollInterval: time.Millisecond, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	rec, err := o.Execute(ctx, dexPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.ExecFailed, rec.State)
}

func TestExecute_JournalFailureIsNotFatal(t *testing.T) {
	cex := &fakeCex{balance: domain.Balance{Base: 1, Quote: 500}}
	amm := &fakeAmm{
		before:      domain.Balance{Base: 0.5, Quote: 100},
		after:       domain.Balance{Base: 0.7, Quote: 79.8},
		changeAfter: 1,
	}
	journal := newMemJournal()
	journal.createErr = errors.New("connection refused")

	o := New(Config{Cex: cex, Amm: amm, Journal: journal, PollInterval: time.Millisecond, Logger: testLogger()})

	rec, err := o.Execute(context.Background(), dexPlan())
	require.NoError(t, err)
	assert.Equal(t, domain.ExecSettled, rec.State)
}
