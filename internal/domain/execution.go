package domain

import (
	"context"
	"time"
)

// ExecutionState is a step of the two-leg execution saga. States advance
// strictly in order; the journaled state makes a crash between legs
// diagnosable.
type ExecutionState string

const (
	ExecIdle              ExecutionState = "idle"
	ExecBuyLegSubmitted   ExecutionState = "buy_leg_submitted"
	ExecBuyLegConfirming  ExecutionState = "buy_leg_awaiting_confirmation"
	ExecSellLegSubmitted  ExecutionState = "sell_leg_submitted"
	ExecSellLegConfirming ExecutionState = "sell_leg_awaiting_confirmation"
	ExecSettled           ExecutionState = "settled"
	ExecFailed            ExecutionState = "failed"
)

// LegVenue identifies which venue a leg ran on.
type LegVenue string

const (
	LegVenueAMM LegVenue = "amm"
	LegVenueCEX LegVenue = "cex"
)

// ExecutionLeg records one submitted leg of an executed plan.
type ExecutionLeg struct {
	Venue       LegVenue
	Side        string // "buy" or "sell"
	Amount      float64
	Price       float64 // 0 for AMM market swaps
	Receipt     string  // tx signature or order id
	SubmittedAt time.Time
}

// ExecutionRecord is the persisted saga state for one trade plan.
type ExecutionRecord struct {
	ID          string
	Direction   Direction
	State       ExecutionState
	Plan        TradePlan
	Legs        []ExecutionLeg
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// ExecutionJournal persists saga transitions. Implementations must tolerate
// repeated Update calls for the same record.
type ExecutionJournal interface {
	Create(ctx context.Context, rec ExecutionRecord) error
	Update(ctx context.Context, rec ExecutionRecord) error
	GetByID(ctx context.Context, id string) (ExecutionRecord, error)
}
