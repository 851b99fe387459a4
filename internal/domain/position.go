package domain

import "time"

// Position phases. MONITORING is the transient pre-entry phase between
// registration and the first price tick. The rebound phases are only reached
// when re-entry is enabled.
const (
	PhaseMonitoring      = "MONITORING"
	PhaseActive          = "ACTIVE"
	PhasePartialExited   = "PARTIAL_EXITED"
	PhaseAwaitingRebound = "AWAITING_REBOUND"
	PhaseActiveRebound   = "ACTIVE_REBOUND"
	PhaseClosed          = "CLOSED"
)

// Actions the state machine can emit on a price tick.
const (
	ActionHold        = "HOLD"
	ActionSellPartial = "SELL_PARTIAL"
	ActionSellExit    = "SELL_EXIT"
	ActionBuyRebound  = "BUY_REBOUND"
)

// Position is one tracked token. Owned exclusively by the position engine and
// mutated only on price ticks.
//
// Invariants: StopLossPrice and HighestPrice are monotonically non-decreasing
// over the position's lifetime; at most one open Position exists per mint.
type Position struct {
	Mint            string
	Phase           string
	EntryPrice      float64
	HighestPrice    float64
	StopLossPrice   float64
	PartialExitDone bool
	EnteredAt       time.Time

	// Candle history for rebound detection. Bounded ring, oldest dropped.
	Candles       []Candle
	CurrentCandle *Candle
}
