package domain

// LamportsPerSOL is the native unit scale.
const LamportsPerSOL = 1_000_000_000

// Trade stages. The rebound stage gets a tighter stop distance.
const (
	StageInitialLaunch = "INITIAL_LAUNCH"
	StageReboundEntry  = "REBOUND_ENTRY"
)

// TradeConfiguration is the concrete sizing for one trade. Derived fresh per
// trade from the current balance; not persisted beyond use.
type TradeConfiguration struct {
	Stage             string
	EntrySizeLamports uint64  // exact on-chain amount to spend
	SlippageBps       int     // slippage tolerance in basis points
	InitialStopPct    float64 // stop-loss distance from entry (0.25 = -25%)
	TrailingEnabled   bool
	PartialTakeProfit float64 // profit fraction triggering a partial exit, 0 = disabled
}

// EntrySizeSOL is the display value of the entry size. Execution always uses
// EntrySizeLamports.
func (c TradeConfiguration) EntrySizeSOL() float64 {
	return float64(c.EntrySizeLamports) / LamportsPerSOL
}
