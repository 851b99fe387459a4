// Package sizing converts account balance and trade stage into a concrete
// trade configuration. Pure computation, re-derived per trade.
package sizing

import "titan-sniper/internal/domain"

// Config holds the sizing policy constants.
type Config struct {
	EntryPct          float64 // fraction of balance committed per entry
	MinEntryLamports  uint64  // dust floor for a viable trade
	SlippageBps       int
	InitialStopPct    float64
	ReboundStopPct    float64 // tighter stop for rebound entries
	PartialTakeProfit float64 // 0 disables partial exits
}

// Sizer computes trade configurations from current balance.
type Sizer struct {
	cfg Config
}

// New creates a Sizer with the given policy.
func New(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size derives the configuration for one trade. Balance changes between
// trades, so callers must not cache the result.
func (s *Sizer) Size(balanceLamports uint64, stage string) domain.TradeConfiguration {
	// Integer basis-point share of balance; floats never touch the
	// on-chain amount.
	entry := balanceLamports / 10_000 * uint64(s.cfg.EntryPct*10_000)
	if entry < s.cfg.MinEntryLamports {
		entry = s.cfg.MinEntryLamports
	}

	stopPct := s.cfg.InitialStopPct
	if stage == domain.StageReboundEntry {
		stopPct = s.cfg.ReboundStopPct
	}

	return domain.TradeConfiguration{
		Stage:             stage,
		EntrySizeLamports: entry,
		SlippageBps:       s.cfg.SlippageBps,
		InitialStopPct:    stopPct,
		TrailingEnabled:   true,
		PartialTakeProfit: s.cfg.PartialTakeProfit,
	}
}
