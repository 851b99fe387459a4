package domain

// TokenSignal represents a newly discovered tradable token with the market
// snapshot taken at discovery time. Produced by the discovery listener,
// consumed once by the orchestrator; immutable after creation.
type TokenSignal struct {
	Mint         string  // token mint address
	Name         string  // display name (pair name from the screener)
	MarketCapUSD float64 // fully diluted valuation estimate
	LiquidityUSD float64 // pool reserve estimate
	VolumeM5USD  float64 // trade volume over the last 5 minutes
	TxCountM5    int     // buy+sell transaction count over the last 5 minutes
	PoolAgeMin   float64 // minutes since pool creation
}

// MomentumRatio is 5-minute volume relative to liquidity. A ratio above
// ~0.1 means a meaningful share of the pool changed hands recently.
func (s TokenSignal) MomentumRatio() float64 {
	if s.LiquidityUSD <= 0 {
		return 0
	}
	return s.VolumeM5USD / s.LiquidityUSD
}
