// Package config loads the bot configuration from the environment, with
// optional .env support for local runs.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full recognized option surface.
type Config struct {
	// Connectivity
	RPCEndpoints   []string `envconfig:"RPC_ENDPOINTS" default:"https://api.mainnet-beta.solana.com"`
	WSEndpoint     string   `envconfig:"WS_ENDPOINT"`
	RelayEndpoints []string `envconfig:"RELAY_ENDPOINTS" default:"https://amsterdam.mainnet.block-engine.jito.wtf/api/v1/bundles,https://ny.mainnet.block-engine.jito.wtf/api/v1/bundles,https://tokyo.mainnet.block-engine.jito.wtf/api/v1/bundles"`
	ScoreAPIURL    string   `envconfig:"SCORE_API_URL" default:"https://api.rugcheck.xyz/v1/tokens"`
	QuoteAPIURL    string   `envconfig:"QUOTE_API_URL" default:"https://quote-api.jup.ag/v6"`
	PriceAPIURL    string   `envconfig:"PRICE_API_URL" default:"https://price.jup.ag/v6/price"`
	ScreenerAPIURL string   `envconfig:"SCREENER_API_URL" default:"https://api.geckoterminal.com/api/v2/networks/solana/new_pools"`

	// Identity. Base58-encoded 64-byte secret; absence is fatal at startup.
	PrivateKey string `envconfig:"PRIVATE_KEY"`

	// Candidate validation thresholds
	MinLiquidityUSD  float64 `envconfig:"MIN_LIQUIDITY_USD" default:"1000"`
	MinMarketCapUSD  float64 `envconfig:"MIN_MARKET_CAP_USD" default:"4000"`
	MinTxCountM5     int     `envconfig:"MIN_TX_COUNT_M5" default:"2"`
	MinMomentumRatio float64 `envconfig:"MIN_MOMENTUM_RATIO" default:"0"`
	MaxRiskScore     float64 `envconfig:"MAX_RISK_SCORE" default:"1500"`
	MaxPoolAgeMin    float64 `envconfig:"MAX_POOL_AGE_MIN" default:"60"`

	// Sizing
	EntryPct         float64 `envconfig:"ENTRY_PCT" default:"0.10"`
	MinEntryLamports uint64  `envconfig:"MIN_ENTRY_LAMPORTS" default:"1000000"`
	SlippageBps      int     `envconfig:"SLIPPAGE_BPS" default:"2000"`

	// Position management
	InitialStopPct    float64 `envconfig:"INITIAL_STOP_PCT" default:"0.25"`
	TrailingStopPct   float64 `envconfig:"TRAILING_STOP_PCT" default:"0.20"`
	ReboundStopPct    float64 `envconfig:"REBOUND_STOP_PCT" default:"0.025"`
	PartialTakeProfit float64 `envconfig:"PARTIAL_TAKE_PROFIT" default:"0"`
	ReboundEnabled    bool    `envconfig:"REBOUND_ENABLED" default:"false"`
	MaxOpenPositions  int     `envconfig:"MAX_OPEN_POSITIONS" default:"5"`
	MaxHoldMinutes    int     `envconfig:"MAX_HOLD_MINUTES" default:"30"`

	// Execution
	TipLamports uint64 `envconfig:"TIP_LAMPORTS" default:"100000"`

	// Cycles
	PriceCheckInterval time.Duration `envconfig:"PRICE_CHECK_INTERVAL" default:"2s"`
	SignalPollInterval time.Duration `envconfig:"SIGNAL_POLL_INTERVAL" default:"3s"`

	// Observability
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges that would make the bot misbehave silently.
// The signing key itself is validated by the wallet on load.
func (c *Config) Validate() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY is required")
	}
	if len(c.RPCEndpoints) == 0 {
		return fmt.Errorf("RPC_ENDPOINTS must list at least one endpoint")
	}
	if len(c.RelayEndpoints) == 0 {
		return fmt.Errorf("RELAY_ENDPOINTS must list at least one endpoint")
	}
	if c.EntryPct <= 0 || c.EntryPct > 1 {
		return fmt.Errorf("ENTRY_PCT must be in (0, 1], got %v", c.EntryPct)
	}
	for name, v := range map[string]float64{
		"INITIAL_STOP_PCT":  c.InitialStopPct,
		"TRAILING_STOP_PCT": c.TrailingStopPct,
		"REBOUND_STOP_PCT":  c.ReboundStopPct,
	} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%s must be in (0, 1), got %v", name, v)
		}
	}
	if c.PartialTakeProfit < 0 {
		return fmt.Errorf("PARTIAL_TAKE_PROFIT must be >= 0, got %v", c.PartialTakeProfit)
	}
	if c.MaxOpenPositions < 1 {
		return fmt.Errorf("MAX_OPEN_POSITIONS must be >= 1, got %d", c.MaxOpenPositions)
	}
	if c.PriceCheckInterval <= 0 || c.SignalPollInterval <= 0 {
		return fmt.Errorf("cycle intervals must be positive")
	}
	return nil
}

// MaxHoldDuration returns the force-exit hold limit, 0 when disabled.
func (c *Config) MaxHoldDuration() time.Duration {
	return time.Duration(c.MaxHoldMinutes) * time.Minute
}
