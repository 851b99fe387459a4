package domain

import "time"

// Candle is one fixed-timeframe OHLC bucket built from price ticks.
type Candle struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	StartTime time.Time
}

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }
