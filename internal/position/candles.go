package position

import (
	"time"

	"titan-sniper/internal/domain"
)

// updateCandles folds a price tick into the position's OHLC history. A tick
// landing in a new timeframe bucket closes the current candle and opens a
// fresh one; the closed history is a bounded ring with the oldest dropped.
func updateCandles(p *domain.Position, price float64, now time.Time, timeframe time.Duration, maxCandles int) {
	bucket := now.Truncate(timeframe)

	if p.CurrentCandle == nil {
		p.CurrentCandle = &domain.Candle{
			Open: price, High: price, Low: price, Close: price,
			StartTime: bucket,
		}
		return
	}

	if bucket.After(p.CurrentCandle.StartTime) {
		p.Candles = append(p.Candles, *p.CurrentCandle)
		if len(p.Candles) > maxCandles {
			p.Candles = p.Candles[len(p.Candles)-maxCandles:]
		}
		p.CurrentCandle = &domain.Candle{
			Open: price, High: price, Low: price, Close: price,
			StartTime: bucket,
		}
		return
	}

	c := p.CurrentCandle
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
}

// relativeStrength computes RSI over the last period+1 closes. Returns
// (0, false) when the history is too short to evaluate.
func relativeStrength(candles []domain.Candle, period int) (float64, bool) {
	if len(candles) < period+1 {
		return 0, false
	}

	recent := candles[len(candles)-period-1:]
	var gains, losses float64
	for i := 1; i < len(recent); i++ {
		delta := recent[i].Close - recent[i-1].Close
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// bullishEngulfing reports whether the last two closed candles form a
// reversal: a net-down candle followed by a net-up candle whose body covers
// the prior body.
func bullishEngulfing(candles []domain.Candle) bool {
	if len(candles) < 2 {
		return false
	}
	prev := candles[len(candles)-2]
	curr := candles[len(candles)-1]
	if !prev.Bearish() || !curr.Bullish() {
		return false
	}
	return curr.Open <= prev.Close && curr.Close >= prev.Open
}
