package position

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"titan-sniper/internal/domain"
)

// Defaults for the rebound candle history.
const (
	DefaultCandleTimeframe = time.Minute
	DefaultMaxCandles      = 50
	DefaultRSIPeriod       = 14
	DefaultRSIOversold     = 30
)

var (
	// ErrPositionExists is returned when a mint is already tracked.
	ErrPositionExists = errors.New("position already open for mint")

	// ErrCapacityReached is returned when the open-position limit is hit.
	ErrCapacityReached = errors.New("open position limit reached")
)

// Config carries the stop-loss and re-entry policy.
type Config struct {
	InitialStopPct    float64
	TrailingStopPct   float64
	ReboundStopPct    float64
	PartialTakeProfit float64 // profit fraction triggering a half exit, 0 = disabled
	ReboundEnabled    bool
	MaxOpenPositions  int
	MaxHold           time.Duration // 0 = no time stop

	CandleTimeframe time.Duration
	MaxCandles      int
	RSIPeriod       int
	RSIOversold     float64
}

func (c Config) withDefaults() Config {
	if c.CandleTimeframe <= 0 {
		c.CandleTimeframe = DefaultCandleTimeframe
	}
	if c.MaxCandles <= 0 {
		c.MaxCandles = DefaultMaxCandles
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = DefaultRSIPeriod
	}
	if c.RSIOversold <= 0 {
		c.RSIOversold = DefaultRSIOversold
	}
	return c
}

// Engine owns the set of open positions and advances each one on price
// ticks. Transitions are deterministic for a given tick sequence.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	positions map[string]*domain.Position
	order     []string
	logger    *log.Logger
}

func NewEngine(cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		cfg:       cfg.withDefaults(),
		positions: make(map[string]*domain.Position),
		logger:    logger,
	}
}

// Register reserves a tracking slot for a mint before its entry trade runs,
// so a second signal for the same mint cannot open a second position while
// the first is in flight.
func (e *Engine) Register(mint string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.positions[mint]; ok {
		return fmt.Errorf("%w: %s", ErrPositionExists, mint)
	}
	if e.cfg.MaxOpenPositions > 0 && len(e.positions) >= e.cfg.MaxOpenPositions {
		return fmt.Errorf("%w (%d)", ErrCapacityReached, e.cfg.MaxOpenPositions)
	}

	e.positions[mint] = &domain.Position{Mint: mint, Phase: domain.PhaseMonitoring}
	e.order = append(e.order, mint)
	return nil
}

// Remove drops a mint from tracking. Used when an entry trade fails after
// registration, and internally on terminal transitions.
func (e *Engine) Remove(mint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.remove(mint)
}

func (e *Engine) remove(mint string) {
	delete(e.positions, mint)
	for i, m := range e.order {
		if m == mint {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Mints returns tracked mints in insertion order.
func (e *Engine) Mints() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// OpenCount returns the number of tracked positions.
func (e *Engine) OpenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.positions)
}

// Get returns a copy of the tracked position, if any.
func (e *Engine) Get(mint string) (domain.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.positions[mint]
	if !ok {
		return domain.Position{}, false
	}
	return *p, true
}

// OnPriceUpdate advances one position by one tick and returns the action
// the caller must execute. An untracked mint becomes a fresh ACTIVE entry
// at the observed price.
func (e *Engine) OnPriceUpdate(mint string, price float64, now time.Time) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[mint]
	if !ok {
		p = &domain.Position{Mint: mint, Phase: domain.PhaseMonitoring}
		e.positions[mint] = p
		e.order = append(e.order, mint)
	}

	if p.Phase == domain.PhaseMonitoring {
		e.enter(p, price, now, e.cfg.InitialStopPct, domain.PhaseActive)
		return domain.ActionHold
	}

	updateCandles(p, price, now, e.cfg.CandleTimeframe, e.cfg.MaxCandles)

	switch p.Phase {
	case domain.PhaseActive, domain.PhasePartialExited, domain.PhaseActiveRebound:
		return e.manage(p, price, now)
	case domain.PhaseAwaitingRebound:
		return e.awaitRebound(p, price, now)
	default:
		return domain.ActionHold
	}
}

func (e *Engine) enter(p *domain.Position, price float64, now time.Time, stopPct float64, phase string) {
	p.Phase = phase
	p.EntryPrice = price
	p.HighestPrice = price
	p.StopLossPrice = price * (1 - stopPct)
	p.PartialExitDone = false
	p.EnteredAt = now
	e.logger.Printf("[position] %s entered %s at %.12f, stop %.12f", p.Mint, phase, price, p.StopLossPrice)
}

// manage applies the trailing/partial/stop-out rules shared by the active
// phases. The stop-loss only ever ratchets up.
func (e *Engine) manage(p *domain.Position, price float64, now time.Time) string {
	trailingPct := e.cfg.TrailingStopPct
	if p.Phase == domain.PhaseActiveRebound {
		trailingPct = e.cfg.ReboundStopPct
	}

	if price > p.HighestPrice {
		p.HighestPrice = price
		if candidate := price * (1 - trailingPct); candidate > p.StopLossPrice {
			p.StopLossPrice = candidate
		}
	}

	if price <= p.StopLossPrice {
		return e.stopOut(p, price)
	}

	if e.cfg.MaxHold > 0 && now.Sub(p.EnteredAt) >= e.cfg.MaxHold {
		e.logger.Printf("[position] %s held past %s, exiting at %.12f", p.Mint, e.cfg.MaxHold, price)
		e.remove(p.Mint)
		p.Phase = domain.PhaseClosed
		return domain.ActionSellExit
	}

	if e.cfg.PartialTakeProfit > 0 && !p.PartialExitDone &&
		p.Phase == domain.PhaseActive &&
		price >= p.EntryPrice*(1+e.cfg.PartialTakeProfit) {
		p.Phase = domain.PhasePartialExited
		p.PartialExitDone = true
		// Breakeven lock: the remainder cannot lose money. A higher
		// trailing stop still supersedes it.
		if p.EntryPrice > p.StopLossPrice {
			p.StopLossPrice = p.EntryPrice
		}
		e.logger.Printf("[position] %s partial exit at %.12f, stop locked at entry %.12f", p.Mint, price, p.EntryPrice)
		return domain.ActionSellPartial
	}

	return domain.ActionHold
}

func (e *Engine) stopOut(p *domain.Position, price float64) string {
	if e.cfg.ReboundEnabled && p.Phase != domain.PhaseActiveRebound {
		p.Phase = domain.PhaseAwaitingRebound
		e.logger.Printf("[position] %s stopped out at %.12f, watching for rebound", p.Mint, price)
		return domain.ActionSellExit
	}
	e.logger.Printf("[position] %s stopped out at %.12f, closed", p.Mint, price)
	e.remove(p.Mint)
	p.Phase = domain.PhaseClosed
	return domain.ActionSellExit
}

// awaitRebound watches the candle history for an oversold bullish reversal.
// On signal the position re-enters with the tighter rebound stop.
func (e *Engine) awaitRebound(p *domain.Position, price float64, now time.Time) string {
	if e.cfg.MaxHold > 0 && now.Sub(p.EnteredAt) >= e.cfg.MaxHold {
		e.logger.Printf("[position] %s rebound window expired, dropped", p.Mint)
		e.remove(p.Mint)
		return domain.ActionHold
	}

	rsi, ok := relativeStrength(p.Candles, e.cfg.RSIPeriod)
	if !ok || rsi >= e.cfg.RSIOversold {
		return domain.ActionHold
	}
	if !bullishEngulfing(p.Candles) {
		return domain.ActionHold
	}

	candles, current := p.Candles, p.CurrentCandle
	e.enter(p, price, now, e.cfg.ReboundStopPct, domain.PhaseActiveRebound)
	p.Candles, p.CurrentCandle = candles, current
	return domain.ActionBuyRebound
}
