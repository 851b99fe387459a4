// Package orchestrator sequences the trading cycles: validated signals
// become entries, and periodic price ticks drive position management.
package orchestrator

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"titan-sniper/internal/domain"
	"titan-sniper/internal/observability"
	"titan-sniper/internal/oracle"
	"titan-sniper/internal/position"
)

// Validator screens a token signal before any money moves.
type Validator interface {
	Validate(ctx context.Context, sig domain.TokenSignal) domain.SafetyVerdict
}

// Sizer derives the trade configuration from the current balance.
type Sizer interface {
	Size(balanceLamports uint64, stage string) domain.TradeConfiguration
}

// Trader executes buys and sells.
type Trader interface {
	ExecuteBuy(ctx context.Context, mint string, cfg domain.TradeConfiguration) domain.ExecutionResult
	ExecuteSell(ctx context.Context, mint string, amountRaw uint64, slippageBps int) domain.ExecutionResult
}

// Funds exposes the wallet balances the cycles need. Sell amounts are
// always queried fresh, never assumed from prior trades.
type Funds interface {
	BalanceLamports(ctx context.Context) (uint64, error)
	TokenBalanceRaw(ctx context.Context, mint string) (uint64, error)
}

// Config tunes the cycle cadence.
type Config struct {
	PriceCheckInterval time.Duration
	SlippageBps        int
}

// Orchestrator is the only component that sequences cross-component calls.
// Signal intake runs inline on the event loop; price cycles run guarded so
// a slow cycle makes the next firing a no-op instead of queueing.
type Orchestrator struct {
	cfg       Config
	signals   <-chan domain.TokenSignal
	validator Validator
	sizer     Sizer
	trader    Trader
	engine    *position.Engine
	prices    oracle.PriceSource
	funds     Funds
	logger    *log.Logger

	pricing atomic.Bool
}

func New(
	cfg Config,
	signals <-chan domain.TokenSignal,
	validator Validator,
	sizer Sizer,
	trader Trader,
	engine *position.Engine,
	prices oracle.PriceSource,
	funds Funds,
	logger *log.Logger,
) *Orchestrator {
	if cfg.PriceCheckInterval <= 0 {
		cfg.PriceCheckInterval = 2 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		cfg:       cfg,
		signals:   signals,
		validator: validator,
		sizer:     sizer,
		trader:    trader,
		engine:    engine,
		prices:    prices,
		funds:     funds,
		logger:    logger,
	}
}

// Run drives both cycles until the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.PriceCheckInterval)
	defer ticker.Stop()

	o.logger.Printf("[orchestrator] running, price checks every %s", o.cfg.PriceCheckInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-o.signals:
			if !ok {
				return nil
			}
			o.HandleSignal(ctx, sig)
		case <-ticker.C:
			go o.PriceCycle(ctx)
		}
	}
}

// HandleSignal runs the entry pipeline for one discovered token: validate,
// reserve the position slot, size, execute. The slot is reserved before
// the buy so a duplicate signal cannot open a second position while the
// first is in flight.
func (o *Orchestrator) HandleSignal(ctx context.Context, sig domain.TokenSignal) {
	observability.RecordSignalReceived()

	verdict := o.validator.Validate(ctx, sig)
	observability.RecordVerdict(verdict.Safe, verdict.Reason)
	if !verdict.Safe {
		o.logger.Printf("[orchestrator] %s rejected: %s (%s)", sig.Mint, verdict.Reason, verdict.Detail)
		return
	}

	if err := o.engine.Register(sig.Mint); err != nil {
		o.logger.Printf("[orchestrator] %s not registered: %v", sig.Mint, err)
		return
	}

	balance, err := o.funds.BalanceLamports(ctx)
	if err != nil {
		o.logger.Printf("[orchestrator] balance query failed: %v", err)
		o.engine.Remove(sig.Mint)
		return
	}

	tc := o.sizer.Size(balance, domain.StageInitialLaunch)
	o.logger.Printf("[orchestrator] buying %s: %.4f SOL", sig.Mint, tc.EntrySizeSOL())

	res := o.trader.ExecuteBuy(ctx, sig.Mint, tc)
	observability.RecordTrade("buy", res.Success)
	if !res.Success {
		o.logger.Printf("[orchestrator] buy failed for %s: %s", sig.Mint, res.Reason)
		o.engine.Remove(sig.Mint)
		return
	}

	o.logger.Printf("[orchestrator] position opened for %s (bundle %s)", sig.Mint, res.BundleID)
	observability.SetOpenPositions(o.engine.OpenCount())
}

// PriceCycle batch-fetches prices for all open positions and executes the
// actions the state machine returns. A cycle still in progress makes this
// call a no-op.
func (o *Orchestrator) PriceCycle(ctx context.Context) {
	if !o.pricing.CompareAndSwap(false, true) {
		observability.DefaultMetrics.PriceCyclesSkipped.Inc()
		return
	}
	defer o.pricing.Store(false)

	mints := o.engine.Mints()
	if len(mints) == 0 {
		return
	}

	start := time.Now()
	prices, err := o.prices.FetchPrices(ctx, mints)
	observability.DefaultMetrics.PriceFetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		o.logger.Printf("[orchestrator] price fetch failed: %v", err)
		return
	}

	now := time.Now()
	for _, mint := range mints {
		price, ok := prices[mint]
		if !ok {
			// No update for this mint this tick.
			continue
		}
		observability.DefaultMetrics.PriceUpdates.Inc()
		action := o.engine.OnPriceUpdate(mint, price, now)
		o.act(ctx, mint, action)
	}

	observability.SetOpenPositions(o.engine.OpenCount())
}

func (o *Orchestrator) act(ctx context.Context, mint, action string) {
	switch action {
	case domain.ActionHold:
		return
	case domain.ActionSellPartial:
		observability.RecordAction(action)
		o.sell(ctx, mint, true)
	case domain.ActionSellExit:
		observability.RecordAction(action)
		o.sell(ctx, mint, false)
	case domain.ActionBuyRebound:
		observability.RecordAction(action)
		o.buyRebound(ctx, mint)
	}
}

// sell disposes of the wallet's actual holding, half for a partial exit.
// A zero balance means there is nothing to manage: the sell is a no-op
// and the position is dropped.
func (o *Orchestrator) sell(ctx context.Context, mint string, half bool) {
	balance, err := o.funds.TokenBalanceRaw(ctx, mint)
	if err != nil {
		o.logger.Printf("[orchestrator] holding query failed for %s: %v", mint, err)
		return
	}
	if balance == 0 {
		o.logger.Printf("[orchestrator] no holding for %s, dropping position", mint)
		o.engine.Remove(mint)
		return
	}

	amount := balance
	if half {
		amount = balance / 2
	}

	res := o.trader.ExecuteSell(ctx, mint, amount, o.cfg.SlippageBps)
	observability.RecordTrade("sell", res.Success)
	if !res.Success {
		o.logger.Printf("[orchestrator] sell failed for %s: %s", mint, res.Reason)
		return
	}
	o.logger.Printf("[orchestrator] sold %d of %s (bundle %s)", amount, mint, res.BundleID)
}

func (o *Orchestrator) buyRebound(ctx context.Context, mint string) {
	balance, err := o.funds.BalanceLamports(ctx)
	if err != nil {
		o.logger.Printf("[orchestrator] balance query failed: %v", err)
		o.engine.Remove(mint)
		return
	}

	tc := o.sizer.Size(balance, domain.StageReboundEntry)
	res := o.trader.ExecuteBuy(ctx, mint, tc)
	observability.RecordTrade("buy", res.Success)
	if !res.Success {
		o.logger.Printf("[orchestrator] rebound buy failed for %s: %s", mint, res.Reason)
		o.engine.Remove(mint)
		return
	}
	o.logger.Printf("[orchestrator] rebound entry for %s (bundle %s)", mint, res.BundleID)
}
