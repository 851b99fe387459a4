package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"titan-sniper/internal/config"
	"titan-sniper/internal/discovery"
	"titan-sniper/internal/executor"
	"titan-sniper/internal/observability"
	"titan-sniper/internal/oracle"
	"titan-sniper/internal/orchestrator"
	"titan-sniper/internal/position"
	"titan-sniper/internal/safety"
	"titan-sniper/internal/sizing"
	"titan-sniper/internal/solana"
	"titan-sniper/internal/wallet"
)

func main() {
	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Configuration error: %v", err)
	}

	rpc, err := solana.NewClient(cfg.RPCEndpoints)
	if err != nil {
		logger.Fatalf("RPC client: %v", err)
	}

	// No trading is possible without the signing key: abort immediately.
	w, err := wallet.Load(cfg.PrivateKey, rpc)
	if err != nil {
		logger.Fatalf("Wallet: %v", err)
	}
	logger.Printf("Wallet loaded: %s", w.PublicKey())

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	validator := safety.NewValidator(safety.Config{
		MinLiquidityUSD:  cfg.MinLiquidityUSD,
		MinMarketCapUSD:  cfg.MinMarketCapUSD,
		MinTxCountM5:     cfg.MinTxCountM5,
		MinMomentumRatio: cfg.MinMomentumRatio,
		MaxRiskScore:     cfg.MaxRiskScore,
	}, safety.NewHTTPScoreClient(cfg.ScoreAPIURL), rpc, logger)

	sizer := sizing.New(sizing.Config{
		EntryPct:          cfg.EntryPct,
		MinEntryLamports:  cfg.MinEntryLamports,
		SlippageBps:       cfg.SlippageBps,
		InitialStopPct:    cfg.InitialStopPct,
		ReboundStopPct:    cfg.ReboundStopPct,
		PartialTakeProfit: cfg.PartialTakeProfit,
	})

	relay, err := executor.NewHTTPRelay(cfg.RelayEndpoints)
	if err != nil {
		logger.Fatalf("Relay: %v", err)
	}
	trader := executor.New(w, executor.NewHTTPQuoter(cfg.QuoteAPIURL), relay, rpc, cfg.TipLamports, logger)

	engine := position.NewEngine(position.Config{
		InitialStopPct:    cfg.InitialStopPct,
		TrailingStopPct:   cfg.TrailingStopPct,
		ReboundStopPct:    cfg.ReboundStopPct,
		PartialTakeProfit: cfg.PartialTakeProfit,
		ReboundEnabled:    cfg.ReboundEnabled,
		MaxOpenPositions:  cfg.MaxOpenPositions,
		MaxHold:           cfg.MaxHoldDuration(),
	}, logger)

	poller := discovery.NewPoller(discovery.PollerConfig{
		BaseURL:       cfg.ScreenerAPIURL,
		PollInterval:  cfg.SignalPollInterval,
		MaxPoolAgeMin: cfg.MaxPoolAgeMin,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("Discovery poller stopped: %v", err)
		}
	}()

	// The log watcher is optional: without a WebSocket endpoint the
	// screener poll interval bounds discovery latency on its own.
	if cfg.WSEndpoint != "" {
		stream := solana.NewLogStream(cfg.WSEndpoint, solana.LogsFilter{
			Mentions: []string{discovery.RaydiumAMMProgram},
		}, nil, logger)
		go func() {
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("Log stream stopped: %v", err)
			}
		}()
		watcher := discovery.NewLogWatcher(stream.Notifications(), poller, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("Log watcher stopped: %v", err)
			}
		}()
	}

	orch := orchestrator.New(orchestrator.Config{
		PriceCheckInterval: cfg.PriceCheckInterval,
		SlippageBps:        cfg.SlippageBps,
	}, poller.Signals(), validator, sizer, trader, engine, oracle.NewClient(cfg.PriceAPIURL), w, logger)

	err = orch.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Orchestrator error: %v", err)
	}
	logger.Println("Shutdown complete")
}
