// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	// Discovery metrics
	SignalsReceived prometheus.Counter
	SignalsAccepted prometheus.Counter
	SignalsRejected *prometheus.CounterVec

	// Execution metrics
	TradesExecuted   *prometheus.CounterVec
	BundlesSubmitted *prometheus.CounterVec

	// Position metrics
	OpenPositions prometheus.Gauge
	PartialExits  prometheus.Counter
	StopOuts      prometheus.Counter
	ReboundBuys   prometheus.Counter

	// Cycle metrics
	PriceCyclesSkipped prometheus.Counter
	PriceUpdates       prometheus.Counter
	PriceFetchLatency  prometheus.Histogram
	RPCCallLatency     *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sniper"
	}

	return &Metrics{
		SignalsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "signals_received_total",
			Help:      "Total number of token signals delivered by discovery",
		}),
		SignalsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "safety",
			Name:      "signals_accepted_total",
			Help:      "Total number of signals that passed validation",
		}),
		SignalsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "safety",
			Name:      "signals_rejected_total",
			Help:      "Total number of signals rejected by reason class",
		}, []string{"reason"}),

		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "trades_executed_total",
			Help:      "Total number of trade executions by side and status",
		}, []string{"side", "status"}),
		BundlesSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "bundles_submitted_total",
			Help:      "Total number of relay bundle submissions by status",
		}, []string{"status"}),

		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "open",
			Help:      "Current number of tracked positions",
		}),
		PartialExits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "partial_exits_total",
			Help:      "Total number of partial take-profit exits",
		}),
		StopOuts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "stop_outs_total",
			Help:      "Total number of stop-loss exits",
		}),
		ReboundBuys: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "rebound_buys_total",
			Help:      "Total number of rebound re-entries",
		}),

		PriceCyclesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycles",
			Name:      "price_cycles_skipped_total",
			Help:      "Price cycles skipped because the previous cycle was still running",
		}),
		PriceUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycles",
			Name:      "price_updates_total",
			Help:      "Total number of price ticks fed to the state machine",
		}),
		PriceFetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cycles",
			Name:      "price_fetch_latency_seconds",
			Help:      "Batched price fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSignalReceived increments the signals received counter.
func RecordSignalReceived() {
	DefaultMetrics.SignalsReceived.Inc()
}

// RecordVerdict records a validation outcome by reason class.
func RecordVerdict(safe bool, reason string) {
	if safe {
		DefaultMetrics.SignalsAccepted.Inc()
		return
	}
	DefaultMetrics.SignalsRejected.WithLabelValues(reason).Inc()
}

// RecordTrade records a trade execution outcome.
func RecordTrade(side string, success bool) {
	status := "ok"
	if !success {
		status = "failed"
	}
	DefaultMetrics.TradesExecuted.WithLabelValues(side, status).Inc()
}

// RecordBundle records a relay submission outcome.
func RecordBundle(status string) {
	DefaultMetrics.BundlesSubmitted.WithLabelValues(status).Inc()
}

// SetOpenPositions updates the open position gauge.
func SetOpenPositions(n int) {
	DefaultMetrics.OpenPositions.Set(float64(n))
}

// RecordAction counts state machine actions that move money.
func RecordAction(action string) {
	switch action {
	case "SELL_PARTIAL":
		DefaultMetrics.PartialExits.Inc()
	case "SELL_EXIT":
		DefaultMetrics.StopOuts.Inc()
	case "BUY_REBOUND":
		DefaultMetrics.ReboundBuys.Inc()
	}
}
