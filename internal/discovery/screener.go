// Package discovery finds newly launched pools and turns them into token
// signals for the trading core.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"titan-sniper/internal/domain"
)

// Poller defaults.
const (
	DefaultPollInterval  = 3 * time.Second
	DefaultMaxPoolAgeMin = 60
	DefaultMaxTracked    = 10_000
	DefaultFetchTimeout  = 5 * time.Second

	signalBuffer = 64
)

// Venues whose pools are worth sniping.
var defaultAllowedDexes = []string{"raydium", "pump-fun"}

// PollerConfig configures the new-pool screener.
type PollerConfig struct {
	BaseURL       string
	PollInterval  time.Duration
	MaxPoolAgeMin float64
	AllowedDexes  []string
	MaxTracked    int // dedup set bound
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxPoolAgeMin <= 0 {
		c.MaxPoolAgeMin = DefaultMaxPoolAgeMin
	}
	if len(c.AllowedDexes) == 0 {
		c.AllowedDexes = defaultAllowedDexes
	}
	if c.MaxTracked <= 0 {
		c.MaxTracked = DefaultMaxTracked
	}
	return c
}

// Poller scans a pool screener on an interval and emits deduplicated token
// signals. A Wake call pulls the next scan forward without waiting for the
// ticker.
type Poller struct {
	cfg      PollerConfig
	client   *http.Client
	logger   *log.Logger
	signals  chan domain.TokenSignal
	wake     chan struct{}
	scanning atomic.Bool

	seen      map[string]struct{}
	seenOrder []string
}

func NewPoller(cfg PollerConfig, logger *log.Logger) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		cfg:     cfg.withDefaults(),
		client:  &http.Client{Timeout: DefaultFetchTimeout},
		logger:  logger,
		signals: make(chan domain.TokenSignal, signalBuffer),
		wake:    make(chan struct{}, 1),
		seen:    make(map[string]struct{}),
	}
}

// Signals is the stream of newly discovered tokens.
func (p *Poller) Signals() <-chan domain.TokenSignal {
	return p.signals
}

// Wake requests an immediate scan. Safe to call from any goroutine;
// coalesces when a request is already pending.
func (p *Poller) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.logger.Printf("[discovery] polling %s every %s", p.cfg.BaseURL, p.cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.scan(ctx)
		case <-p.wake:
			p.scan(ctx)
		}
	}
}

// scan fetches the current new-pool list. A scan still in flight makes the
// next firing a no-op rather than queueing behind it.
func (p *Poller) scan(ctx context.Context) {
	if !p.scanning.CompareAndSwap(false, true) {
		return
	}
	defer p.scanning.Store(false)

	pools, err := p.fetchNewPools(ctx)
	if err != nil {
		p.logger.Printf("[discovery] scan failed: %v", err)
		return
	}

	now := time.Now()
	for i := range pools {
		signal, ok := p.evaluate(&pools[i], now)
		if !ok {
			continue
		}
		p.markSeen(signal.Mint)
		p.logger.Printf("[discovery] new token %s (%s) mc=$%.0f liq=$%.0f tx5m=%d age=%.1fm",
			signal.Name, signal.Mint, signal.MarketCapUSD, signal.LiquidityUSD, signal.TxCountM5, signal.PoolAgeMin)

		select {
		case p.signals <- signal:
		default:
			p.logger.Printf("[discovery] signal buffer full, dropped %s", signal.Mint)
		}
	}
}

func (p *Poller) fetchNewPools(ctx context.Context) ([]poolResource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build screener request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screener request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("screener request: status %d", resp.StatusCode)
	}

	var body poolsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode screener response: %w", err)
	}
	return body.Data, nil
}

// evaluate converts one loose screener entry into a strict signal, or
// rejects it. Rejection covers unknown venues, stale pools, repeats, and
// entries missing required fields.
func (p *Poller) evaluate(pool *poolResource, now time.Time) (domain.TokenSignal, bool) {
	dexID := pool.Relationships.Dex.Data.ID
	if !p.dexAllowed(dexID) {
		return domain.TokenSignal{}, false
	}

	mint := strings.TrimPrefix(pool.Relationships.BaseToken.Data.ID, "solana_")
	if mint == "" {
		return domain.TokenSignal{}, false
	}
	if _, dup := p.seen[mint]; dup {
		return domain.TokenSignal{}, false
	}

	createdAt, err := time.Parse(time.RFC3339, pool.Attributes.PoolCreatedAt)
	if err != nil {
		return domain.TokenSignal{}, false
	}
	ageMin := now.Sub(createdAt).Minutes()
	if ageMin < 0 || ageMin > p.cfg.MaxPoolAgeMin {
		return domain.TokenSignal{}, false
	}

	tx := pool.Attributes.Transactions.M5
	return domain.TokenSignal{
		Mint:         mint,
		Name:         pool.Attributes.Name,
		MarketCapUSD: parseUSD(pool.Attributes.FDVUSD),
		LiquidityUSD: parseUSD(pool.Attributes.ReserveInUSD),
		VolumeM5USD:  parseUSD(pool.Attributes.VolumeUSD.M5),
		TxCountM5:    tx.Buys + tx.Sells,
		PoolAgeMin:   ageMin,
	}, true
}

func (p *Poller) dexAllowed(id string) bool {
	for _, dex := range p.cfg.AllowedDexes {
		if id == dex {
			return true
		}
	}
	return false
}

// markSeen records a processed mint, evicting the oldest once the set is
// full so long runs stay bounded.
func (p *Poller) markSeen(mint string) {
	if len(p.seenOrder) >= p.cfg.MaxTracked {
		oldest := p.seenOrder[0]
		p.seenOrder = p.seenOrder[1:]
		delete(p.seen, oldest)
	}
	p.seen[mint] = struct{}{}
	p.seenOrder = append(p.seenOrder, mint)
}

// parseUSD parses a screener money field. The API reports them as strings;
// absent or junk values become zero and fail the financial checks later.
func parseUSD(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Screener response, JSON:API shaped. Only the fields the signal needs.
type poolsResponse struct {
	Data []poolResource `json:"data"`
}

type poolResource struct {
	Attributes struct {
		Name          string `json:"name"`
		PoolCreatedAt string `json:"pool_created_at"`
		FDVUSD        string `json:"fdv_usd"`
		ReserveInUSD  string `json:"reserve_in_usd"`
		VolumeUSD     struct {
			M5 string `json:"m5"`
		} `json:"volume_usd"`
		Transactions struct {
			M5 struct {
				Buys  int `json:"buys"`
				Sells int `json:"sells"`
			} `json:"m5"`
		} `json:"transactions"`
	} `json:"attributes"`

	Relationships struct {
		Dex struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"dex"`
		BaseToken struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"base_token"`
	} `json:"relationships"`
}
