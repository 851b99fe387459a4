package discovery

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"titan-sniper/internal/domain"
	"titan-sniper/internal/solana"
)

func testLogger() *log.Logger {
	return log.New(nullWriter{}, "", 0)
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func poolJSON(mint, dex string, createdAt time.Time) string {
	return fmt.Sprintf(`{
		"attributes": {
			"name": "TEST / SOL",
			"pool_created_at": %q,
			"fdv_usd": "12000",
			"reserve_in_usd": "3500",
			"volume_usd": {"m5": "900"},
			"transactions": {"m5": {"buys": 7, "sells": 3}}
		},
		"relationships": {
			"dex": {"data": {"id": %q}},
			"base_token": {"data": {"id": "solana_%s"}}
		}
	}`, createdAt.Format(time.RFC3339), dex, mint)
}

func drain(t *testing.T, ch <-chan domain.TokenSignal) []domain.TokenSignal {
	t.Helper()
	var out []domain.TokenSignal
	for {
		select {
		case s := <-ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestScanEmitsValidatedSignal(t *testing.T) {
	created := time.Now().Add(-10 * time.Minute)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[%s]}`, poolJSON("MintAAAA", "raydium", created))
	}))
	defer srv.Close()

	p := NewPoller(PollerConfig{BaseURL: srv.URL}, testLogger())
	p.scan(context.Background())

	signals := drain(t, p.Signals())
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	s := signals[0]
	if s.Mint != "MintAAAA" || s.Name != "TEST / SOL" {
		t.Fatalf("unexpected identity %+v", s)
	}
	if s.MarketCapUSD != 12000 || s.LiquidityUSD != 3500 || s.VolumeM5USD != 900 {
		t.Fatalf("unexpected financials %+v", s)
	}
	if s.TxCountM5 != 10 {
		t.Fatalf("expected 10 transactions, got %d", s.TxCountM5)
	}
	if s.PoolAgeMin < 9 || s.PoolAgeMin > 11 {
		t.Fatalf("unexpected age %v", s.PoolAgeMin)
	}
}

func TestScanDeduplicatesAcrossScans(t *testing.T) {
	created := time.Now().Add(-5 * time.Minute)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[%s]}`, poolJSON("MintAAAA", "raydium", created))
	}))
	defer srv.Close()

	p := NewPoller(PollerConfig{BaseURL: srv.URL}, testLogger())
	p.scan(context.Background())
	p.scan(context.Background())

	if signals := drain(t, p.Signals()); len(signals) != 1 {
		t.Fatalf("expected dedup to 1 signal, got %d", len(signals))
	}
}

func TestScanFiltersVenueAndAge(t *testing.T) {
	now := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[%s,%s,%s]}`,
			poolJSON("orcaMint", "orca", now.Add(-5*time.Minute)),
			poolJSON("staleMint", "raydium", now.Add(-3*time.Hour)),
			poolJSON("freshMint", "pump-fun", now.Add(-5*time.Minute)))
	}))
	defer srv.Close()

	p := NewPoller(PollerConfig{BaseURL: srv.URL}, testLogger())
	p.scan(context.Background())

	signals := drain(t, p.Signals())
	if len(signals) != 1 || signals[0].Mint != "freshMint" {
		t.Fatalf("expected only freshMint, got %+v", signals)
	}
}

func TestScanRejectsMalformedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing base token, junk timestamp, junk money fields.
		fmt.Fprint(w, `{"data":[
			{"attributes":{"pool_created_at":"yesterday"},"relationships":{"dex":{"data":{"id":"raydium"}},"base_token":{"data":{"id":"solana_X"}}}},
			{"attributes":{"pool_created_at":"`+time.Now().Format(time.RFC3339)+`"},"relationships":{"dex":{"data":{"id":"raydium"}},"base_token":{"data":{"id":""}}}}
		]}`)
	}))
	defer srv.Close()

	p := NewPoller(PollerConfig{BaseURL: srv.URL}, testLogger())
	p.scan(context.Background())

	if signals := drain(t, p.Signals()); len(signals) != 0 {
		t.Fatalf("expected no signals, got %+v", signals)
	}
}

func TestScanSurvivesServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewPoller(PollerConfig{BaseURL: srv.URL}, testLogger())
	p.scan(context.Background())

	if signals := drain(t, p.Signals()); len(signals) != 0 {
		t.Fatalf("expected no signals, got %+v", signals)
	}
}

func TestSeenSetBounded(t *testing.T) {
	p := NewPoller(PollerConfig{BaseURL: "http://unused", MaxTracked: 3}, testLogger())
	for i := 0; i < 5; i++ {
		p.markSeen(fmt.Sprintf("mint%d", i))
	}

	if len(p.seen) != 3 {
		t.Fatalf("expected 3 tracked mints, got %d", len(p.seen))
	}
	if _, ok := p.seen["mint0"]; ok {
		t.Fatal("oldest mint should be evicted")
	}
	if _, ok := p.seen["mint4"]; !ok {
		t.Fatal("newest mint should be tracked")
	}
}

func TestWakeCoalesces(t *testing.T) {
	p := NewPoller(PollerConfig{BaseURL: "http://unused"}, testLogger())
	p.Wake()
	p.Wake()
	p.Wake()

	select {
	case <-p.wake:
	default:
		t.Fatal("expected one pending wake")
	}
	select {
	case <-p.wake:
		t.Fatal("wake requests must coalesce")
	default:
	}
}

type recordingWaker struct {
	calls chan struct{}
}

func (r *recordingWaker) Wake() { r.calls <- struct{}{} }

func TestLogWatcherWakesOnPoolInit(t *testing.T) {
	notes := make(chan solana.LogNotification, 3)
	waker := &recordingWaker{calls: make(chan struct{}, 3)}
	w := NewLogWatcher(notes, waker, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	notes <- solana.LogNotification{Signature: "sigFail", Err: "failed", Logs: []string{"initialize2"}}
	notes <- solana.LogNotification{Signature: "sigSwap", Logs: []string{"Program log: ray_log swap"}}
	notes <- solana.LogNotification{Signature: "sigInit", Logs: []string{
		"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 invoke [1]",
		"Program log: initialize2: InitializeInstruction2 { nonce: 254, init_pc_amount: 1000 }",
	}}

	select {
	case <-waker.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a wake for the pool init tx")
	}
	select {
	case <-waker.calls:
		t.Fatal("failed and swap txs must not wake the scanner")
	default:
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("unexpected run error: %v", err)
	}
}
