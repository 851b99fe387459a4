package executor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titan-sniper/internal/domain"
	"titan-sniper/internal/solana"
)

type fakeBlockhashes struct {
	hash string
	err  error
}

func (f *fakeBlockhashes) GetLatestBlockhash(ctx context.Context) (string, error) {
	return f.hash, f.err
}

type fakeQuoter struct {
	quote    *Quote
	quoteErr error
	tx       []byte
	buildErr error
}

func (f *fakeQuoter) GetQuote(ctx context.Context, in, out string, amount uint64, bps int) (*Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeQuoter) BuildSwapTransaction(ctx context.Context, q *Quote, user string) ([]byte, error) {
	return f.tx, f.buildErr
}

type fakeRelay struct {
	bundleID string
	err      error
	bundles  [][][]byte
}

func (f *fakeRelay) SubmitBundle(ctx context.Context, txs [][]byte) (string, error) {
	f.bundles = append(f.bundles, txs)
	return f.bundleID, f.err
}

func quietLogger() *log.Logger {
	return log.New(&nopWriter{}, "", 0)
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func unsignedSwapTx(t *testing.T, signer *testSigner) []byte {
	t.Helper()
	msg, err := BuildLegacyMessage(signer.PublicKey(), randomKey(t), []Instruction{
		NewComputeUnitLimitInstruction(400_000),
	})
	require.NoError(t, err)
	tx := appendCompactU16(nil, 1)
	tx = append(tx, make([]byte, 64)...)
	return append(tx, msg...)
}

func TestExecuteBuySubmitsBundle(t *testing.T) {
	signer := newTestSigner(t)
	relay := &fakeRelay{bundleID: "bundle-1"}
	ex := New(signer,
		&fakeQuoter{quote: &Quote{OutAmount: "1000"}, tx: unsignedSwapTx(t, signer)},
		relay,
		&fakeBlockhashes{hash: randomKey(t)},
		100_000, quietLogger())

	res := ex.ExecuteBuy(context.Background(), randomKey(t), domain.TradeConfiguration{
		Stage:             domain.StageInitialLaunch,
		EntrySizeLamports: 50_000_000,
		SlippageBps:       2000,
	})

	require.True(t, res.Success)
	assert.Equal(t, "bundle-1", res.BundleID)
	assert.Equal(t, domain.ExecOK, res.Reason)

	require.Len(t, relay.bundles, 1)
	// Swap transaction first, tip payment second.
	require.Len(t, relay.bundles[0], 2)
}

func TestExecuteBuyNoRoute(t *testing.T) {
	signer := newTestSigner(t)
	relay := &fakeRelay{}
	ex := New(signer, &fakeQuoter{quote: nil}, relay,
		&fakeBlockhashes{hash: randomKey(t)}, 100_000, quietLogger())

	res := ex.ExecuteBuy(context.Background(), randomKey(t), domain.TradeConfiguration{EntrySizeLamports: 1})

	assert.False(t, res.Success)
	assert.Equal(t, domain.ExecNoRoute, res.Reason)
	assert.Empty(t, relay.bundles, "unroutable trade must never reach the relay")
}

func TestExecuteSellRateLimited(t *testing.T) {
	signer := newTestSigner(t)
	ex := New(signer,
		&fakeQuoter{quote: &Quote{OutAmount: "5"}, tx: unsignedSwapTx(t, signer)},
		&fakeRelay{err: ErrRateLimited},
		&fakeBlockhashes{hash: randomKey(t)},
		100_000, quietLogger())

	res := ex.ExecuteSell(context.Background(), randomKey(t), 42, 2000)

	assert.False(t, res.Success)
	assert.Equal(t, domain.ExecRateLimited, res.Reason)
}

func TestExecuteCurveBuy(t *testing.T) {
	signer := newTestSigner(t)
	relay := &fakeRelay{bundleID: "bundle-2"}
	ex := New(signer, &fakeQuoter{}, relay,
		&fakeBlockhashes{hash: randomKey(t)}, 100_000, quietLogger())

	res := ex.ExecuteCurveBuy(context.Background(), CurveBuyParams{
		Program:          randomKey(t),
		Accounts:         []AccountMeta{{PubKey: randomKey(t), Writable: true}},
		TokenReserve:     1_000_000_000,
		CurrencyReserve:  30_000_000,
		AmountLamports:   1_000_000,
		ComputeUnitLimit: 120_000,
		ComputeUnitPrice: 25_000,
	})

	require.True(t, res.Success)
	assert.Equal(t, "bundle-2", res.BundleID)
	require.Len(t, relay.bundles, 1)
	require.Len(t, relay.bundles[0], 2)
}

func TestHTTPQuoterGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "1000000", r.URL.Query().Get("amount"))
		assert.Equal(t, "2000", r.URL.Query().Get("slippageBps"))
		json.NewEncoder(w).Encode(map[string]any{
			"inputMint":  solana.WSOLMint,
			"outputMint": "mint",
			"inAmount":   "1000000",
			"outAmount":  "32258064",
		})
	}))
	defer srv.Close()

	q := NewHTTPQuoter(srv.URL)
	quote, err := q.GetQuote(context.Background(), solana.WSOLMint, "mint", 1_000_000, 2000)
	require.NoError(t, err)
	require.NotNil(t, quote)

	out, err := quote.OutAmountRaw()
	require.NoError(t, err)
	assert.Equal(t, uint64(32258064), out)
}

func TestHTTPQuoterNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no route"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	quote, err := NewHTTPQuoter(srv.URL).GetQuote(context.Background(), "a", "b", 1, 100)
	require.NoError(t, err)
	assert.Nil(t, quote)
}

func TestHTTPQuoterBuildSwapTransaction(t *testing.T) {
	wantTx := []byte{1, 2, 3, 4}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/swap", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-key", body["userPublicKey"])
		json.NewEncoder(w).Encode(map[string]string{
			"swapTransaction": base64.StdEncoding.EncodeToString(wantTx),
		})
	}))
	defer srv.Close()

	quote := &Quote{OutAmount: "1", Raw: json.RawMessage(`{"outAmount":"1"}`)}
	tx, err := NewHTTPQuoter(srv.URL).BuildSwapTransaction(context.Background(), quote, "user-key")
	require.NoError(t, err)
	assert.Equal(t, wantTx, tx)
}

func TestHTTPRelaySubmitBundle(t *testing.T) {
	var gotTxs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string  `json:"method"`
			Params [][]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "sendBundle", req.Method)
		for _, p := range req.Params[0] {
			gotTxs = append(gotTxs, p.(string))
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": "bundle-xyz"})
	}))
	defer srv.Close()

	relay, err := NewHTTPRelay([]string{srv.URL})
	require.NoError(t, err)

	id, err := relay.SubmitBundle(context.Background(), [][]byte{{0xAA}, {0xBB}})
	require.NoError(t, err)
	assert.Equal(t, "bundle-xyz", id)

	require.Len(t, gotTxs, 2)
	assert.Equal(t, base58.Encode([]byte{0xAA}), gotTxs[0])
}

func TestHTTPRelayRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	relay, err := NewHTTPRelay([]string{srv.URL})
	require.NoError(t, err)

	_, err = relay.SubmitBundle(context.Background(), [][]byte{{1}})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestHTTPRelayRotatesEndpoints(t *testing.T) {
	var hits [2]int
	mk := func(i int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits[i]++
			json.NewEncoder(w).Encode(map[string]any{"result": "ok"})
		}))
	}
	a, b := mk(0), mk(1)
	defer a.Close()
	defer b.Close()

	relay, err := NewHTTPRelay([]string{a.URL, b.URL})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := relay.SubmitBundle(context.Background(), [][]byte{{1}})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, hits[0])
	assert.Equal(t, 2, hits[1])
}

func TestHTTPRelayRejectsEmptyEndpoints(t *testing.T) {
	_, err := NewHTTPRelay(nil)
	require.Error(t, err)
}
