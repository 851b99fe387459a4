package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"titan-sniper/internal/retry"
)

// rpcHandler builds a JSON-RPC handler that returns the given result per method.
func rpcHandler(t *testing.T, results map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		result, ok := results[req.Method]
		if !ok {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": json.RawMessage(result)}
		json.NewEncoder(w).Encode(resp)
	}
}

func fastClient(t *testing.T, endpoints ...string) *Client {
	t.Helper()
	c, err := NewClient(endpoints, WithRetryPolicy(retry.Fixed(3, time.Millisecond)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getBalance": `{"context":{"slot":100},"value":123456789}`,
	}))
	defer srv.Close()

	balance, err := fastClient(t, srv.URL).GetBalance(context.Background(), "SomePubkey")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 123456789 {
		t.Errorf("expected 123456789 lamports, got %d", balance)
	}
}

func TestGetMintAccount_AuthoritiesPresent(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":{"data":{"program":"spl-token","parsed":{"type":"mint","info":{"decimals":6,"supply":"1000000","mintAuthority":"AuthKey111","freezeAuthority":null}}}}}`,
	}))
	defer srv.Close()

	acct, err := fastClient(t, srv.URL).GetMintAccount(context.Background(), "Mint111")
	if err != nil {
		t.Fatalf("GetMintAccount: %v", err)
	}
	if acct == nil {
		t.Fatal("expected mint account, got nil")
	}
	if acct.MintAuthority == nil || *acct.MintAuthority != "AuthKey111" {
		t.Errorf("expected mint authority AuthKey111, got %v", acct.MintAuthority)
	}
	if acct.FreezeAuthority != nil {
		t.Errorf("expected nil freeze authority, got %v", *acct.FreezeAuthority)
	}
	if acct.Decimals != 6 {
		t.Errorf("expected 6 decimals, got %d", acct.Decimals)
	}
}

func TestGetMintAccount_NotFound(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":null}`,
	}))
	defer srv.Close()

	acct, err := fastClient(t, srv.URL).GetMintAccount(context.Background(), "Missing111")
	if err != nil {
		t.Fatalf("GetMintAccount: %v", err)
	}
	if acct != nil {
		t.Errorf("expected nil for missing account, got %+v", acct)
	}
}

func TestGetTokenHoldings(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getTokenAccountsByOwner": `{"context":{"slot":1},"value":[{"pubkey":"TokAcc1","account":{"data":{"parsed":{"info":{"mint":"Mint111","tokenAmount":{"amount":"42000000"}}}}}}]}`,
	}))
	defer srv.Close()

	holdings, err := fastClient(t, srv.URL).GetTokenHoldings(context.Background(), "Owner111", "Mint111")
	if err != nil {
		t.Fatalf("GetTokenHoldings: %v", err)
	}
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	if holdings[0].AmountRaw != 42000000 {
		t.Errorf("expected amount 42000000, got %d", holdings[0].AmountRaw)
	}
}

func TestTransientFailureRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		rpcHandler(t, map[string]string{"getBalance": `{"value":7}`})(w, r)
	}))
	defer srv.Close()

	balance, err := fastClient(t, srv.URL).GetBalance(context.Background(), "Pubkey")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if balance != 7 {
		t.Errorf("expected 7, got %d", balance)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestEndpointRotationOnFailure(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(rpcHandler(t, map[string]string{"getBalance": `{"value":55}`}))
	defer good.Close()

	c := fastClient(t, bad.URL, good.URL)
	balance, err := c.GetBalance(context.Background(), "Pubkey")
	if err != nil {
		t.Fatalf("expected rotation to second endpoint, got %v", err)
	}
	if balance != 55 {
		t.Errorf("expected 55, got %d", balance)
	}
	if c.Endpoint() != good.URL {
		t.Errorf("expected active endpoint %s, got %s", good.URL, c.Endpoint())
	}
}

func TestRPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`))
	}))
	defer srv.Close()

	_, err := fastClient(t, srv.URL).GetBalance(context.Background(), "Pubkey")
	if err == nil {
		t.Fatal("expected RPC error")
	}
	if calls.Load() != 1 {
		t.Errorf("RPC protocol error should not be retried, got %d attempts", calls.Load())
	}
}

func TestGetLatestBlockhash(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getLatestBlockhash": `{"context":{"slot":1},"value":{"blockhash":"9sHcv6xwn9YEMsPW5rTErYejCGHJq1kjVkSJSRk6JCrK","lastValidBlockHeight":300}}`,
	}))
	defer srv.Close()

	bh, err := fastClient(t, srv.URL).GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if bh != "9sHcv6xwn9YEMsPW5rTErYejCGHJq1kjVkSJSRk6JCrK" {
		t.Errorf("unexpected blockhash %q", bh)
	}
}
