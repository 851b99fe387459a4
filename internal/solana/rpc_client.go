package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"titan-sniper/internal/retry"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// Client is a Solana JSON-RPC 2.0 client over a pool of HTTP endpoints.
// Transport failures rotate to the next endpoint; a retry policy bounds the
// total attempts. RPC protocol errors are never retried.
type Client struct {
	endpoints []string
	current   atomic.Uint32
	client    *http.Client
	policy    retry.Policy
	requestID atomic.Uint64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithRetryPolicy replaces the default retry schedule.
func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates an RPC client over one or more endpoints.
func NewClient(endpoints []string, opts ...ClientOption) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured")
	}
	c := &Client{
		endpoints: endpoints,
		client:    &http.Client{Timeout: DefaultTimeout},
		policy:    retry.Exponential(DefaultMaxRetries+1, DefaultRetryDelay, DefaultMaxDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the currently active endpoint.
func (c *Client) Endpoint() string {
	return c.endpoints[c.current.Load()%uint32(len(c.endpoints))]
}

// rotate advances to the next endpoint in the pool.
func (c *Client) rotate() {
	if len(c.endpoints) > 1 {
		c.current.Add(1)
	}
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call. Transport-level failures rotate the endpoint
// and count against the retry policy; protocol errors abort immediately.
func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return c.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			c.rotate()
			return fmt.Errorf("http request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			c.rotate()
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			c.rotate()
			return fmt.Errorf("rate limited (429)")
		}

		if resp.StatusCode != http.StatusOK {
			c.rotate()
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}

		if rpcResp.Error != nil {
			return retry.Permanent(rpcResp.Error)
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return retry.Permanent(fmt.Errorf("unmarshal result: %w", err))
			}
		}

		return nil
	})
}

// GetMintAccount decodes a token mint account via jsonParsed encoding.
// Returns nil when the account does not exist or is not a token mint.
func (c *Client) GetMintAccount(ctx context.Context, mint string) (*MintAccount, error) {
	params := []interface{}{
		mint,
		map[string]interface{}{"encoding": "jsonParsed"},
	}

	var result getAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}
	parsed := result.Value.Data.Parsed
	if parsed == nil || parsed.Type != "mint" {
		return nil, nil
	}

	return &MintAccount{
		Program:         result.Value.Data.Program,
		MintAuthority:   parsed.Info.MintAuthority,
		FreezeAuthority: parsed.Info.FreezeAuthority,
		Decimals:        parsed.Info.Decimals,
		Supply:          parsed.Info.Supply,
	}, nil
}

type getAccountInfoResult struct {
	Value *accountInfoValue `json:"value"`
}

type accountInfoValue struct {
	Data accountData `json:"data"`
}

type accountData struct {
	Program string         `json:"program"`
	Parsed  *parsedAccount `json:"parsed"`
}

type parsedAccount struct {
	Type string         `json:"type"`
	Info parsedMintInfo `json:"info"`
}

type parsedMintInfo struct {
	MintAuthority   *string `json:"mintAuthority"`
	FreezeAuthority *string `json:"freezeAuthority"`
	Decimals        int     `json:"decimals"`
	Supply          string  `json:"supply"`
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []interface{}{pubkey}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetTokenHoldings returns the owner's token accounts holding the given mint.
func (c *Client) GetTokenHoldings(ctx context.Context, owner, mint string) ([]TokenHolding, error) {
	params := []interface{}{
		owner,
		map[string]interface{}{"mint": mint},
		map[string]interface{}{"encoding": "jsonParsed"},
	}

	var result getTokenAccountsResult
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	holdings := make([]TokenHolding, 0, len(result.Value))
	for _, v := range result.Value {
		info := v.Account.Data.Parsed.Info
		amount, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse token amount %q: %w", info.TokenAmount.Amount, err)
		}
		holdings = append(holdings, TokenHolding{
			Account:   v.Pubkey,
			Mint:      info.Mint,
			AmountRaw: amount,
		})
	}
	return holdings, nil
}

type getTokenAccountsResult struct {
	Value []tokenAccountEntry `json:"value"`
}

type tokenAccountEntry struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data struct {
			Parsed struct {
				Info struct {
					Mint        string `json:"mint"`
					TokenAmount struct {
						Amount string `json:"amount"`
					} `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"account"`
}

// GetLatestBlockhash returns a recent blockhash for transaction assembly.
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	params := []interface{}{
		map[string]interface{}{"commitment": "finalized"},
	}
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return "", err
	}
	if result.Value.Blockhash == "" {
		return "", fmt.Errorf("empty blockhash in response")
	}
	return result.Value.Blockhash, nil
}

// Interface guards.
var (
	_ AccountReader     = (*Client)(nil)
	_ BalanceReader     = (*Client)(nil)
	_ BlockhashProvider = (*Client)(nil)
)
