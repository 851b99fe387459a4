package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultQuoteTimeout bounds a single aggregator round trip.
const DefaultQuoteTimeout = 5 * time.Second

// Quote is a priced swap route returned by the aggregator.
type Quote struct {
	InputMint  string          `json:"inputMint"`
	OutputMint string          `json:"outputMint"`
	InAmount   string          `json:"inAmount"`
	OutAmount  string          `json:"outAmount"`
	Raw        json.RawMessage `json:"-"`
}

// OutAmountRaw parses the quoted output amount.
func (q *Quote) OutAmountRaw() (uint64, error) {
	return strconv.ParseUint(q.OutAmount, 10, 64)
}

// Quoter prices swaps and builds the serialized swap transaction.
type Quoter interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amountRaw uint64, slippageBps int) (*Quote, error)
	BuildSwapTransaction(ctx context.Context, quote *Quote, userPubKey string) ([]byte, error)
}

// HTTPQuoter talks to a Jupiter-compatible swap API.
type HTTPQuoter struct {
	baseURL string
	client  *http.Client
}

func NewHTTPQuoter(baseURL string) *HTTPQuoter {
	return &HTTPQuoter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultQuoteTimeout},
	}
}

// GetQuote fetches the best route for the pair. A nil quote with nil error
// means no route exists for the requested size.
func (q *HTTPQuoter) GetQuote(ctx context.Context, inputMint, outputMint string, amountRaw uint64, slippageBps int) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(amountRaw, 10))
	params.Set("slippageBps", strconv.Itoa(slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		// The aggregator reports unroutable pairs as client errors.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request: status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}

	var quote Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	if quote.OutAmount == "" {
		return nil, nil
	}
	quote.Raw = raw
	return &quote, nil
}

// BuildSwapTransaction asks the aggregator to assemble the swap and returns
// the serialized, unsigned transaction bytes.
func (q *HTTPQuoter) BuildSwapTransaction(ctx context.Context, quote *Quote, userPubKey string) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"quoteResponse":    quote.Raw,
		"userPublicKey":    userPubKey,
		"wrapAndUnwrapSol": true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("swap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("swap request: status %d", resp.StatusCode)
	}

	var body struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}
	if body.SwapTransaction == "" {
		return nil, fmt.Errorf("swap response missing transaction")
	}

	txBytes, err := base64.StdEncoding.DecodeString(body.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("decode swap transaction: %w", err)
	}
	return txBytes, nil
}

var _ Quoter = (*HTTPQuoter)(nil)
