// Package oracle fetches batched token prices for position monitoring.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds one batched price fetch.
const DefaultTimeout = 5 * time.Second

// PriceSource fetches current prices for a batch of mints. Mints the source
// cannot resolve are simply absent from the result.
type PriceSource interface {
	FetchPrices(ctx context.Context, mints []string) (map[string]float64, error)
}

// Client talks to a Jupiter-compatible price API.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// FetchPrices resolves current prices for the given mints in one request.
func (c *Client) FetchPrices(ctx context.Context, mints []string) (map[string]float64, error) {
	if len(mints) == 0 {
		return map[string]float64{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(mints, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price request: status %d", resp.StatusCode)
	}

	var body struct {
		Data map[string]struct {
			// Quoted and bare numbers both appear in the wild.
			Price json.RawMessage `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode price response: %w", err)
	}

	prices := make(map[string]float64, len(body.Data))
	for mint, entry := range body.Data {
		raw := strings.Trim(string(entry.Price), `"`)
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			// Unresolvable mint, no update this tick.
			continue
		}
		prices[mint] = price
	}
	return prices, nil
}

var _ PriceSource = (*Client)(nil)
