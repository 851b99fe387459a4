package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mr-tron/base58"
)

// DefaultRelayTimeout bounds a single bundle submission.
const DefaultRelayTimeout = 5 * time.Second

// ErrRateLimited is returned when the relay rejects a submission with a
// 429. Callers treat it as a distinct failure class from outright
// rejection.
var ErrRateLimited = errors.New("relay rate limited")

// Relay submits atomic transaction bundles to a block-priority relay.
type Relay interface {
	SubmitBundle(ctx context.Context, txs [][]byte) (string, error)
}

// HTTPRelay rotates bundle submissions across a set of relay endpoints.
type HTTPRelay struct {
	endpoints []string
	current   atomic.Uint32
	client    *http.Client
	requestID atomic.Uint64
}

func NewHTTPRelay(endpoints []string) (*HTTPRelay, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one relay endpoint required")
	}
	return &HTTPRelay{
		endpoints: endpoints,
		client:    &http.Client{Timeout: DefaultRelayTimeout},
	}, nil
}

// SubmitBundle sends the signed transactions as one atomic bundle and
// returns the relay's bundle ID. Each call uses the next endpoint in
// round-robin order.
func (r *HTTPRelay) SubmitBundle(ctx context.Context, txs [][]byte) (string, error) {
	encoded := make([]string, len(txs))
	for i, tx := range txs {
		encoded[i] = base58.Encode(tx)
	}

	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      r.requestID.Add(1),
		"method":  "sendBundle",
		"params":  []any{encoded},
	})
	if err != nil {
		return "", fmt.Errorf("encode bundle: %w", err)
	}

	endpoint := r.endpoints[int(r.current.Add(1)-1)%len(r.endpoints)]

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build bundle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit bundle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit bundle: status %d", resp.StatusCode)
	}

	var body struct {
		Result string `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode bundle response: %w", err)
	}
	if body.Error != nil {
		return "", fmt.Errorf("relay error %d: %s", body.Error.Code, body.Error.Message)
	}
	return body.Result, nil
}

var _ Relay = (*HTTPRelay)(nil)
