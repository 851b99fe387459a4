package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultScoreTimeout bounds the external risk-score query. The scoring
// service is best effort; a slow answer is treated as no answer.
const DefaultScoreTimeout = 3 * time.Second

// ScoreClient queries an external token risk-scoring service.
type ScoreClient interface {
	// GetScore returns the service's risk score for a mint. Any error means
	// the score is inconclusive, never that the token is safe.
	GetScore(ctx context.Context, mint string) (float64, error)
}

// HTTPScoreClient queries a RugCheck-style report endpoint.
type HTTPScoreClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPScoreClient creates a score client for the given API base URL.
func NewHTTPScoreClient(baseURL string) *HTTPScoreClient {
	return &HTTPScoreClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultScoreTimeout},
	}
}

// GetScore fetches the summary report and extracts the risk score.
func (c *HTTPScoreClient) GetScore(ctx context.Context, mint string) (float64, error) {
	url := fmt.Sprintf("%s/%s/report/summary", c.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("score request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("score service status %d", resp.StatusCode)
	}

	var report struct {
		Score *float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return 0, fmt.Errorf("decode score report: %w", err)
	}
	if report.Score == nil {
		return 0, fmt.Errorf("score missing from report")
	}
	return *report.Score, nil
}

var _ ScoreClient = (*HTTPScoreClient)(nil)
