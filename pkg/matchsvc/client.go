// Package matchsvc wraps the matching collaborator API that computes
// counselor affinity for a test-taker. This core consumes the candidate
// list read-only; the scoring algorithm lives entirely on the remote side.
package matchsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/orientavida/assess-cli/internal/fault"
	"github.com/orientavida/assess-cli/internal/model"
)

// Client defines the matching API operations used by this application.
type Client interface {
	Candidates(ctx context.Context, takerID string) ([]model.Candidate, error)
}

// ClientOption configures the matching client.
type ClientOption func(*httpClient)

// WithRateLimit overrides the default request rate (5 req/s).
func WithRateLimit(rps float64) ClientOption {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	key     string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a matching client for the given base URL and API key.
func NewClient(baseURL, key string, opts ...ClientOption) Client {
	c := &httpClient{
		baseURL: baseURL,
		key:     key,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

type candidatesResponse struct {
	Candidates []model.Candidate `json:"candidates"`
}

// Candidates fetches the ranked candidate list for a test-taker. Network
// failures and 5xx responses come back as transient; anything else the
// service refused is a plain error for the caller to surface.
func (c *httpClient) Candidates(ctx context.Context, takerID string) ([]model.Candidate, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "matchsvc: rate limit")
	}

	url := fmt.Sprintf("%s/takers/%s/candidates", c.baseURL, takerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "matchsvc: build request")
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(fault.NewTransient(err, 0), "matchsvc: list candidates")
	}
	defer resp.Body.Close()

	if fault.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, eris.Wrap(
			fault.NewTransient(fmt.Errorf("status %d", resp.StatusCode), resp.StatusCode),
			"matchsvc: list candidates")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("matchsvc: list candidates: status %d", resp.StatusCode)
	}

	var body candidatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "matchsvc: decode response")
	}
	return body.Candidates, nil
}
