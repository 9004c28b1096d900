package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SerperClient calls the Serper search API.
type SerperClient struct {
	client  *resty.Client
	baseURL string
	country string
	locale  string
	retry   RetryPolicy
}

// SerperConfig holds configuration for the Serper client.
type SerperConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Country    string
	Locale     string
}

// NewSerperClient creates a new Serper search client.
// Parameters:
//   - cfg: API key, endpoint, timeout and retry configuration.
// Returns:
//   - *SerperClient: initialized client.
func NewSerperClient(cfg *SerperConfig) *SerperClient {
	client := resty.New()
	client.SetHeader("X-API-KEY", cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	} else {
		client.SetTimeout(15 * time.Second)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://google.serper.dev"
	}

	return &SerperClient{
		client:  client,
		baseURL: baseURL,
		country: cfg.Country,
		locale:  cfg.Locale,
		retry:   DefaultRetryPolicy(cfg.MaxRetries),
	}
}

type serperRequest struct {
	Query   string `json:"q"`
	Num     int    `json:"num"`
	Locale  string `json:"hl,omitempty"`
	Country string `json:"gl,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
}

// Search executes one web search and returns the organic results in API
// order. Network faults, 429 and 5xx responses are retried with backoff up
// to the configured attempt ceiling before the error is surfaced.
// Parameters:
//   - ctx: bounds the whole call including retries.
//   - query: search query string.
//   - count: requested result count per query.
// Returns:
//   - []SearchItem: organic results, possibly empty.
//   - error: non-nil if all attempts fail.
func (c *SerperClient) Search(ctx context.Context, query string, count int) ([]SearchItem, error) {
	req := serperRequest{
		Query:   query,
		Num:     count,
		Locale:  c.locale,
		Country: c.country,
	}

	var resp serperResponse
	err := c.retry.Do(ctx, func() error {
		httpResp, err := c.client.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&resp).
			Post(c.baseURL + "/search")
		if err != nil {
			return Transient(fmt.Errorf("serper request failed: %w", err))
		}

		code := httpResp.StatusCode()
		switch {
		case code >= 200 && code < 300:
			return nil
		case code == 429 || code >= 500:
			return Transient(fmt.Errorf("serper API status %d", code))
		default:
			return fmt.Errorf("serper API status %d: %s", code, string(httpResp.Body()))
		}
	})
	if err != nil {
		return nil, err
	}

	items := make([]SearchItem, 0, len(resp.Organic))
	for _, o := range resp.Organic {
		items = append(items, SearchItem{Title: o.Title, Snippet: o.Snippet, Link: o.Link})
	}
	return items, nil
}
