// Package search calls the hosted shopping search agent, the external
// collaborator that turns a product query into a free-text price report.
// The call is slow (tens of seconds) and non-deterministic; callers treat a
// failure as one failed tick, not a fatal condition.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/paihanhuang/shopping-agent/internal/logger"
)

// Config holds the agent endpoint settings.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
}

// Client is an HTTP client for the search agent.
type Client struct {
	cfg    Config
	client *resty.Client
}

// NewClient creates a search client for the configured agent endpoint.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = 2 * time.Second
	}
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetBaseURL(cfg.BaseURL)
	return &Client{cfg: cfg, client: client}
}

type searchRequest struct {
	Query  string `json:"query"`
	Prompt string `json:"prompt"`
}

type searchResponse struct {
	Report string `json:"report"`
	Error  string `json:"error,omitempty"`
}

// Search asks the agent for a price report on the product query. Transient
// failures are retried with linear backoff up to MaxRetries extra attempts;
// ctx cancellation cuts both the in-flight request and the backoff sleep.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	body := searchRequest{
		Query:  fmt.Sprintf(queryTemplate, query),
		Prompt: systemPrompt,
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.cfg.RetryDelayBase * time.Duration(attempt)):
			}
			logger.Debug("retrying search for %q (attempt %d/%d)", query, attempt+1, c.cfg.MaxRetries+1)
		}
		report, err := c.doSearch(ctx, body)
		if err == nil {
			return report, nil
		}
		lastErr = err
		logger.Warn("search attempt %d failed for %q: %v", attempt+1, query, err)
	}
	return "", fmt.Errorf("search failed for %q: %w", query, lastErr)
}

func (c *Client) doSearch(ctx context.Context, body searchRequest) (string, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(body)
	if c.cfg.APIKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := req.Post("/v1/search")
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode())
	}

	var out searchResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("search agent error: %s", out.Error)
	}
	if out.Report == "" {
		return "", errors.New("search agent returned an empty report")
	}
	return out.Report, nil
}
