package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Tavily API endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// Topics accepted by Tavily.
const (
	TopicGeneral = "general"
	TopicNews    = "news"
	TopicFinance = "finance"
)

// ErrMissingAPIKey is returned when the client has no API key.
var ErrMissingAPIKey = errors.New("tavily: API key is missing")

// Request is a Tavily search request.
type Request struct {
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results,omitempty"`
	Topic             string `json:"topic,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client

	// InitialBackoff is the first wait after an HTTP 429. It doubles on every
	// further 429 up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// MaxRetries bounds the number of 429 retries. 0 disables retries.
	MaxRetries int
}

// Client calls the Tavily search API.
type Client struct {
	apiKey string
	opts   Options
}

// NewClient constructs a Tavily client.
func NewClient(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:        DefaultBaseURL,
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		MaxRetries:     5,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Client{apiKey: apiKey, opts: opts}
}

// Search posts a query to Tavily and returns the decoded JSON body.
func (c *Client) Search(ctx context.Context, req Request) (map[string]any, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var resp *http.Response

	delay := c.opts.InitialBackoff
	for attempt := 0; ; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err = c.opts.HTTPClient.Do(httpReq)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.opts.MaxRetries {
			break
		}

		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		if delay < c.opts.MaxBackoff {
			delay = min(delay*2, c.opts.MaxBackoff)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("tavily http %d: %s", resp.StatusCode, msg)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	return out, nil
}
