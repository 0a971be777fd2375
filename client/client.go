// Package client talks to the planning service: it checks its health,
// submits conversation histories and decodes the NDJSON progress stream.
package client

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

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/stream"
)

// DefaultBaseURL is the planning service address used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

// ErrUnavailable is returned when the service cannot be reached.
var ErrUnavailable = errors.New("could not connect to backend server")

// StatusError is returned for non-200 responses to a plan request.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("API Error: %d - %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Options configures a Client.
type Options struct {
	// HTTPClient is used for plan requests. It should not set a timeout since
	// plan streams are long lived.
	HTTPClient *http.Client

	// HealthTimeout bounds a health check.
	HealthTimeout time.Duration
}

// Client is a planning service client.
type Client struct {
	baseURL string
	opts    Options
}

// New creates a client for the service at baseURL.
func New(baseURL string, optFns ...func(o *Options)) *Client {
	opts := Options{
		HTTPClient:    &http.Client{},
		HealthTimeout: 1500 * time.Millisecond,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{baseURL: strings.TrimRight(baseURL, "/"), opts: opts}
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.baseURL }

// HealthState classifies a health check result.
type HealthState int

const (
	// Online means /health answered 200.
	Online HealthState = iota
	// Degraded means /health answered with another status.
	Degraded
	// Offline means the service could not be reached.
	Offline
)

// Health is the result of a health check.
type Health struct {
	State      HealthState
	StatusCode int
}

func (h Health) String() string {
	switch h.State {
	case Online:
		return "Online"
	case Degraded:
		return fmt.Sprintf("%d", h.StatusCode)
	default:
		return "Offline"
	}
}

// Health probes GET /health with a short timeout. It never fails; an
// unreachable service is reported as Offline.
func (c *Client) Health(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, c.opts.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return Health{State: Offline}
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return Health{State: Offline}
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusOK {
		return Health{State: Online, StatusCode: resp.StatusCode}
	}

	return Health{State: Degraded, StatusCode: resp.StatusCode}
}

type planRequest struct {
	Messages []core.Message `json:"messages"`
}

// Plan submits the full history to POST /plan and calls fn for every
// decoded stream event. Malformed lines are skipped. A non-nil error from fn
// stops reading and is returned.
func (c *Client) Plan(ctx context.Context, history []core.Message, fn func(stream.Event) error) error {
	body, err := json.Marshal(planRequest{Messages: history})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/plan", bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", stream.ContentType)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	dec := stream.NewDecoder(resp.Body)
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read plan stream: %w", err)
		}

		if err := fn(ev); err != nil {
			return err
		}
	}
}
