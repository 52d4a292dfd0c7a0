// Package remote is the single outbound path to the memory service. Every
// call carries a per-attempt timeout and retries allow-listed transient
// failures with jittered exponential backoff.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const maxResponseBytes = 4 << 20

// Tier is a timeout and retry budget.
type Tier struct {
	Name string
	// Timeout bounds each attempt, not the whole call.
	Timeout   time.Duration
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// HookTier keeps worst-case latency well under the host's hook deadline.
func HookTier() Tier {
	return Tier{Name: "hook", Timeout: 4 * time.Second, Retries: 2, BaseDelay: 200 * time.Millisecond, MaxDelay: time.Second}
}

// InteractiveTier is for commands a person runs directly.
func InteractiveTier() Tier {
	return Tier{Name: "interactive", Timeout: 15 * time.Second, Retries: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// Client talks to the memory service.
type Client struct {
	baseURL string
	apiKey  string
	tier    Tier
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger routes retry notices to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a client for baseURL authenticated with apiKey.
func New(baseURL, apiKey string, tier Tier, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		tier:    tier,
		http:    &http.Client{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tier returns the budget this client was built with.
func (c *Client) Tier() Tier { return c.tier }

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.tier.BaseDelay
	b.MaxInterval = c.tier.MaxDelay
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.Reset()

	retries := c.tier.Retries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// do sends one logical request. The request id is shared by every attempt.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	target, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return fmt.Errorf("build %s url: %w", endpoint, err)
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
	}

	requestID := uuid.NewString()
	attempt := 0
	operation := func() error {
		attempt++
		err := c.attempt(ctx, method, target, endpoint, requestID, payload, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !Retryable(apiErr.Status) {
			return backoff.Permanent(err)
		}
		var decodeErr *decodeError
		if errors.As(err, &decodeErr) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrying memory service call",
			"endpoint", endpoint, "attempt", attempt, "wait", wait, "request_id", requestID, "error", err)
	}
	return backoff.RetryNotify(operation, c.newBackOff(ctx), notify)
}

type decodeError struct {
	endpoint string
	err      error
}

func (e *decodeError) Error() string { return fmt.Sprintf("decode %s response: %v", e.endpoint, e.err) }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) attempt(ctx context.Context, method, target, endpoint, requestID string, payload []byte, out any) error {
	actx, cancel := context.WithTimeout(ctx, c.tier.Timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(actx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "memhook")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("memory service %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &decodeError{endpoint: endpoint, err: err}
	}
	return nil
}

// errorMessage pulls a human message out of an error body, if there is one.
func errorMessage(data []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Detail  string          `json:"detail"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	if len(body.Error) > 0 {
		var s string
		if json.Unmarshal(body.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Detail
}
