// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/agentui/internal/config"
)

const (
	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize bounds non-streaming response bodies.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "agentui/0.1.0"
)

// sharedTransport pools connections for every client in the process.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// Error variables for common agent failures.
var (
	// ErrUnauthorized indicates the agent rejected the API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the agent asked us to slow down.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound indicates the endpoint does not exist on this agent.
	ErrNotFound = errors.New("endpoint not found")

	// ErrFileTooLarge indicates an upload exceeded the configured limit.
	ErrFileTooLarge = errors.New("file too large")
)

// APIError is a non-success HTTP response from the agent.
type APIError struct {
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration

	// err is the sentinel matching Status, if any
	err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agent error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("agent error (HTTP %d): %s", e.Status, e.Message)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *APIError) Unwrap() error {
	return e.err
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 && e.Status < 600
}

// apiErrorResponse is the JSON error body the agent may send.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the agent's HTTP endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	uploadMax  int64

	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger

	// backoff returns the delay before retry n (n >= 1)
	backoff func(attempt int) time.Duration
}

// NewClient creates a client from the agent section of the config.
func NewClient(cfg config.AgentConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
		burst = cfg.RequestsPerMinute
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: cfg.MaxRetries,
		uploadMax:  int64(cfg.UploadMaxMB) * 1024 * 1024,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   cfg.Timeout(),
		},
		// No timeout for streaming - controlled via context
		streamClient: &http.Client{Transport: sharedTransport},
		limiter:      rate.NewLimiter(limit, burst),
		logger:       logger.Named("agent"),
		backoff:      calculateBackoff,
	}
}

// BaseURL returns the agent base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks that the agent is reachable. Health is never retried.
func (c *Client) Health(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return err
	}
	resp, err := c.send(c.httpClient, req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp, body)
	}
	return nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newRequest builds a request against the agent with the standard headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// send performs one request and logs method, path and status. Headers and
// bodies are never logged.
func (c *Client) send(hc *http.Client, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug("agent request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, err
	}
	c.logger.Debug("agent response",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// doWithRetry sends the request built by build until it gets a 2xx response.
// Connection errors and 5xx responses are retried with exponential backoff;
// anything else is returned immediately. The caller owns the returned body.
func (c *Client) doWithRetry(ctx context.Context, hc *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.Info("retrying agent request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := c.send(hc, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, readErr := readResponse(resp)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		apiErr := handleErrorResponse(resp, body)
		if !apiErr.Temporary() {
			return nil, apiErr
		}
		lastErr = apiErr
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts an HTTP error response into an *APIError
// wrapping the sentinel for its status.
func handleErrorResponse(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Code = parsed.Error.Code
		apiErr.Message = parsed.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		apiErr.err = ErrUnauthorized
	case http.StatusNotFound:
		apiErr.err = ErrNotFound
	case http.StatusRequestEntityTooLarge:
		apiErr.err = ErrFileTooLarge
	case http.StatusTooManyRequests:
		apiErr.err = ErrRateLimited
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return apiErr
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// calculateBackoff returns the delay to wait before the next retry.
func calculateBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return retryMaxDelay
	}
	// Exponential backoff: 500ms, 1000ms, 2000ms, etc.
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
