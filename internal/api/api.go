package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"broksum/internal/interfaces"
	"broksum/internal/logger"
)

// FetchError reports a request that did not produce a usable body: a
// transport failure (StatusCode 0) or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client represents an HTTP client with common configuration and utilities
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	retry      RetryConfig
	useLogging bool
	sleep      func(ctx context.Context, d time.Duration) error
}

var _ interfaces.Fetcher = (*Client)(nil)

// logDebug logs debug messages using the global logger
func (c *Client) logDebug(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Debug(ctx, msg, args...)
	}
}

// logWarn logs warning messages using the global logger
func (c *Client) logWarn(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Warn(ctx, msg, args...)
	}
}

// logError logs error messages using the global logger
func (c *Client) logError(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Error(ctx, msg, args...)
	}
}

// ClientOption configures the API client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader sets a default header for all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHeaders sets several default headers at once
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithRetry sets how many attempts Fetch makes and the fixed wait between them
func WithRetry(attempts int, wait time.Duration) ClientOption {
	return func(c *Client) {
		c.retry = RetryConfig{MaxAttempts: attempts, Wait: wait}
	}
}

// WithLogging enables logging for the API client
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new API client with the given options
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers:    BrowserHeaders(),
		retry:      RetryConfig{MaxAttempts: 1},
		useLogging: false, // Default: logging disabled for performance
		sleep:      sleepContext,
	}

	// Apply options
	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Get executes a single GET request. Any status outside 2xx is a FetchError.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logError(ctx, "Failed to create HTTP request", "error", err)
		return nil, &FetchError{URL: url, Err: err}
	}

	// Set default headers
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	// Log request
	c.logDebug(ctx, "HTTP Request", "method", http.MethodGet, "url", url)

	// Execute request
	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logError(ctx, "HTTP request failed", "url", url, "error", err)
		return nil, &FetchError{URL: url, Err: err}
	}
	defer httpResp.Body.Close()

	// Read response body
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.logError(ctx, "Failed to read response body", "error", err)
		return nil, &FetchError{URL: url, StatusCode: httpResp.StatusCode, Err: err}
	}

	// Log response
	c.logDebug(ctx, "HTTP Response",
		"url", url,
		"status", httpResp.StatusCode,
		"duration", time.Since(startTime),
		"bodySize", len(body))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		c.logWarn(ctx, "HTTP error response",
			"url", url,
			"status", httpResp.StatusCode)
		return nil, &FetchError{
			URL:        url,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", httpResp.Status),
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

// Fetch returns the body of url, retrying per the client's RetryConfig.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.GetWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// BrowserHeaders returns common browser headers to mimic a real browser request
func BrowserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "text/html, application/json, */*",
		"Accept-Language": "en-US,en;q=0.9,id;q=0.8",
	}
}

// RetryConfig configures retry behavior. Wait is fixed between attempts.
type RetryConfig struct {
	MaxAttempts int
	Wait        time.Duration
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetWithRetry executes a GET with retry logic. Cancellation of ctx is
// never retried.
func (c *Client) GetWithRetry(ctx context.Context, url string) (*Response, error) {
	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		c.logDebug(ctx, "Request attempt", "attempt", attempt, "maxAttempts", attempts)

		resp, err := c.Get(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, err
		}

		// Don't wait after the last attempt
		if attempt < attempts {
			c.logWarn(ctx, "Request failed, retrying", "attempt", attempt, "error", err, "waitTime", c.retry.Wait)
			if serr := c.sleep(ctx, c.retry.Wait); serr != nil {
				return nil, lastErr
			}
		}
	}

	if attempts > 1 {
		c.logError(ctx, "All retry attempts failed", "maxAttempts", attempts, "error", lastErr)
	}
	return nil, lastErr
}
