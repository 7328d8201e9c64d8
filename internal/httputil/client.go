// Package httputil provides HTTP client and response helpers shared by the
// gateway's handlers and its JSON-RPC ledger transport.
package httputil

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

// =============================================================================
// JSON Client
// =============================================================================

// JSONClient posts JSON documents to a fixed base URL and decodes JSON replies.
// Gateway-level failures (502/503/504) and transport errors are retried unless
// MaxRetries is negative.
type JSONClient struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	backoff    time.Duration
}

// JSONClientConfig configures the client.
type JSONClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
}

// NewJSONClient creates a new JSON client.
func NewJSONClient(cfg JSONClientConfig) *JSONClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxRetries := cfg.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = 2
	case maxRetries < 0:
		maxRetries = 0
	}

	backoff := cfg.Backoff
	if backoff == 0 {
		backoff = 250 * time.Millisecond
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &JSONClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// BaseURL returns the configured base URL.
func (c *JSONClient) BaseURL() string { return c.baseURL }

// PostJSON marshals body, posts it to path and decodes the reply into target.
func (c *JSONClient) PostJSON(ctx context.Context, path string, body, target interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		resp, err := c.do(ctx, path, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}
		if isRetryableStatus(resp.StatusCode) {
			lastErr = drainStatusError(resp)
			continue
		}
		return DecodeResponse(resp, target)
	}
	return lastErr
}

func (c *JSONClient) do(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout
}

func drainStatusError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _, _ := ReadAllWithLimit(resp.Body, 4<<10)
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// DecodeResponse decodes a JSON response into the target struct.
func DecodeResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, truncated, err := ReadAllWithLimit(resp.Body, 64<<10)
		if err != nil {
			return fmt.Errorf("read error response body: %w", err)
		}
		msg := strings.TrimSpace(string(body))
		if truncated {
			msg += "...(truncated)"
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg)
	}

	if target == nil {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<20)); err != nil {
			return fmt.Errorf("discard response body: %w", err)
		}
		return nil
	}

	body, err := ReadAllStrict(resp.Body, 8<<20)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// ErrBodyTooLarge is returned by ReadAllStrict when the limit is exceeded.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// ReadAllWithLimit reads at most limit bytes and reports whether the body was longer.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}

// ReadAllStrict reads the body and fails if it is longer than limit.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	data, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}
