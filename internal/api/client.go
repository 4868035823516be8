package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the platform API root.
const DefaultBaseURL = "https://www.quantconnect.com/api/v2"

const (
	maxGetRetries = 3
	retryDelay    = time.Second
)

// Client is a thin HTTP wrapper around the platform API. Idempotent GET
// calls are retried a bounded number of times with doubling backoff; writes
// are surfaced on first failure to avoid duplicate side effects.
type Client struct {
	BaseURL    string
	UserID     string
	APIToken   string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

// NewClient creates a Client authenticated with the given credentials.
func NewClient(userID, apiToken string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		UserID:     userID,
		APIToken:   apiToken,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

// get performs a GET-style request with retry, decoding the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out any) error {
	var lastErr error
	delay := retryDelay
	for attempt := 0; attempt < maxGetRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		lastErr = c.do(ctx, http.MethodGet, endpoint, params, nil, out)
		if lastErr == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && !apiErr.Retryable() {
			return lastErr
		}
		if errors.Is(lastErr, ErrNotFound) || ctx.Err() != nil {
			return lastErr
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxGetRetries, lastErr)
}

// post performs a write request. Never retried.
func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, params map[string]string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.UserID, c.APIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if params != nil {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, endpoint, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}

	// The platform wraps every payload in a success envelope.
	if env, ok := out.(envelope); ok && !env.ok() {
		return &APIError{Status: resp.StatusCode, Message: env.firstError()}
	}
	return nil
}

// envelope is implemented by response types carrying the platform's
// success/errors wrapper.
type envelope interface {
	ok() bool
	firstError() string
}

type responseEnvelope struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

func (r *responseEnvelope) ok() bool { return r.Success }

func (r *responseEnvelope) firstError() string {
	if len(r.Errors) == 0 {
		return "request was not successful"
	}
	return r.Errors[0]
}
