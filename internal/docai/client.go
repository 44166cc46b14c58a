package docai

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

	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/docai/internal/version"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Regions served by the hosted API.
var Regions = []string{"us", "eu", "ca", "au", "japan"}

// RegionURL returns the API base URL for a hosted region.
func RegionURL(region string) string {
	return fmt.Sprintf("https://%s.app.zuva.ai/api/v2", region)
}

// APIError is returned for responses outside the 2xx range.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: API error (status %d): %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Body))
}

// Temporary reports whether retrying the call may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the document AI REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries sets how many attempts are made for retryable failures.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client for baseURL authenticating with token.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL not set")
	}
	if token == "" {
		return nil, fmt.Errorf("API token not set")
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		log:        quiet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and returns the body of a 2xx response. A 429 is
// retried for every method. Transport errors and 5xx responses are retried
// only for idempotent methods, since the server may already have acted on a
// POST that failed that way.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	idempotent := method != http.MethodPost && method != http.MethodPatch
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", version.UserAgent())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		log := c.log.WithFields(logrus.Fields{"method": method, "path": path, "attempt": attempt + 1})

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !idempotent {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			log.WithError(err).Warn("request failed")
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.WithError(err).Warn("failed to read response")
			lastErr = err
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Body: string(respBody)}
			if !apiErr.Temporary() || (!idempotent && resp.StatusCode != http.StatusTooManyRequests) {
				return nil, apiErr
			}
			log.WithField("status", resp.StatusCode).Warn("retryable response")
			lastErr = apiErr
			continue
		}

		log.WithField("status", resp.StatusCode).Debug("request complete")
		return respBody, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doJSON sends in (if non-nil) as JSON and decodes the response into out
// (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	contentType := ""
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		contentType = "application/json"
	}

	respBody, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}
