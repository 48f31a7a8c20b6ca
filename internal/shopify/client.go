// Package shopify talks to the remote article store: a Shopify-style
// admin API with bearer-token auth, cursor-paginated listings and a
// request-rate ceiling. The interesting part is paginate.go, which
// reconstructs a complete article set from an endpoint that has no
// "fetch everything" primitive.
package shopify

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

	"golang.org/x/time/rate"
)

const (
	// apiVersion pins the admin API version in every request path.
	apiVersion = "2024-01"
	// MaxPageSize is the largest page the listing endpoints serve.
	MaxPageSize = 250
	// defaultRequestInterval spaces consecutive remote requests.
	defaultRequestInterval = 400 * time.Millisecond
)

// RemoteFetchError is a non-success response from a read endpoint. The
// body is preserved verbatim for diagnostics.
type RemoteFetchError struct {
	Status int
	Body   string
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("remote fetch failed: status %d: %s", e.Status, e.Body)
}

// RemoteWriteError is a non-success response from a write endpoint.
type RemoteWriteError struct {
	Status int
	Body   string
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write failed: status %d: %s", e.Status, e.Body)
}

// IsNetworkError reports whether err is a transport-level failure rather
// than an HTTP response the store actually produced. Only network
// failures are worth retrying with backoff; a 4xx/5xx body is surfaced
// to the caller as-is.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var fetchErr *RemoteFetchError
	var writeErr *RemoteWriteError
	if errors.As(err, &fetchErr) || errors.As(err, &writeErr) {
		return false
	}
	return true
}

// Client is a rate-limited HTTP client for one store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	log        *slog.Logger
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestInterval overrides the minimum spacing between requests.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client for the given store. The access token is attached
// to every request; the store URL is normalized to an https base.
func New(storeURL, accessToken string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    NormalizeStoreURL(storeURL),
		token:      accessToken,
		limiter:    rate.NewLimiter(rate.Every(defaultRequestInterval), 1),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeStoreURL forces an https scheme and strips any trailing slash.
func NormalizeStoreURL(storeURL string) string {
	storeURL = strings.TrimSpace(storeURL)
	if storeURL == "" {
		return storeURL
	}
	if !strings.HasPrefix(storeURL, "https://") && !strings.HasPrefix(storeURL, "http://") {
		storeURL = "https://" + storeURL
	}
	return strings.TrimRight(storeURL, "/")
}

// apiURL builds an admin API URL for the given resource path.
func (c *Client) apiURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL, apiVersion, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get performs a rate-limited GET and decodes the JSON response into out.
// Non-200 responses become RemoteFetchError.
func (c *Client) get(ctx context.Context, rawURL string, out any) (http.Header, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, out, http.StatusOK, false)
}

// do performs one rate-limited request. The limiter wait is a
// cooperative pause: it blocks this call only and honors cancellation.
func (c *Client) do(ctx context.Context, method, rawURL string, body any, out any, wantStatus int, write bool) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", rawURL, err)
	}

	if resp.StatusCode != wantStatus {
		if write {
			return nil, &RemoteWriteError{Status: resp.StatusCode, Body: string(respBody)}
		}
		return nil, &RemoteFetchError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
		}
	}
	return resp.Header, nil
}
