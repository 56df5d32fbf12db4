package postgrest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/edgeflare/pgrest/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

var schemeRe = regexp.MustCompile(`^https?://`)

// Client holds the connection configuration for one PostgREST endpoint: the
// normalized base URL and the shared HTTP client every bound resource issues
// its requests through. Construct with NewClient; the base URL is immutable
// afterwards.
type Client struct {
	baseURL string
	httpc   *http.Client
	headers map[string]string
	logger  *zap.Logger
	related map[string]*Client
	metrics bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, e.g. to set a timeout or
// a custom transport. The client is shared by all resources bound to this
// connection; thread safety is whatever net/http provides.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithLogger sets the logger used to report failed requests.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHeader adds a header to every outgoing request, e.g. an Authorization
// token for a PostgREST deployment behind an auth proxy.
func WithHeader(name, value string) Option {
	return func(c *Client) { c.headers[name] = value }
}

// WithMetrics enables Prometheus instrumentation of outgoing requests.
func WithMetrics() Option {
	return func(c *Client) { c.metrics = true }
}

// NewClient builds a client for the given connection URL. A URL without a
// scheme gets "http://" prepended; any path or query components are dropped
// so the result is always scheme://host[:port].
func NewClient(connURL string, opts ...Option) (*Client, error) {
	if !schemeRe.MatchString(connURL) {
		connURL = "http://" + connURL
	}
	parsed, err := url.Parse(connURL)
	if err != nil {
		return nil, fmt.Errorf("invalid connection URL %q: %w", connURL, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid connection URL %q: no host", connURL)
	}

	c := &Client{
		baseURL: parsed.Scheme + "://" + parsed.Host,
		httpc:   &http.Client{},
		headers: make(map[string]string),
		logger:  zap.NewNop(),
		related: make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized connection URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Bind attaches a resource binding to this client. Every record produced by
// the returned resource resolves to {base}/{table}.
func (c *Client) Bind(b Binding) *Resource {
	if len(b.Key) == 0 {
		b.Key = []string{"id"}
	}
	return &Resource{client: c, Binding: b}
}

// AddRelated registers a sibling client under a name, for callers traversing
// independently hosted PostgREST schemas. The registry is a flat map; no
// request routing happens across it.
func (c *Client) AddRelated(name string, related *Client) {
	c.related[name] = related
}

// Related looks up a previously registered sibling client.
func (c *Client) Related(name string) (*Client, bool) {
	related, ok := c.related[name]
	return related, ok
}

// do issues a single blocking request and returns the response body. Any
// non-2xx status is logged and returned as *APIError; there is no retry.
func (c *Client) do(ctx context.Context, method, rawURL string, table string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	req.Header.Set(requestIDHeader, uuid.New().String())
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.metrics {
		metrics.ObserveRequest(method, table, resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
		c.logger.Error("request rejected",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return nil, apiErr
	}

	return respBody, nil
}
