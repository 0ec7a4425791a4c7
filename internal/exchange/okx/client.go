package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"okx-trader/internal/exchange"
	"okx-trader/internal/metrics"
)

const DefaultMaxAttempts = 3

type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}

// String keeps credentials out of log lines and %v output.
func (c Credentials) String() string {
	return "okx.Credentials{redacted}"
}

type EndpointConfig struct {
	BaseURL   string
	APIPrefix string
	Timeout   time.Duration
	Sandbox   bool
}

// OKX API Response envelope
type Response struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	creds       Credentials
	endpoint    EndpointConfig
	httpClient  *http.Client
	maxAttempts int
	retryable   func(error) bool
	sleep       func(time.Duration)
	now         func() time.Time
	log         zerolog.Logger
}

// Option configures Client construction parameters.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryable decides whether a failed attempt is retried. The default retries everything.
func WithRetryable(fn func(error) bool) Option {
	return func(c *Client) {
		if fn != nil {
			c.retryable = fn
		}
	}
}

func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(c *Client) {
		if fn != nil {
			c.now = fn
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(creds Credentials, endpoint EndpointConfig, opts ...Option) *Client {
	if endpoint.Timeout <= 0 {
		endpoint.Timeout = 10 * time.Second
	}
	c := &Client{
		creds:       creds,
		endpoint:    endpoint,
		maxAttempts: DefaultMaxAttempts,
		retryable:   AlwaysRetry,
		sleep:       time.Sleep,
		now:         time.Now,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: endpoint.Timeout}
	}
	return c
}

var _ exchange.Exchange = (*Client)(nil)

// Backoff returns the delay before retrying after the given zero-based attempt: 1s, 2s, 4s...
func Backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// Do issues one signed request with up to maxAttempts attempts. The caller's
// cancellation does not abort an in-flight call; each attempt is bounded by the
// configured timeout instead.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("okx: couldn't encode body for %s %s: %w", method, endpoint, err)
	}
	path := c.endpoint.APIPrefix + endpoint
	ctx = context.WithoutCancel(ctx)

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		resp, err := c.attempt(ctx, method, path, payload)
		if err == nil {
			metrics.RequestsTotal.WithLabelValues(method, metricPath(endpoint), "ok").Inc()
			return resp, nil
		}
		lastErr = err
		if attempt == c.maxAttempts-1 || !c.retryable(err) {
			break
		}
		wait := Backoff(attempt)
		c.log.Warn().Err(err).
			Str("method", method).
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Msg("okx request failed, retrying")
		metrics.RetriesTotal.WithLabelValues(method, metricPath(endpoint)).Inc()
		c.sleep(wait)
	}

	metrics.RequestsTotal.WithLabelValues(method, metricPath(endpoint), "failed").Inc()
	return nil, &RequestFailedError{Method: method, Endpoint: endpoint, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.endpoint.Timeout)
	defer cancel()

	var reader io.Reader
	if len(payload) > 0 {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}

	ts := Timestamp(c.now())
	req.Header.Set("OK-ACCESS-KEY", c.creds.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", Sign(c.creds.SecretKey, ts, method, path, string(payload)))
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.creds.Passphrase)
	req.Header.Set("Content-Type", "application/json")
	if c.endpoint.Sandbox {
		req.Header.Set("x-simulated-trading", "1")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(b)
	}
}

// metricPath strips the query string so label cardinality stays bounded.
func metricPath(endpoint string) string {
	path, _, _ := strings.Cut(endpoint, "?")
	return path
}
