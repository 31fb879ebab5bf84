// Package gateway is the HTTP transport to the payment gateway API.
// It owns authentication, serialization, bounded retries and the circuit
// breaker; callers only see a RawResponse or an error.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yourorg/paymentcore/internal/gateway/circuitbreaker"
	"github.com/yourorg/paymentcore/internal/trace"
)

const (
	TestBaseURL       = "https://api.externalintegration.payex.com"
	ProductionBaseURL = "https://api.payex.com"

	// DefaultRetryAttempts is the retry budget the engine starts from.
	DefaultRetryAttempts = 2

	defaultRetryDelay = 500 * time.Millisecond
	defaultTimeout    = 30 * time.Second
)

// ErrCircuitOpen is returned without sending when the host's circuit is open.
var ErrCircuitOpen = errors.New("gateway: circuit open")

// Mode selects the gateway environment.
type Mode int

const (
	ModeTest Mode = iota
	ModeProduction
)

// Config for New. AccessToken and PayeeID may be empty; the gateway will
// then reject calls with 401.
type Config struct {
	AccessToken string
	PayeeID     string
	Mode        Mode
	// BaseURL overrides the environment picked by Mode.
	BaseURL    string
	HTTPClient *http.Client
	// RetryAttempts is the number of extra attempts for GET requests. Zero
	// or negative disables retries.
	RetryAttempts int
	RetryDelay    time.Duration
	Breaker       *circuitbreaker.CircuitBreaker
}

// RawResponse is a 2xx gateway answer.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client sends JSON requests to the gateway.
type Client struct {
	httpClient    *http.Client
	baseURL       *url.URL
	accessToken   string
	payeeID       string
	retryAttempts int
	retryDelay    time.Duration
	breaker       *circuitbreaker.CircuitBreaker
}

func New(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = TestBaseURL
		if cfg.Mode == ModeProduction {
			base = ProductionBaseURL
		}
	}
	parsed, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: invalid base url %q: %w", base, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("gateway: base url %q must be absolute", base)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	retries := max(cfg.RetryAttempts, 0)
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{})
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       parsed,
		accessToken:   cfg.AccessToken,
		payeeID:       cfg.PayeeID,
		retryAttempts: retries,
		retryDelay:    delay,
		breaker:       breaker,
	}, nil
}

// PayeeID returns the payee the client was created for.
func (c *Client) PayeeID() string { return c.payeeID }

// BaseURL returns the gateway root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Send issues one request. payload is JSON encoded unless nil. A non-2xx
// answer is returned as *StatusError. Only GET requests are retried since
// payment creation is not idempotent.
func (c *Client) Send(ctx context.Context, method, path string, payload any) (*RawResponse, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var body []byte
	if payload != nil {
		body, err = sonic.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("gateway: encoding payload: %w", err)
		}
	}

	host := c.baseURL.Host
	if !c.breaker.AllowRequest(host) {
		return nil, fmt.Errorf("%w for %s", ErrCircuitOpen, host)
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retryAttempts
	}

	var (
		resp    *RawResponse
		lastErr error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		resp, lastErr = c.do(ctx, method, target, body)
		if lastErr != nil {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if !retryable(resp.StatusCode) {
			break
		}
	}

	if lastErr != nil {
		// The caller gave up; the gateway did not fail.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("gateway: %s %s: %w", method, target, ctxErr)
		}
		c.breaker.RecordFailure(host)
		return nil, fmt.Errorf("gateway: %s %s: %w", method, target, lastErr)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.RecordFailure(host)
	} else {
		c.breaker.RecordSuccess(host)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (*RawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc, ok := trace.From(ctx); ok {
		req.Header.Set("Request-Id", tc.TraceID)
		req.Header.Set("Session-Id", tc.SpanID)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &RawResponse{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

// resolve turns a relative path or an href returned by the gateway into a URL
// on the configured base. Hrefs keep their path and query only.
func (c *Client) resolve(path string) (string, error) {
	if path == "" {
		return "", errors.New("gateway: empty request path")
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("gateway: invalid path %q: %w", path, err)
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
