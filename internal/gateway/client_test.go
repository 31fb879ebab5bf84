package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/paymentcore/internal/gateway/circuitbreaker"
	"github.com/yourorg/paymentcore/internal/trace"
)

func newTestClient(t *testing.T, server *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = server.URL
	cfg.HTTPClient = server.Client()
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestNew_BaseURLByMode(t *testing.T) {
	test, err := New(Config{Mode: ModeTest})
	require.NoError(t, err)
	assert.Equal(t, TestBaseURL, test.BaseURL())

	prod, err := New(Config{Mode: ModeProduction, PayeeID: "p"})
	require.NoError(t, err)
	assert.Equal(t, ProductionBaseURL, prod.BaseURL())
	assert.Equal(t, "p", prod.PayeeID())

	_, err = New(Config{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestSend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/psp/creditcard/payments", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "trace-123", r.Header.Get("Request-Id"))

		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "Purchase", got["payment"].(map[string]any)["operation"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"payment":{"id":"/psp/creditcard/payments/1"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, Config{AccessToken: "secret"})
	ctx := trace.With(context.Background(), trace.Context{TraceID: "trace-123", SpanID: "span"})

	resp, err := c.Send(ctx, http.MethodPost, "/psp/creditcard/payments", map[string]any{
		"payment": map[string]any{"operation": "Purchase"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"payment":{"id":"/psp/creditcard/payments/1"}}`, string(resp.Body))
}

func TestSend_AbsoluteHrefUsesConfiguredHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/psp/creditcard/payments/abc/captures", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, Config{})
	_, err := c.Send(context.Background(), http.MethodPost, "https://api.payex.com/psp/creditcard/payments/abc/captures", map[string]any{})
	require.NoError(t, err)
}

func TestSend_StatusErrorWithProblem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{
			"type": "https://api.payex.com/psp/errordetail/inputerror",
			"title": "Error in input data",
			"status": 400,
			"detail": "Input validation failed, error description in problems node!",
			"problems": [{"name": "Payment.Prices", "description": "required"}]
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, Config{})
	_, err := c.Send(context.Background(), http.MethodPost, "/psp/swish/payments", map[string]any{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "Error in input data", se.Problem.Title)
	assert.Contains(t, se.Message(), "Input validation failed")
	assert.Contains(t, se.Message(), "Payment.Prices: required")
}

func TestSend_StatusErrorWithoutProblemBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Unauthorized"))
	}))
	defer server.Close()

	c := newTestClient(t, server, Config{})
	_, err := c.Send(context.Background(), http.MethodPost, "/psp/creditcard/payments", map[string]any{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Unauthorized", se.Message())
}

func TestSend_RetriesOnlyGet(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.Method == http.MethodGet && n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"payment":{}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, Config{RetryAttempts: 2, Breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{FailureThreshold: 10})})

	resp, err := c.Send(context.Background(), http.MethodGet, "/psp/creditcard/payments/1", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, 0)
	_, err = c.Send(context.Background(), http.MethodPost, "/psp/creditcard/payments", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "POST must not be retried")
}

func TestSend_CircuitOpens(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{FailureThreshold: 2, ResetTimeout: time.Hour})
	c := newTestClient(t, server, Config{RetryAttempts: -1, Breaker: cb})

	for i := 0; i < 2; i++ {
		_, err := c.Send(context.Background(), http.MethodPost, "/psp/creditcard/payments", map[string]any{})
		require.Error(t, err)
	}
	_, err := c.Send(context.Background(), http.MethodPost, "/psp/creditcard/payments", map[string]any{})
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSend_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, server, Config{RetryAttempts: -1})
	server.Close()

	_, err := c.Send(context.Background(), http.MethodPost, "/psp/creditcard/payments", map[string]any{})
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestSend_EncodingError(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), http.MethodPost, "/x", map[string]any{"f": func() {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding payload")
}

func TestSend_EmptyPath(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	_, err = c.Send(context.Background(), http.MethodGet, "", nil)
	require.Error(t, err)
}

func TestSend_CallerDeadlineDoesNotOpenCircuit(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		case <-time.After(200 * time.Millisecond):
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"payment":{}}`))
	}))
	defer server.Close()
	defer close(release)

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{FailureThreshold: 2, ResetTimeout: time.Hour})
	c := newTestClient(t, server, Config{Breaker: cb})

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		_, err := c.Send(ctx, http.MethodPost, "/psp/creditcard/payments", map[string]any{})
		cancel()
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	resp, err := c.Send(context.Background(), http.MethodPost, "/psp/creditcard/payments", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestSend_CancelledBeforeRetryIsNotAFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{FailureThreshold: 1, ResetTimeout: time.Hour})
	c := newTestClient(t, server, Config{RetryAttempts: 5, RetryDelay: time.Hour, Breaker: cb})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Send(ctx, http.MethodGet, "/psp/creditcard/payments/1", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = c.Send(context.Background(), http.MethodPost, "/psp/creditcard/payments", map[string]any{})
	var se *StatusError
	require.ErrorAs(t, err, &se, "the circuit must still be closed")
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestNew_RetryBudget(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		want     int
	}{
		{"zero disables", 0, 0},
		{"negative disables", -3, 0},
		{"positive kept", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Config{RetryAttempts: tt.attempts})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.retryAttempts)
		})
	}
}

func TestSend_ZeroRetriesSendsGetOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server, Config{RetryAttempts: 0})
	_, err := c.Send(context.Background(), http.MethodGet, "/psp/creditcard/payments/1", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
