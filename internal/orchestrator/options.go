package orchestrator

import (
	"net/http"
	"time"

	"github.com/yourorg/paymentcore/internal/dispatcher"
	"github.com/yourorg/paymentcore/internal/gateway/circuitbreaker"
	"github.com/yourorg/paymentcore/internal/policy"
	"github.com/yourorg/paymentcore/internal/txstore"
)

type options struct {
	httpClient    *http.Client
	baseURL       string
	retryAttempts int
	retryDelay    time.Duration
	breaker       *circuitbreaker.CircuitBreaker
	transport     dispatcher.Transport
	store         txstore.Store
	recorder      dispatcher.Recorder
	validator     dispatcher.Validator
	noValidation  bool
	rules         []policy.TransitionRule
}

// Option configures New.
type Option func(*options)

// WithHTTPClient sets the client used to reach the gateway.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBaseURL overrides the gateway environment picked by the mode setting.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithRetry sets how often a payment lookup is retried on 429, 5xx or a
// network error. Zero disables retries. Writes are never retried.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryDelay = delay
	}
}

func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(o *options) { o.breaker = cb }
}

// WithTransport replaces the HTTP gateway client entirely.
func WithTransport(t dispatcher.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithStore sets the payment registry. The default is process local.
func WithStore(s txstore.Store) Option {
	return func(o *options) { o.store = s }
}

// WithRecorder receives one journal entry per gateway request.
func WithRecorder(r dispatcher.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithMonitor validates payloads against v instead of the embedded contracts.
func WithMonitor(v dispatcher.Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithoutContractValidation sends payloads unchecked.
func WithoutContractValidation() Option {
	return func(o *options) { o.noValidation = true }
}

// WithStatusRules replaces the default order status rules.
func WithStatusRules(rules []policy.TransitionRule) Option {
	return func(o *options) { o.rules = rules }
}
