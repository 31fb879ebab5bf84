// Package circuitbreaker stops the transport from hammering a gateway host
// that keeps failing.
package circuitbreaker

import (
	"sync"
	"time"
)

// State of one endpoint's circuit.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

const (
	defaultFailureThreshold = 3
	defaultResetTimeout     = 30 * time.Second
	defaultHalfOpenSuccess  = 1
)

// Config tunes the breaker. Zero values select the defaults.
type Config struct {
	FailureThreshold int           // consecutive failures that open the circuit
	ResetTimeout     time.Duration // time spent Open before a trial request
	HalfOpenSuccess  int           // trial successes needed to close again
}

type endpointState struct {
	state     State
	failures  int
	successes int
	openUntil time.Time
}

// CircuitBreaker tracks one circuit per endpoint key (the gateway host).
type CircuitBreaker struct {
	mu        sync.Mutex
	endpoints map[string]*endpointState
	cfg       Config
	now       func() time.Time
}

func NewCircuitBreaker(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaultResetTimeout
	}
	if cfg.HalfOpenSuccess <= 0 {
		cfg.HalfOpenSuccess = defaultHalfOpenSuccess
	}
	return &CircuitBreaker{
		endpoints: make(map[string]*endpointState),
		cfg:       cfg,
		now:       time.Now,
	}
}

// caller holds mu
func (cb *CircuitBreaker) get(key string) *endpointState {
	es, ok := cb.endpoints[key]
	if !ok {
		es = &endpointState{state: StateClosed}
		cb.endpoints[key] = es
	}
	return es
}

// AllowRequest reports whether a request to key may go out. An Open circuit
// whose timeout elapsed moves to HalfOpen and lets the trial through.
func (cb *CircuitBreaker) AllowRequest(key string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.get(key)
	switch es.state {
	case StateOpen:
		if cb.now().Before(es.openUntil) {
			return false
		}
		es.state = StateHalfOpen
		es.failures = 0
		es.successes = 0
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.get(key)
	switch es.state {
	case StateClosed:
		es.failures++
		if es.failures >= cb.cfg.FailureThreshold {
			cb.open(es)
		}
	case StateHalfOpen:
		cb.open(es)
	}
}

func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.get(key)
	switch es.state {
	case StateClosed:
		es.failures = 0
	case StateHalfOpen:
		es.successes++
		if es.successes >= cb.cfg.HalfOpenSuccess {
			es.state = StateClosed
			es.failures = 0
			es.successes = 0
		}
	}
}

// GetProviderStatus returns the state and consecutive failure count for key
// without triggering the Open to HalfOpen transition.
func (cb *CircuitBreaker) GetProviderStatus(key string) (State, int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es, ok := cb.endpoints[key]
	if !ok {
		return StateClosed, 0
	}
	return es.state, es.failures
}

// open keeps failures at the threshold so an Open circuit reports why it opened.
func (cb *CircuitBreaker) open(es *endpointState) {
	es.state = StateOpen
	es.failures = cb.cfg.FailureThreshold
	es.successes = 0
	es.openUntil = cb.now().Add(cb.cfg.ResetTimeout)
}
