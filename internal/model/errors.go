package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrCredentials    = errors.New("invalid credentials")
	ErrContract       = errors.New("contract not enabled")
	ErrProbeFailed    = errors.New("credential probe failed")
	ErrNoEndpoint     = errors.New("no endpoint registered")
	ErrGateway        = errors.New("gateway rejected request")
	ErrTransport      = errors.New("transport failure")
)

// Exception is the normalized failure returned by every engine operation.
// StatusCode carries the gateway HTTP status when one was received, zero otherwise.
type Exception struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Err        error  `json:"-"`
}

func (e *Exception) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Exception) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports an order, payment or transaction the platform cannot resolve.
func NewNotFoundError(resource string) *Exception {
	return &Exception{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Err:     ErrNotFound,
	}
}

// NewValidationError reports a request that was rejected before reaching the gateway.
func NewValidationError(field, reason string) *Exception {
	return &Exception{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Err:     ErrInvalidRequest,
	}
}

// NewGatewayError wraps a non-2xx gateway answer.
func NewGatewayError(statusCode int, message string, err error) *Exception {
	if message == "" {
		message = fmt.Sprintf("gateway responded with HTTP %d", statusCode)
	}
	return &Exception{
		Code:       "GATEWAY_ERROR",
		Message:    message,
		StatusCode: statusCode,
		Err:        joinSentinel(ErrGateway, err),
	}
}

// NewTransportError wraps network and serialization failures.
func NewTransportError(err error) *Exception {
	return &Exception{
		Code:    "TRANSPORT_ERROR",
		Message: "request could not be delivered",
		Err:     joinSentinel(ErrTransport, err),
	}
}

func NewCredentialsError(err error) *Exception {
	return &Exception{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Something is wrong with the credentials.",
		StatusCode: 401,
		Err:        joinSentinel(ErrCredentials, err),
	}
}

func NewContractError(err error) *Exception {
	return &Exception{
		Code:       "CONTRACT_NOT_ENABLED",
		Message:    "Something is wrong with the contract.",
		StatusCode: 403,
		Err:        joinSentinel(ErrContract, err),
	}
}

// NewProbeFailedError is returned when a credential probe got anything other than 400/401/403.
func NewProbeFailedError(statusCode int, err error) *Exception {
	return &Exception{
		Code:       "PROBE_FAILED",
		Message:    "API test has been failed.",
		StatusCode: statusCode,
		Err:        joinSentinel(ErrProbeFailed, err),
	}
}

// NewNoEndpointError reports an action the originating instrument does not support.
func NewNoEndpointError(instrument Instrument, action Action) *Exception {
	return &Exception{
		Code:    "NO_ENDPOINT",
		Message: fmt.Sprintf("%s does not support %s", instrument, action),
		Err:     ErrNoEndpoint,
	}
}

// Normalize returns err as an *Exception. Exceptions already in the chain are
// returned as they are, so the original status code and cause survive.
func Normalize(err error) *Exception {
	if err == nil {
		return nil
	}
	var exc *Exception
	if errors.As(err, &exc) {
		return exc
	}
	return &Exception{
		Code:    "INTERNAL_ERROR",
		Message: err.Error(),
		Err:     err,
	}
}

func joinSentinel(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
