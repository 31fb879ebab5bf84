// Package dispatcher sends composed requests through the transport and
// turns whatever comes back into a model.Response or a *model.Exception.
// It performs no retries; that is the transport's business.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/yourorg/paymentcore/internal/gateway"
	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/monitor"
	"github.com/yourorg/paymentcore/internal/reporting"
	"github.com/yourorg/paymentcore/internal/trace"
)

// Transport is the HTTP client collaborator.
type Transport interface {
	Send(ctx context.Context, method, path string, payload any) (*gateway.RawResponse, error)
}

// Validator checks a payload against a named contract before sending.
type Validator interface {
	Validate(contract string, body []byte) (bool, []string, error)
}

// Recorder receives one journal entry per request.
type Recorder interface {
	Record(e reporting.Entry)
}

// Meta describes a request for metrics, spans and the journal.
type Meta struct {
	OrderID    string
	Instrument model.Instrument
	Operation  string
	Amount     int64
	Currency   string
}

// Request is one gateway call.
type Request struct {
	Method   string
	Path     string
	Payload  any
	Contract string // monitor contract name; empty skips validation
	Meta     Meta
}

type Dispatcher struct {
	transport Transport
	validator Validator
	recorder  Recorder
	now       func() time.Time
}

type Option func(*Dispatcher)

func WithValidator(v Validator) Option {
	return func(d *Dispatcher) { d.validator = v }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

func New(transport Transport, opts ...Option) *Dispatcher {
	if transport == nil {
		panic("transport cannot be nil")
	}
	d := &Dispatcher{transport: transport, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send dispatches req. Every failure comes back as a *model.Exception that
// unwraps to the original error.
func (d *Dispatcher) Send(ctx context.Context, req Request) (*model.Response, error) {
	ctx, tc := trace.Ensure(ctx)

	tracer := otel.Tracer("dispatcher")
	ctx, span := tracer.Start(ctx, "Dispatcher.Send", oteltrace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("payment.instrument", string(req.Meta.Instrument)),
		attribute.String("payment.operation", req.Meta.Operation),
		attribute.String("payment.order_id", req.Meta.OrderID),
		attribute.String("trace.request_id", tc.TraceID),
	))
	defer span.End()

	start := d.now()
	resp, exc := d.send(ctx, req)
	elapsed := d.now().Sub(start)

	outcome := reporting.StatusSuccess
	entry := reporting.Entry{
		Timestamp:  start,
		TraceID:    tc.TraceID,
		OrderID:    req.Meta.OrderID,
		Instrument: string(req.Meta.Instrument),
		Operation:  req.Meta.Operation,
		Amount:     req.Meta.Amount,
		Currency:   req.Meta.Currency,
		Duration:   elapsed,
	}
	if exc != nil {
		outcome = reporting.StatusFailure
		entry.StatusCode = exc.StatusCode
		entry.ErrorCode = exc.Code
		entry.ErrorMessage = exc.Message
		span.RecordError(exc)
		span.SetStatus(codes.Error, exc.Message)
	} else {
		entry.StatusCode = resp.StatusCode
		span.SetStatus(codes.Ok, "")
	}
	entry.Status = outcome
	span.SetAttributes(attribute.Int("http.status_code", entry.StatusCode))

	requestsTotal.WithLabelValues(string(req.Meta.Instrument), req.Meta.Operation, outcome).Inc()
	durationSeconds.WithLabelValues(string(req.Meta.Instrument), req.Meta.Operation).Observe(elapsed.Seconds())
	if d.recorder != nil {
		d.recorder.Record(entry)
	}

	if exc != nil {
		return nil, exc
	}
	return resp, nil
}

func (d *Dispatcher) send(ctx context.Context, req Request) (*model.Response, *model.Exception) {
	if d.validator != nil && req.Contract != "" && req.Payload != nil {
		if exc := d.validate(req); exc != nil {
			return nil, exc
		}
	}

	raw, err := d.transport.Send(ctx, req.Method, req.Path, req.Payload)
	if err != nil {
		var se *gateway.StatusError
		if errors.As(err, &se) {
			return nil, model.NewGatewayError(se.StatusCode, se.Message(), err)
		}
		return nil, model.NewTransportError(err)
	}

	resp := &model.Response{StatusCode: raw.StatusCode, Raw: raw.Body, Data: map[string]any{}}
	if len(raw.Body) > 0 {
		if err := sonic.Unmarshal(raw.Body, &resp.Data); err != nil {
			exc := model.NewTransportError(fmt.Errorf("decoding response: %w", err))
			exc.StatusCode = raw.StatusCode
			return nil, exc
		}
	}
	return resp, nil
}

func (d *Dispatcher) validate(req Request) *model.Exception {
	body, err := sonic.Marshal(req.Payload)
	if err != nil {
		return model.NewTransportError(fmt.Errorf("encoding payload: %w", err))
	}
	ok, violations, err := d.validator.Validate(req.Contract, body)
	if err != nil {
		return model.NewValidationError(req.Contract+" payload", err.Error())
	}
	if !ok {
		return model.NewValidationError(req.Contract+" payload", monitor.FormatErrors(violations))
	}
	return nil
}
