// Package trace carries per-operation correlation ids through a context.Context.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// Context carries the ids one engine operation is logged and sent under.
type Context struct {
	TraceID string            // sent to the gateway as Request-Id
	SpanID  string            // current step within the operation
	Baggage map[string]string // order id, instrument and similar correlation data
}

// New creates a Context with fresh ids.
func New() Context {
	return Context{
		TraceID: uuid.NewString(),
		SpanID:  uuid.NewString(),
		Baggage: make(map[string]string),
	}
}

// NewSpan moves the context to a new step of the same trace.
func (tc *Context) NewSpan() string {
	tc.SpanID = uuid.NewString()
	return tc.SpanID
}

type ctxKey struct{}

// With stores tc in ctx.
func With(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// From returns the Context stored in ctx, if any.
func From(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// Ensure returns ctx carrying a trace Context, creating one when absent.
func Ensure(ctx context.Context) (context.Context, Context) {
	if tc, ok := From(ctx); ok {
		return ctx, tc
	}
	tc := New()
	return With(ctx, tc), tc
}
