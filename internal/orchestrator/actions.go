package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/yourorg/paymentcore/internal/composer"
	"github.com/yourorg/paymentcore/internal/dispatcher"
	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/monitor"
	"github.com/yourorg/paymentcore/internal/order"
	"github.com/yourorg/paymentcore/internal/txstore"
)

// Capture captures amount of an authorized payment. id is either the
// payment id returned at creation or the platform order id.
func (c *Core) Capture(ctx context.Context, id string, amount, vatAmount int64) (*model.Response, error) {
	return c.transact(ctx, model.ActionCapture, id, amount, vatAmount)
}

// Cancel releases the authorization of a payment.
func (c *Core) Cancel(ctx context.Context, id string, amount, vatAmount int64) (*model.Response, error) {
	return c.transact(ctx, model.ActionCancel, id, amount, vatAmount)
}

// Refund reverses amount of a captured or sold payment.
func (c *Core) Refund(ctx context.Context, id string, amount, vatAmount int64) (*model.Response, error) {
	return c.transact(ctx, model.ActionRefund, id, amount, vatAmount)
}

// Abort stops a payment that has not been completed by the payer.
func (c *Core) Abort(ctx context.Context, id string) (*model.Response, error) {
	return c.run(ctx, model.ActionAbort, id, func(ctx context.Context, rec txstore.Record, ep composer.Endpoint) (*model.Response, error) {
		abort := &model.Abort{Operation: "Abort", AbortReason: model.AbortReasonCancelledByConsumer}
		var body model.AbortRequest
		if ep.Envelope == "paymentorder" {
			body.PaymentOrder = abort
		} else {
			body.Payment = abort
		}
		return c.dispatch(ctx, rec, ep, model.ActionAbort, body, monitor.ContractAbort, 0)
	})
}

// Do runs action by name. Abort ignores the amounts.
func (c *Core) Do(ctx context.Context, action model.Action, id string, amount, vatAmount int64) (*model.Response, error) {
	switch action {
	case model.ActionCapture, model.ActionCancel, model.ActionRefund:
		return c.transact(ctx, action, id, amount, vatAmount)
	case model.ActionAbort:
		return c.Abort(ctx, id)
	}
	return nil, model.NewValidationError("action", fmt.Sprintf("unknown action %q", action))
}

func (c *Core) transact(ctx context.Context, action model.Action, id string, amount, vatAmount int64) (*model.Response, error) {
	if amount < 0 {
		return nil, model.NewValidationError("amount", "must not be negative")
	}
	if vatAmount < 0 || vatAmount > amount {
		return nil, model.NewValidationError("vatAmount", "must be between 0 and amount")
	}
	return c.run(ctx, action, id, func(ctx context.Context, rec txstore.Record, ep composer.Endpoint) (*model.Response, error) {
		body := model.TransactionRequest{Transaction: model.Transaction{
			Amount:         amount,
			VatAmount:      vatAmount,
			Description:    fmt.Sprintf("%s of order %s", actionTitle(action), rec.OrderID),
			PayeeReference: order.GeneratePayeeReference(uuid.NewString()),
		}}
		return c.dispatch(ctx, rec, ep, action, body, monitor.ContractTransaction, amount)
	})
}

type actionFunc func(ctx context.Context, rec txstore.Record, ep composer.Endpoint) (*model.Response, error)

// run resolves id to a registered payment and its endpoint, then calls fn
// inside a span.
func (c *Core) run(ctx context.Context, action model.Action, id string, fn actionFunc) (*model.Response, error) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "Core."+actionTitle(action), oteltrace.WithAttributes(
		attribute.String("payment.action", string(action)),
		attribute.String("payment.id", id),
	))
	defer span.End()

	rec, ep, err := c.resolve(ctx, action, id)
	if err == nil {
		var resp *model.Response
		resp, err = fn(ctx, rec, ep)
		if err == nil {
			span.SetStatus(codes.Ok, "")
			return resp, nil
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// lookup finds the payment registered under a payment id, or the latest
// payment of an order id.
func (c *Core) lookup(ctx context.Context, id string) (txstore.Record, error) {
	if id == "" {
		return txstore.Record{}, model.NewValidationError("id", "payment or order id is required")
	}
	rec, err := c.registry.Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) && !txstore.IsOrderKey(id) {
		rec, err = c.registry.Get(ctx, txstore.OrderKey(id))
	}
	return rec, err
}

func (c *Core) resolve(ctx context.Context, action model.Action, id string) (txstore.Record, composer.Endpoint, error) {
	rec, err := c.lookup(ctx, id)
	if err != nil {
		return txstore.Record{}, composer.Endpoint{}, err
	}

	comp, ok := c.composers.Get(rec.Instrument)
	if !ok {
		return txstore.Record{}, composer.Endpoint{}, model.NewNoEndpointError(rec.Instrument, action)
	}
	ep, ok := comp.Endpoints().Lookup(action)
	if !ok {
		return txstore.Record{}, composer.Endpoint{}, model.NewNoEndpointError(rec.Instrument, action)
	}
	return rec, ep, nil
}

func (c *Core) dispatch(ctx context.Context, rec txstore.Record, ep composer.Endpoint, action model.Action, body any, contract string, amount int64) (*model.Response, error) {
	resp, err := c.dispatcher.Send(ctx, dispatcher.Request{
		Method:   ep.Method,
		Path:     ep.Path(rec.PaymentID),
		Payload:  body,
		Contract: contract,
		Meta: dispatcher.Meta{
			OrderID:    rec.OrderID,
			Instrument: rec.Instrument,
			Operation:  string(action),
			Amount:     amount,
		},
	})
	if err != nil {
		c.logger.Debug(ctx, fmt.Sprintf("%s::%s: API Exception: %s", rec.Instrument, actionTitle(action), err.Error()), map[string]any{
			"order_id":   rec.OrderID,
			"payment_id": rec.PaymentID,
		})
		return nil, model.Normalize(err)
	}
	return resp, nil
}

func actionTitle(a model.Action) string {
	switch a {
	case model.ActionCapture:
		return "Capture"
	case model.ActionCancel:
		return "Cancel"
	case model.ActionRefund:
		return "Refund"
	case model.ActionAbort:
		return "Abort"
	}
	return string(a)
}
