// Package composer builds instrument specific gateway requests from order
// snapshots and sends them through the dispatcher.
//
// Every operation comes in two forms: ComposeXxx returns the request without
// any I/O beyond the snapshot reads, Xxx composes, dispatches and applies the
// error policy. Failures are logged at debug level and returned as
// *model.Exception; snapshot errors such as NotFound are returned unchanged.
package composer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/yourorg/paymentcore/internal/config"
	"github.com/yourorg/paymentcore/internal/dispatcher"
	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/order"
	"github.com/yourorg/paymentcore/internal/txstore"
)

// Top level keys of payment and payment order bodies.
const (
	envelopePayment      = "payment"
	envelopePaymentOrder = "paymentorder"
)

// Snapshots reads fresh order data for one operation.
type Snapshots interface {
	FetchOrder(ctx context.Context, orderID string) (*order.Order, error)
	FetchPlatformURLs(ctx context.Context, orderID string) (*order.PlatformURLs, error)
	FetchPayeeInfo(ctx context.Context, orderID string) (*order.PayeeInfo, error)
	FetchRiskIndicator(ctx context.Context, orderID string) (order.RiskIndicator, error)
}

// Sender is the dispatcher.
type Sender interface {
	Send(ctx context.Context, req dispatcher.Request) (*model.Response, error)
}

// Deps are shared by every composer. Logger and Registry are optional.
type Deps struct {
	Config    config.Configuration
	Snapshots Snapshots
	Sender    Sender
	Logger    *logging.Facade
	Registry  txstore.Store
}

// Composer is implemented by every instrument.
type Composer interface {
	Instrument() model.Instrument
	// Endpoints lists the follow-up actions the instrument supports.
	Endpoints() Endpoints
}

// Prober is implemented by instruments that can verify merchant credentials.
type Prober interface {
	CheckCredentials(ctx context.Context) error
}

// Endpoint describes how an action is sent for a created payment.
type Endpoint struct {
	Method string
	// SubResource is appended to the payment id; empty targets the payment itself.
	SubResource string
	// Envelope is the top level key of an abort body.
	Envelope string
}

// Endpoints maps actions to their endpoint.
type Endpoints map[model.Action]Endpoint

// Lookup returns the endpoint for action.
func (e Endpoints) Lookup(action model.Action) (Endpoint, bool) {
	ep, ok := e[action]
	return ep, ok
}

// Path is the request path for a payment created at paymentID.
func (ep Endpoint) Path(paymentID string) string {
	if ep.SubResource == "" {
		return paymentID
	}
	return paymentID + "/" + ep.SubResource
}

func paymentEndpoints(envelope string, actions ...model.Action) Endpoints {
	all := map[model.Action]Endpoint{
		model.ActionCapture: {Method: http.MethodPost, SubResource: "captures"},
		model.ActionCancel:  {Method: http.MethodPost, SubResource: "cancellations"},
		model.ActionRefund:  {Method: http.MethodPost, SubResource: "reversals"},
		model.ActionAbort:   {Method: http.MethodPatch, Envelope: envelope},
	}
	out := make(Endpoints, len(actions))
	for _, a := range actions {
		out[a] = all[a]
	}
	return out
}

// PurchaseParams are the caller's token choices for purchase and verify.
type PurchaseParams struct {
	GenerateToken bool
	PaymentToken  string
}

// RecurParams carry the stored tokens for recur and unscheduled purchase.
// Empty values fall back to the tokens on the order.
type RecurParams struct {
	RecurrenceToken string
	PaymentToken    string
}

// snapshot is everything one composition reads.
type snapshot struct {
	order *order.Order
	urls  *order.PlatformURLs
	payee *order.PayeeInfo
	risk  order.RiskIndicator
}

type base struct {
	instrument model.Instrument
	path       string
	deps       Deps
	now        func() time.Time
}

func newBase(instrument model.Instrument, path string, deps Deps) base {
	if deps.Snapshots == nil {
		panic("composer snapshots cannot be nil")
	}
	if deps.Sender == nil {
		panic("composer sender cannot be nil")
	}
	return base{instrument: instrument, path: path, deps: deps, now: time.Now}
}

func (b *base) Instrument() model.Instrument { return b.instrument }

// Path is the endpoint new payments are created at.
func (b *base) Path() string { return b.path }

func (b *base) cfg() config.Configuration { return b.deps.Config }

func (b *base) fetch(ctx context.Context, orderID string) (*snapshot, error) {
	o, err := b.deps.Snapshots.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	urls, err := b.deps.Snapshots.FetchPlatformURLs(ctx, orderID)
	if err != nil {
		return nil, err
	}
	payee, err := b.deps.Snapshots.FetchPayeeInfo(ctx, orderID)
	if err != nil {
		return nil, err
	}
	risk, err := b.deps.Snapshots.FetchRiskIndicator(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &snapshot{order: o, urls: urls, payee: payee, risk: risk}, nil
}

func (b *base) intent() model.Intent {
	if b.cfg().AutoCapture {
		return model.IntentAutoCapture
	}
	return model.IntentAuthorization
}

func (b *base) cardholder(o *order.Order) *model.Cardholder {
	cfg := b.cfg()
	if !cfg.UseCardholderInfo {
		return nil
	}
	billing := o.Billing()
	ch := &model.Cardholder{
		FirstName:       billing.FirstName,
		LastName:        billing.LastName,
		Email:           billing.Email,
		Msisdn:          billing.Phone,
		HomePhoneNumber: billing.Phone,
		WorkPhoneNumber: billing.Phone,
	}
	if cfg.UsePayerInfo {
		ch.BillingAddress = billing.Wire()
		if o.NeedsShipping {
			ch.ShippingAddress = o.Shipping().Wire()
		}
	}
	return ch
}

func metadata(orderID string) map[string]any {
	return map[string]any{"order_id": orderID}
}

func prices(priceType string, o *order.Order) []model.Price {
	return []model.Price{{Type: priceType, Amount: o.Amount, VatAmount: o.VatAmount}}
}

// applyPurchaseTokens sets the token fields of a purchase or verify.
func applyPurchaseTokens(p PurchaseParams) (token string, genPayment, genRecurrence *bool) {
	if p.PaymentToken != "" {
		return p.PaymentToken, model.Bool(false), model.Bool(false)
	}
	return "", model.Bool(p.GenerateToken), model.Bool(p.GenerateToken)
}

// recurTokens picks exactly one token, the recurrence token first.
func recurTokens(p RecurParams, o *order.Order) (recurrence, payment string, err error) {
	recurrence, payment = p.RecurrenceToken, p.PaymentToken
	if recurrence == "" && payment == "" {
		recurrence, payment = o.RecurrenceToken, o.PaymentToken
	}
	if recurrence != "" {
		return recurrence, "", nil
	}
	if payment != "" {
		return "", payment, nil
	}
	return "", "", model.NewValidationError("token", "a recurrence token or a payment token is required")
}

// call runs one named operation inside a span and applies the error policy.
func (b *base) call(ctx context.Context, operation string, fn func(ctx context.Context) (*model.Response, error)) (*model.Response, error) {
	tracer := otel.Tracer("composer")
	ctx, span := tracer.Start(ctx, fmt.Sprintf("%s.%s", b.instrument, operation), oteltrace.WithAttributes(
		attribute.String("payment.instrument", string(b.instrument)),
		attribute.String("payment.operation", operation),
	))
	defer span.End()

	resp, err := fn(ctx)
	if err != nil {
		operationsTotal.WithLabelValues(string(b.instrument), operation, outcomeFailure).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	operationsTotal.WithLabelValues(string(b.instrument), operation, outcomeSuccess).Inc()
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// send dispatches req, registers the created payment and normalizes failures.
func (b *base) send(ctx context.Context, req dispatcher.Request) (*model.Response, error) {
	resp, err := b.deps.Sender.Send(ctx, req)
	if err != nil {
		b.deps.Logger.Debug(ctx, fmt.Sprintf("%s::%s: API Exception: %s", b.instrument, req.Meta.Operation, err.Error()), map[string]any{
			"order_id": req.Meta.OrderID,
		})
		return nil, model.Normalize(err)
	}
	b.register(ctx, req.Meta.OrderID, resp)
	return resp, nil
}

func (b *base) register(ctx context.Context, orderID string, resp *model.Response) {
	if b.deps.Registry == nil || resp.ID() == "" {
		return
	}
	rec := txstore.Record{
		PaymentID:  resp.ID(),
		Instrument: b.instrument,
		OrderID:    orderID,
		CreatedAt:  b.now().UTC(),
	}
	if err := b.deps.Registry.Save(ctx, rec); err != nil {
		b.deps.Logger.Log(ctx, logging.LevelWarning, fmt.Sprintf("%s: failed to register payment %s: %s", b.instrument, rec.PaymentID, err.Error()), nil)
	}
}

func (b *base) paymentRequest(body any, contract string, op model.Operation, orderID, currency string, amount int64) dispatcher.Request {
	return dispatcher.Request{
		Method:   http.MethodPost,
		Path:     b.path,
		Payload:  body,
		Contract: contract,
		Meta: dispatcher.Meta{
			OrderID:    orderID,
			Instrument: b.instrument,
			Operation:  string(op),
			Amount:     amount,
			Currency:   currency,
		},
	}
}

// firstAmount is the charged amount of a payment: the inline amount or the first price.
func firstAmount(p *model.Payment) int64 {
	if p.Amount != nil {
		return *p.Amount
	}
	if len(p.Prices) > 0 {
		return p.Prices[0].Amount
	}
	return 0
}
