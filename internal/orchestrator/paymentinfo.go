package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/yourorg/paymentcore/internal/dispatcher"
	"github.com/yourorg/paymentcore/internal/model"
)

const operationPaymentInfo = "FetchPaymentInfo"

// FetchPaymentInfo reads the current state of a registered payment. id is a
// payment id or an order id, resolved like the actions. expand names the
// sub-resources to inline, e.g. "transactions" or "captures". Lookups are
// retried on 429, 5xx and network errors.
func (c *Core) FetchPaymentInfo(ctx context.Context, id string, expand ...string) (*model.Response, error) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "Core.FetchPaymentInfo", oteltrace.WithAttributes(
		attribute.String("payment.id", id),
		attribute.StringSlice("payment.expand", expand),
	))
	defer span.End()

	resp, err := c.fetchPaymentInfo(ctx, id, expand)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

func (c *Core) fetchPaymentInfo(ctx context.Context, id string, expand []string) (*model.Response, error) {
	rec, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	path, err := expandPath(rec.PaymentID, expand)
	if err != nil {
		return nil, err
	}

	resp, err := c.dispatcher.Send(ctx, dispatcher.Request{
		Method: http.MethodGet,
		Path:   path,
		Meta: dispatcher.Meta{
			OrderID:    rec.OrderID,
			Instrument: rec.Instrument,
			Operation:  operationPaymentInfo,
		},
	})
	if err != nil {
		c.logger.Debug(ctx, fmt.Sprintf("%s::%s: API Exception: %s", rec.Instrument, operationPaymentInfo, err.Error()), map[string]any{
			"order_id":   rec.OrderID,
			"payment_id": rec.PaymentID,
		})
		return nil, model.Normalize(err)
	}
	return resp, nil
}

// expandPath appends the gateway's $expand query to a payment href.
func expandPath(paymentID string, expand []string) (string, error) {
	names := make([]string, 0, len(expand))
	for _, e := range expand {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.ContainsAny(e, ",&=?#/ ") {
			return "", model.NewValidationError("expand", fmt.Sprintf("invalid resource name %q", e))
		}
		names = append(names, url.QueryEscape(e))
	}
	if len(names) == 0 {
		return paymentID, nil
	}
	return paymentID + "?$expand=" + strings.Join(names, ","), nil
}
