package composer

import (
	"context"
	"strings"

	"github.com/yourorg/paymentcore/internal/model"
)

const invoicePaymentsPath = "/psp/invoice/payments"

// Invoice types by billing country.
var invoiceTypes = map[string]string{
	"SE": "PayExFinancingSe",
	"NO": "PayExFinancingNo",
	"FI": "PayExFinancingFi",
}

// Invoice is authorization only; the merchant captures on delivery.
type Invoice struct {
	base
}

func NewInvoice(deps Deps) *Invoice {
	return &Invoice{base: newBase(model.InstrumentInvoice, invoicePaymentsPath, deps)}
}

func (i *Invoice) Endpoints() Endpoints {
	return paymentEndpoints(envelopePayment, model.ActionCapture, model.ActionCancel, model.ActionRefund, model.ActionAbort)
}

func (i *Invoice) CheckCredentials(ctx context.Context) error {
	return i.probe(ctx, envelopePayment)
}

func (i *Invoice) ComposePurchase(ctx context.Context, orderID string) (*model.PaymentRequest, error) {
	s, payment, err := i.composeRedirectPurchase(ctx, orderID, model.PriceTypeInvoice, model.IntentAuthorization)
	if err != nil {
		return nil, err
	}
	country := strings.ToUpper(s.order.Billing().Country)
	invoiceType, ok := invoiceTypes[country]
	if !ok {
		return nil, model.NewValidationError("billing country", "invoice is not available in "+country)
	}
	payment.Cardholder = i.cardholder(s.order)
	return &model.PaymentRequest{
		Payment: payment,
		Invoice: &model.InvoiceOptions{InvoiceType: invoiceType},
	}, nil
}

func (i *Invoice) Purchase(ctx context.Context, orderID string) (*model.Response, error) {
	return i.purchase(ctx, orderID, func(ctx context.Context) (*model.PaymentRequest, error) {
		return i.ComposePurchase(ctx, orderID)
	})
}
