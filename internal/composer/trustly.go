package composer

import (
	"context"

	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/order"
)

const trustlyPaymentsPath = "/psp/trustly/payments"

// Trustly bank payments are sale-only.
type Trustly struct {
	base
}

func NewTrustly(deps Deps) *Trustly {
	return &Trustly{base: newBase(model.InstrumentTrustly, trustlyPaymentsPath, deps)}
}

func (t *Trustly) Endpoints() Endpoints {
	return paymentEndpoints(envelopePayment, model.ActionRefund, model.ActionAbort)
}

func (t *Trustly) CheckCredentials(ctx context.Context) error {
	return t.probe(ctx, envelopePayment)
}

// ComposePurchase pre-fills the payer's name and email from the billing address.
func (t *Trustly) ComposePurchase(ctx context.Context, orderID string) (*model.PaymentRequest, error) {
	s, payment, err := t.composeRedirectPurchase(ctx, orderID, model.PriceTypeTrustly, model.IntentSale)
	if err != nil {
		return nil, err
	}
	payment.PrefillInfo = trustlyPrefill(s.order.Billing())
	return &model.PaymentRequest{Payment: payment}, nil
}

func trustlyPrefill(billing order.Address) *model.PrefillInfo {
	if billing.FirstName == "" && billing.LastName == "" && billing.Email == "" {
		return nil
	}
	return &model.PrefillInfo{
		FirstName: billing.FirstName,
		LastName:  billing.LastName,
		Email:     billing.Email,
	}
}

func (t *Trustly) Purchase(ctx context.Context, orderID string) (*model.Response, error) {
	return t.purchase(ctx, orderID, func(ctx context.Context) (*model.PaymentRequest, error) {
		return t.ComposePurchase(ctx, orderID)
	})
}
