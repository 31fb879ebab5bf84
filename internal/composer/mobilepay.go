package composer

import (
	"context"

	"github.com/yourorg/paymentcore/internal/model"
)

const mobilepayPaymentsPath = "/psp/mobilepay/payments"

// Mobilepay composes Mobilepay Online payments.
type Mobilepay struct {
	base
}

func NewMobilepay(deps Deps) *Mobilepay {
	return &Mobilepay{base: newBase(model.InstrumentMobilepay, mobilepayPaymentsPath, deps)}
}

func (m *Mobilepay) Endpoints() Endpoints {
	return paymentEndpoints(envelopePayment, model.ActionCapture, model.ActionCancel, model.ActionRefund, model.ActionAbort)
}

// CheckCredentials probes the access token and the Mobilepay contract.
func (m *Mobilepay) CheckCredentials(ctx context.Context) error {
	return m.probe(ctx, envelopePayment)
}

// ComposePurchase builds a purchase. phone pre-fills the payer's number when non-empty.
func (m *Mobilepay) ComposePurchase(ctx context.Context, orderID, phone string) (*model.PaymentRequest, error) {
	s, payment, err := m.composeRedirectPurchase(ctx, orderID, model.PriceTypeMobilepay, m.intent())
	if err != nil {
		return nil, err
	}
	payment.PrefillInfo = phonePrefill(phone)
	return &model.PaymentRequest{
		Payment:   payment,
		Mobilepay: &model.MobilepayOptions{ShopLogoURL: s.urls.LogoURL},
	}, nil
}

func (m *Mobilepay) Purchase(ctx context.Context, orderID, phone string) (*model.Response, error) {
	return m.purchase(ctx, orderID, func(ctx context.Context) (*model.PaymentRequest, error) {
		return m.ComposePurchase(ctx, orderID, phone)
	})
}
