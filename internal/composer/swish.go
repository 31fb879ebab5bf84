package composer

import (
	"context"

	"github.com/yourorg/paymentcore/internal/model"
)

const swishPaymentsPath = "/psp/swish/payments"

// Swish payments are settled at once, so they can only be refunded or aborted.
type Swish struct {
	base
}

func NewSwish(deps Deps) *Swish {
	return &Swish{base: newBase(model.InstrumentSwish, swishPaymentsPath, deps)}
}

func (s *Swish) Endpoints() Endpoints {
	return paymentEndpoints(envelopePayment, model.ActionRefund, model.ActionAbort)
}

func (s *Swish) CheckCredentials(ctx context.Context) error {
	return s.probe(ctx, envelopePayment)
}

func (s *Swish) ComposePurchase(ctx context.Context, orderID, phone string) (*model.PaymentRequest, error) {
	_, payment, err := s.composeRedirectPurchase(ctx, orderID, model.PriceTypeSwish, model.IntentSale)
	if err != nil {
		return nil, err
	}
	payment.PrefillInfo = phonePrefill(phone)
	return &model.PaymentRequest{
		Payment: payment,
		Swish:   &model.SwishOptions{EcomOnlyEnabled: false},
	}, nil
}

func (s *Swish) Purchase(ctx context.Context, orderID, phone string) (*model.Response, error) {
	return s.purchase(ctx, orderID, func(ctx context.Context) (*model.PaymentRequest, error) {
		return s.ComposePurchase(ctx, orderID, phone)
	})
}
