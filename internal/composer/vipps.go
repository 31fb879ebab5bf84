package composer

import (
	"context"

	"github.com/yourorg/paymentcore/internal/model"
)

const vippsPaymentsPath = "/psp/vipps/payments"

type Vipps struct {
	base
}

func NewVipps(deps Deps) *Vipps {
	return &Vipps{base: newBase(model.InstrumentVipps, vippsPaymentsPath, deps)}
}

func (v *Vipps) Endpoints() Endpoints {
	return paymentEndpoints(envelopePayment, model.ActionCapture, model.ActionCancel, model.ActionRefund, model.ActionAbort)
}

func (v *Vipps) CheckCredentials(ctx context.Context) error {
	return v.probe(ctx, envelopePayment)
}

func (v *Vipps) ComposePurchase(ctx context.Context, orderID, phone string) (*model.PaymentRequest, error) {
	_, payment, err := v.composeRedirectPurchase(ctx, orderID, model.PriceTypeVipps, v.intent())
	if err != nil {
		return nil, err
	}
	payment.PrefillInfo = phonePrefill(phone)
	return &model.PaymentRequest{Payment: payment}, nil
}

func (v *Vipps) Purchase(ctx context.Context, orderID, phone string) (*model.Response, error) {
	return v.purchase(ctx, orderID, func(ctx context.Context) (*model.PaymentRequest, error) {
		return v.ComposePurchase(ctx, orderID, phone)
	})
}
