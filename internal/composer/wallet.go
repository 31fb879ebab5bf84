package composer

import (
	"context"

	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/monitor"
)

// composeRedirectPurchase builds the single price purchase shared by the
// redirect instruments (Mobilepay, Swish, Vipps, Trustly, invoice).
func (b *base) composeRedirectPurchase(ctx context.Context, orderID, priceType string, intent model.Intent) (*snapshot, *model.Payment, error) {
	s, err := b.fetch(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	o := s.order
	payment := &model.Payment{
		Operation:      model.OperationPurchase,
		Intent:         intent,
		Currency:       o.Currency,
		Prices:         prices(priceType, o),
		Description:    o.Description,
		PayerReference: o.PayerReference,
		UserAgent:      o.UserAgent,
		Language:       o.Language,
		URLs: &model.URLs{
			HostURLs:    s.urls.HostURLs,
			CompleteURL: s.urls.CompleteURL,
			CancelURL:   s.urls.CancelURL,
			CallbackURL: s.urls.CallbackURL,
		},
		PayeeInfo:     s.payee.Wire(),
		RiskIndicator: s.risk,
		Metadata:      metadata(orderID),
	}
	return s, payment, nil
}

func phonePrefill(phone string) *model.PrefillInfo {
	if phone == "" {
		return nil
	}
	return &model.PrefillInfo{Msisdn: phone}
}

// purchase dispatches a composed payment request for the redirect instruments.
func (b *base) purchase(ctx context.Context, orderID string, compose func(ctx context.Context) (*model.PaymentRequest, error)) (*model.Response, error) {
	return b.call(ctx, string(model.OperationPurchase), func(ctx context.Context) (*model.Response, error) {
		body, err := compose(ctx)
		if err != nil {
			return nil, err
		}
		return b.send(ctx, b.paymentRequest(body, monitor.ContractPayment, model.OperationPurchase, orderID, body.Payment.Currency, firstAmount(body.Payment)))
	})
}
