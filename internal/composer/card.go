package composer

import (
	"context"

	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/monitor"
)

const (
	cardPaymentsPath      = "/psp/creditcard/payments"
	cardVerifyDescription = "Verification of Credit Card"
)

// Card composes credit card payments.
type Card struct {
	base
}

func NewCard(deps Deps) *Card {
	return &Card{base: newBase(model.InstrumentCreditCard, cardPaymentsPath, deps)}
}

func (c *Card) Endpoints() Endpoints {
	return paymentEndpoints(envelopePayment, model.ActionCapture, model.ActionCancel, model.ActionRefund, model.ActionAbort)
}

func (c *Card) CheckCredentials(ctx context.Context) error {
	return c.probe(ctx, envelopePayment)
}

func (c *Card) rejectRules() *model.CreditCard {
	cfg := c.cfg()
	return &model.CreditCard{
		RejectCreditCards:    cfg.RejectCreditCards,
		RejectDebitCards:     cfg.RejectDebitCards,
		RejectConsumerCards:  cfg.RejectConsumerCards,
		RejectCorporateCards: cfg.RejectCorporateCards,
	}
}

// ComposePurchase builds a card purchase for orderID.
func (c *Card) ComposePurchase(ctx context.Context, orderID string, params PurchaseParams) (*model.PaymentRequest, error) {
	s, err := c.fetch(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o := s.order
	token, genPayment, genRecurrence := applyPurchaseTokens(params)

	payment := &model.Payment{
		Operation:               model.OperationPurchase,
		Intent:                  c.intent(),
		Currency:                o.Currency,
		Prices:                  prices(model.PriceTypeCreditCard, o),
		Description:             o.Description,
		PayerReference:          o.PayerReference,
		GeneratePaymentToken:    genPayment,
		GenerateRecurrenceToken: genRecurrence,
		PaymentToken:            token,
		PageStripdown:           model.Bool(false),
		UserAgent:               o.UserAgent,
		Language:                o.Language,
		URLs:                    s.urls.Wire(),
		PayeeInfo:               s.payee.Wire(),
		Cardholder:              c.cardholder(o),
		RiskIndicator:           s.risk,
		Metadata:                metadata(orderID),
	}
	if phone := o.Billing().Phone; phone != "" {
		payment.PrefillInfo = &model.PrefillInfo{Msisdn: phone}
	}
	return &model.PaymentRequest{Payment: payment, CreditCard: c.rejectRules()}, nil
}

// Purchase creates a card payment.
func (c *Card) Purchase(ctx context.Context, orderID string, params PurchaseParams) (*model.Response, error) {
	return c.call(ctx, string(model.OperationPurchase), func(ctx context.Context) (*model.Response, error) {
		body, err := c.ComposePurchase(ctx, orderID, params)
		if err != nil {
			return nil, err
		}
		return c.send(ctx, c.paymentRequest(body, monitor.ContractPayment, model.OperationPurchase, orderID, body.Payment.Currency, firstAmount(body.Payment)))
	})
}

// ComposeVerify builds a zero amount card verification.
func (c *Card) ComposeVerify(ctx context.Context, orderID string, params PurchaseParams) (*model.PaymentRequest, error) {
	s, err := c.fetch(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o := s.order
	token, genPayment, genRecurrence := applyPurchaseTokens(params)

	urls := s.urls.Wire()
	urls.HostURLs = nil

	payment := &model.Payment{
		Operation:               model.OperationVerify,
		Currency:                o.Currency,
		Description:             cardVerifyDescription,
		PayerReference:          o.PayerReference,
		GeneratePaymentToken:    genPayment,
		GenerateRecurrenceToken: genRecurrence,
		PaymentToken:            token,
		PageStripdown:           model.Bool(false),
		UserAgent:               o.UserAgent,
		Language:                o.Language,
		URLs:                    urls,
		PayeeInfo:               s.payee.Wire(),
		Cardholder:              c.cardholder(o),
		RiskIndicator:           s.risk,
		Metadata:                metadata(orderID),
	}
	return &model.PaymentRequest{Payment: payment, CreditCard: c.rejectRules()}, nil
}

// Verify creates a card verification, typically to obtain tokens.
func (c *Card) Verify(ctx context.Context, orderID string, params PurchaseParams) (*model.Response, error) {
	return c.call(ctx, string(model.OperationVerify), func(ctx context.Context) (*model.Response, error) {
		body, err := c.ComposeVerify(ctx, orderID, params)
		if err != nil {
			return nil, err
		}
		return c.send(ctx, c.paymentRequest(body, monitor.ContractPayment, model.OperationVerify, orderID, body.Payment.Currency, 0))
	})
}

// ComposeRecur builds a merchant initiated charge on a stored token.
func (c *Card) ComposeRecur(ctx context.Context, orderID string, params RecurParams) (*model.PaymentRequest, error) {
	return c.composeTokenCharge(ctx, orderID, model.OperationRecur, params)
}

func (c *Card) Recur(ctx context.Context, orderID string, params RecurParams) (*model.Response, error) {
	return c.tokenCharge(ctx, orderID, model.OperationRecur, params)
}

func (c *Card) ComposeUnscheduledPurchase(ctx context.Context, orderID string, params RecurParams) (*model.PaymentRequest, error) {
	return c.composeTokenCharge(ctx, orderID, model.OperationUnscheduledPurchase, params)
}

func (c *Card) UnscheduledPurchase(ctx context.Context, orderID string, params RecurParams) (*model.Response, error) {
	return c.tokenCharge(ctx, orderID, model.OperationUnscheduledPurchase, params)
}

func (c *Card) composeTokenCharge(ctx context.Context, orderID string, op model.Operation, params RecurParams) (*model.PaymentRequest, error) {
	s, err := c.fetch(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o := s.order
	recurrence, token, err := recurTokens(params, o)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		Operation:       op,
		Intent:          c.intent(),
		Currency:        o.Currency,
		Amount:          model.Int64(o.Amount),
		VatAmount:       model.Int64(o.VatAmount),
		Description:     o.Description,
		PayerReference:  o.PayerReference,
		RecurrenceToken: recurrence,
		PaymentToken:    token,
		UserAgent:       o.UserAgent,
		Language:        o.Language,
		URLs:            &model.URLs{CallbackURL: s.urls.CallbackURL},
		PayeeInfo:       s.payee.Wire(),
		RiskIndicator:   s.risk,
		Metadata:        metadata(orderID),
	}
	return &model.PaymentRequest{Payment: payment}, nil
}

func (c *Card) tokenCharge(ctx context.Context, orderID string, op model.Operation, params RecurParams) (*model.Response, error) {
	return c.call(ctx, string(op), func(ctx context.Context) (*model.Response, error) {
		body, err := c.composeTokenCharge(ctx, orderID, op, params)
		if err != nil {
			return nil, err
		}
		return c.send(ctx, c.paymentRequest(body, monitor.ContractPayment, op, orderID, body.Payment.Currency, *body.Payment.Amount))
	})
}
