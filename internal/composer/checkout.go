package composer

import (
	"context"
	"strings"

	"github.com/yourorg/paymentcore/internal/config"
	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/monitor"
	"github.com/yourorg/paymentcore/internal/order"
)

const (
	paymentOrdersPath = "/psp/paymentorders"

	relRedirectPaymentOrder = "redirect-paymentorder"
	relViewPaymentOrder     = "view-paymentorder"

	defaultItemType         = "PRODUCT"
	defaultItemClass        = "ProductGroup1"
	defaultItemQuantityUnit = "pcs"
)

// CheckoutParams extend PurchaseParams with a consumer profile obtained from
// a consumer session.
type CheckoutParams struct {
	PurchaseParams
	ConsumerProfileRef string
}

// Checkout composes payment orders, where the payer picks the instrument on
// the gateway's payment menu.
type Checkout struct {
	base
}

func NewCheckout(deps Deps) *Checkout {
	return &Checkout{base: newBase(model.InstrumentCheckout, paymentOrdersPath, deps)}
}

func (c *Checkout) Endpoints() Endpoints {
	return paymentEndpoints(envelopePaymentOrder, model.ActionCapture, model.ActionCancel, model.ActionRefund, model.ActionAbort)
}

func (c *Checkout) CheckCredentials(ctx context.Context) error {
	return c.probe(ctx, envelopePaymentOrder)
}

// ContinueURL returns where the payer continues: the embeddable view for the
// seamless checkout method, the hosted page otherwise.
func (c *Checkout) ContinueURL(resp *model.Response) (string, bool) {
	rel := relRedirectPaymentOrder
	if c.cfg().CheckoutMethod == config.CheckoutMethodSeamless {
		rel = relViewPaymentOrder
	}
	op, ok := resp.Operation(rel)
	if !ok {
		return "", false
	}
	return op.Href, true
}

func (c *Checkout) paymentOrder(s *snapshot, op model.Operation) *model.PaymentOrder {
	o := s.order
	return &model.PaymentOrder{
		Operation:     op,
		Currency:      o.Currency,
		Description:   o.Description,
		UserAgent:     o.UserAgent,
		Language:      o.Language,
		PayeeInfo:     s.payee.Wire(),
		RiskIndicator: s.risk,
		Metadata:      metadata(o.ID),
	}
}

func (c *Checkout) payer(o *order.Order, profileRef string) *model.Payer {
	if !c.cfg().UsePayerInfo {
		if profileRef == "" {
			return nil
		}
		return &model.Payer{ConsumerProfileRef: profileRef}
	}
	billing := o.Billing()
	return &model.Payer{ConsumerProfileRef: profileRef, Email: billing.Email, Msisdn: billing.Phone}
}

// ComposePurchase builds a payment order purchase with its order lines.
func (c *Checkout) ComposePurchase(ctx context.Context, orderID string, params CheckoutParams) (*model.PaymentOrderRequest, error) {
	s, err := c.fetch(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o := s.order
	token, genPayment, genRecurrence := applyPurchaseTokens(params.PurchaseParams)

	po := c.paymentOrder(s, model.OperationPurchase)
	po.Intent = c.intent()
	po.Amount = model.Int64(o.Amount)
	po.VatAmount = model.Int64(o.VatAmount)
	po.GeneratePaymentToken = genPayment
	po.GenerateRecurrenceToken = genRecurrence
	po.PaymentToken = token
	po.URLs = s.urls.Wire()
	po.Payer = c.payer(o, params.ConsumerProfileRef)
	po.Cardholder = c.cardholder(o)
	po.OrderItems = orderItems(o)
	return &model.PaymentOrderRequest{PaymentOrder: po}, nil
}

func (c *Checkout) Purchase(ctx context.Context, orderID string, params CheckoutParams) (*model.Response, error) {
	return c.dispatch(ctx, model.OperationPurchase, orderID, func(ctx context.Context) (*model.PaymentOrderRequest, error) {
		return c.ComposePurchase(ctx, orderID, params)
	})
}

// ComposeVerify builds a payment order that only stores the payer's card.
func (c *Checkout) ComposeVerify(ctx context.Context, orderID string, params CheckoutParams) (*model.PaymentOrderRequest, error) {
	s, err := c.fetch(ctx, orderID)
	if err != nil {
		return nil, err
	}
	token, genPayment, genRecurrence := applyPurchaseTokens(params.PurchaseParams)

	po := c.paymentOrder(s, model.OperationVerify)
	po.Description = cardVerifyDescription
	po.GeneratePaymentToken = genPayment
	po.GenerateRecurrenceToken = genRecurrence
	po.PaymentToken = token
	po.URLs = s.urls.Wire()
	po.Payer = c.payer(s.order, params.ConsumerProfileRef)
	po.Cardholder = c.cardholder(s.order)
	return &model.PaymentOrderRequest{PaymentOrder: po}, nil
}

func (c *Checkout) Verify(ctx context.Context, orderID string, params CheckoutParams) (*model.Response, error) {
	return c.dispatch(ctx, model.OperationVerify, orderID, func(ctx context.Context) (*model.PaymentOrderRequest, error) {
		return c.ComposeVerify(ctx, orderID, params)
	})
}

func (c *Checkout) ComposeRecur(ctx context.Context, orderID string, params RecurParams) (*model.PaymentOrderRequest, error) {
	return c.composeTokenCharge(ctx, orderID, model.OperationRecur, params)
}

func (c *Checkout) Recur(ctx context.Context, orderID string, params RecurParams) (*model.Response, error) {
	return c.dispatch(ctx, model.OperationRecur, orderID, func(ctx context.Context) (*model.PaymentOrderRequest, error) {
		return c.ComposeRecur(ctx, orderID, params)
	})
}

func (c *Checkout) ComposeUnscheduledPurchase(ctx context.Context, orderID string, params RecurParams) (*model.PaymentOrderRequest, error) {
	return c.composeTokenCharge(ctx, orderID, model.OperationUnscheduledPurchase, params)
}

func (c *Checkout) UnscheduledPurchase(ctx context.Context, orderID string, params RecurParams) (*model.Response, error) {
	return c.dispatch(ctx, model.OperationUnscheduledPurchase, orderID, func(ctx context.Context) (*model.PaymentOrderRequest, error) {
		return c.ComposeUnscheduledPurchase(ctx, orderID, params)
	})
}

func (c *Checkout) composeTokenCharge(ctx context.Context, orderID string, op model.Operation, params RecurParams) (*model.PaymentOrderRequest, error) {
	s, err := c.fetch(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o := s.order
	recurrence, token, err := recurTokens(params, o)
	if err != nil {
		return nil, err
	}

	po := c.paymentOrder(s, op)
	po.Intent = c.intent()
	po.Amount = model.Int64(o.Amount)
	po.VatAmount = model.Int64(o.VatAmount)
	po.RecurrenceToken = recurrence
	po.PaymentToken = token
	po.URLs = &model.URLs{CallbackURL: s.urls.CallbackURL}
	po.OrderItems = orderItems(o)
	return &model.PaymentOrderRequest{PaymentOrder: po}, nil
}

func (c *Checkout) dispatch(ctx context.Context, op model.Operation, orderID string, compose func(ctx context.Context) (*model.PaymentOrderRequest, error)) (*model.Response, error) {
	return c.call(ctx, string(op), func(ctx context.Context) (*model.Response, error) {
		body, err := compose(ctx)
		if err != nil {
			return nil, err
		}
		var amount int64
		if body.PaymentOrder.Amount != nil {
			amount = *body.PaymentOrder.Amount
		}
		return c.send(ctx, c.paymentRequest(body, monitor.ContractPaymentOrder, op, orderID, body.PaymentOrder.Currency, amount))
	})
}

// orderItems maps the order lines. An order without lines becomes one line
// carrying the order total.
func orderItems(o *order.Order) []model.OrderItem {
	if len(o.Items) == 0 {
		name := o.Description
		if name == "" {
			name = "Order " + o.ID
		}
		return []model.OrderItem{{
			Reference:    order.GeneratePayeeReference(o.ID),
			Name:         name,
			Type:         defaultItemType,
			Class:        defaultItemClass,
			Quantity:     1,
			QuantityUnit: defaultItemQuantityUnit,
			UnitPrice:    o.Amount,
			VatPercent:   vatPercent(o.Amount, o.VatAmount),
			Amount:       o.Amount,
			VatAmount:    o.VatAmount,
		}}
	}

	items := make([]model.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		item := model.OrderItem{
			Reference:     it.Reference,
			Name:          it.Name,
			Type:          strings.ToUpper(withDefault(it.Type, defaultItemType)),
			Class:         withDefault(it.Class, defaultItemClass),
			ItemURL:       it.ItemURL,
			ImageURL:      it.ImageURL,
			Description:   it.Description,
			Quantity:      it.Quantity,
			QuantityUnit:  withDefault(it.QuantityUnit, defaultItemQuantityUnit),
			UnitPrice:     it.UnitPrice,
			DiscountPrice: it.DiscountPrice,
			VatPercent:    it.VatPercent,
			Amount:        it.Amount,
			VatAmount:     it.VatAmount,
		}
		if item.VatPercent == 0 {
			item.VatPercent = vatPercent(it.Amount, it.VatAmount)
		}
		items = append(items, item)
	}
	return items
}

// vatPercent is the VAT rate in hundredths of a percent (2500 = 25%).
func vatPercent(amount, vat int64) int64 {
	net := amount - vat
	if net <= 0 || vat <= 0 {
		return 0
	}
	return (vat*10000 + net/2) / net
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
