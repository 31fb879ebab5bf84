package model

// Instrument is a payment method family.
type Instrument string

const (
	InstrumentCreditCard Instrument = "creditcard"
	InstrumentMobilepay  Instrument = "mobilepay"
	InstrumentSwish      Instrument = "swish"
	InstrumentVipps      Instrument = "vipps"
	InstrumentTrustly    Instrument = "trustly"
	InstrumentInvoice    Instrument = "invoice"
	InstrumentCheckout   Instrument = "checkout"
	InstrumentConsumer   Instrument = "consumer"
)

// Instruments lists every supported instrument in a stable order.
func Instruments() []Instrument {
	return []Instrument{
		InstrumentCreditCard, InstrumentMobilepay, InstrumentSwish, InstrumentVipps,
		InstrumentTrustly, InstrumentInvoice, InstrumentCheckout, InstrumentConsumer,
	}
}

// ParseInstrument maps a name to a known instrument.
func ParseInstrument(name string) (Instrument, bool) {
	for _, inst := range Instruments() {
		if string(inst) == name {
			return inst, true
		}
	}
	return "", false
}

// Operation names the kind of request a composer builds. The values are the
// gateway's own operation names where one exists.
type Operation string

const (
	OperationPurchase            Operation = "Purchase"
	OperationVerify              Operation = "Verify"
	OperationRecur               Operation = "Recur"
	OperationUnscheduledPurchase Operation = "UnscheduledPurchase"
	OperationTest                Operation = "Test"
	OperationConsumerSession     Operation = "initiate-consumer-session"
)

// Action is a follow-up operation on an existing payment.
type Action string

const (
	ActionCapture Action = "capture"
	ActionCancel  Action = "cancel"
	ActionRefund  Action = "refund"
	ActionAbort   Action = "abort"
)

// ParseAction maps a name to a known action.
func ParseAction(name string) (Action, bool) {
	switch a := Action(name); a {
	case ActionCapture, ActionCancel, ActionRefund, ActionAbort:
		return a, true
	}
	return "", false
}

// Intent is the gateway-side authorization mode.
type Intent string

const (
	IntentAuthorization Intent = "Authorization"
	IntentAutoCapture   Intent = "AutoCapture"
	IntentSale          Intent = "Sale"
)

// Price types used in price line items.
const (
	PriceTypeCreditCard = "CreditCard"
	PriceTypeMobilepay  = "MobilePay"
	PriceTypeSwish      = "Swish"
	PriceTypeVipps      = "Vipps"
	PriceTypeTrustly    = "Trustly"
	PriceTypeInvoice    = "Invoice"
)

// AbortReasonCancelledByConsumer is the only abort reason the gateway accepts from merchants.
const AbortReasonCancelledByConsumer = "CancelledByConsumer"
