package model

// PaymentRequest is the body POSTed to an instrument's payments endpoint.
// Instrument-specific blocks sit next to the payment block.
type PaymentRequest struct {
	Payment    *Payment          `json:"payment"`
	CreditCard *CreditCard       `json:"creditCard,omitempty"`
	Mobilepay  *MobilepayOptions `json:"mobilepay,omitempty"`
	Swish      *SwishOptions     `json:"swish,omitempty"`
	Invoice    *InvoiceOptions   `json:"invoice,omitempty"`
}

// Payment is the instrument payment resource as sent to the gateway.
type Payment struct {
	Operation               Operation      `json:"operation"`
	Intent                  Intent         `json:"intent,omitempty"`
	Currency                string         `json:"currency,omitempty"`
	Prices                  []Price        `json:"prices,omitempty"`
	Amount                  *int64         `json:"amount,omitempty"`
	VatAmount               *int64         `json:"vatAmount,omitempty"`
	Description             string         `json:"description,omitempty"`
	PayerReference          string         `json:"payerReference,omitempty"`
	GeneratePaymentToken    *bool          `json:"generatePaymentToken,omitempty"`
	GenerateRecurrenceToken *bool          `json:"generateRecurrenceToken,omitempty"`
	PaymentToken            string         `json:"paymentToken,omitempty"`
	RecurrenceToken         string         `json:"recurrenceToken,omitempty"`
	PageStripdown           *bool          `json:"pageStripdown,omitempty"`
	UserAgent               string         `json:"userAgent,omitempty"`
	Language                string         `json:"language,omitempty"`
	URLs                    *URLs          `json:"urls,omitempty"`
	PayeeInfo               *PayeeInfo     `json:"payeeInfo,omitempty"`
	Cardholder              *Cardholder    `json:"cardholder,omitempty"`
	PrefillInfo             *PrefillInfo   `json:"prefillInfo,omitempty"`
	RiskIndicator           map[string]any `json:"riskIndicator,omitempty"`
	Metadata                map[string]any `json:"metadata,omitempty"`
}

// Price is one price line item in minor units.
type Price struct {
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	VatAmount int64  `json:"vatAmount"`
}

type URLs struct {
	HostURLs          []string `json:"hostUrls,omitempty"`
	CompleteURL       string   `json:"completeUrl,omitempty"`
	CancelURL         string   `json:"cancelUrl,omitempty"`
	CallbackURL       string   `json:"callbackUrl,omitempty"`
	TermsOfServiceURL string   `json:"termsOfServiceUrl,omitempty"`
	LogoURL           string   `json:"logoUrl,omitempty"`
}

type PayeeInfo struct {
	PayeeID        string `json:"payeeId"`
	PayeeReference string `json:"payeeReference,omitempty"`
	PayeeName      string `json:"payeeName,omitempty"`
	OrderReference string `json:"orderReference,omitempty"`
	Subsite        string `json:"subsite,omitempty"`
}

type Cardholder struct {
	FirstName       string   `json:"firstName,omitempty"`
	LastName        string   `json:"lastName,omitempty"`
	Email           string   `json:"email,omitempty"`
	Msisdn          string   `json:"msisdn,omitempty"`
	HomePhoneNumber string   `json:"homePhoneNumber,omitempty"`
	WorkPhoneNumber string   `json:"workPhoneNumber,omitempty"`
	BillingAddress  *Address `json:"billingAddress,omitempty"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
}

// Address is always sent in full; coAddress is part of the contract even when empty.
type Address struct {
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Email         string `json:"email,omitempty"`
	Msisdn        string `json:"msisdn,omitempty"`
	StreetAddress string `json:"streetAddress"`
	CoAddress     string `json:"coAddress"`
	City          string `json:"city"`
	ZipCode       string `json:"zipCode"`
	CountryCode   string `json:"countryCode"`
}

type PrefillInfo struct {
	Msisdn    string `json:"msisdn,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// CreditCard carries the card-type reject rules.
type CreditCard struct {
	RejectCreditCards    bool `json:"rejectCreditCards"`
	RejectDebitCards     bool `json:"rejectDebitCards"`
	RejectConsumerCards  bool `json:"rejectConsumerCards"`
	RejectCorporateCards bool `json:"rejectCorporateCards"`
}

type MobilepayOptions struct {
	ShopLogoURL string `json:"shoplogoUrl,omitempty"`
}

type SwishOptions struct {
	EcomOnlyEnabled bool `json:"ecomOnlyEnabled"`
}

type InvoiceOptions struct {
	InvoiceType string `json:"invoiceType"`
}

// PaymentOrderRequest is the body POSTed to the payment orders endpoint.
type PaymentOrderRequest struct {
	PaymentOrder *PaymentOrder `json:"paymentorder"`
}

type PaymentOrder struct {
	Operation               Operation      `json:"operation"`
	Intent                  Intent         `json:"intent,omitempty"`
	Currency                string         `json:"currency,omitempty"`
	Amount                  *int64         `json:"amount,omitempty"`
	VatAmount               *int64         `json:"vatAmount,omitempty"`
	Description             string         `json:"description,omitempty"`
	UserAgent               string         `json:"userAgent,omitempty"`
	Language                string         `json:"language,omitempty"`
	GeneratePaymentToken    *bool          `json:"generatePaymentToken,omitempty"`
	GenerateRecurrenceToken *bool          `json:"generateRecurrenceToken,omitempty"`
	PaymentToken            string         `json:"paymentToken,omitempty"`
	RecurrenceToken         string         `json:"recurrenceToken,omitempty"`
	DisablePaymentMenu      bool           `json:"disablePaymentMenu,omitempty"`
	URLs                    *URLs          `json:"urls,omitempty"`
	PayeeInfo               *PayeeInfo     `json:"payeeInfo,omitempty"`
	Payer                   *Payer         `json:"payer,omitempty"`
	Cardholder              *Cardholder    `json:"cardholder,omitempty"`
	OrderItems              []OrderItem    `json:"orderItems,omitempty"`
	RiskIndicator           map[string]any `json:"riskIndicator,omitempty"`
	Metadata                map[string]any `json:"metadata,omitempty"`
}

type Payer struct {
	ConsumerProfileRef string `json:"consumerProfileRef,omitempty"`
	Email              string `json:"email,omitempty"`
	Msisdn             string `json:"msisdn,omitempty"`
}

type OrderItem struct {
	Reference     string `json:"reference"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Class         string `json:"class"`
	ItemURL       string `json:"itemUrl,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Description   string `json:"description,omitempty"`
	Quantity      int64  `json:"quantity"`
	QuantityUnit  string `json:"quantityUnit"`
	UnitPrice     int64  `json:"unitPrice"`
	DiscountPrice int64  `json:"discountPrice,omitempty"`
	VatPercent    int64  `json:"vatPercent"`
	Amount        int64  `json:"amount"`
	VatAmount     int64  `json:"vatAmount"`
}

// TransactionRequest is the body for capture, cancel and refund.
type TransactionRequest struct {
	Transaction Transaction `json:"transaction"`
}

type Transaction struct {
	Amount         int64  `json:"amount"`
	VatAmount      int64  `json:"vatAmount"`
	Description    string `json:"description,omitempty"`
	PayeeReference string `json:"payeeReference"`
}

// AbortRequest is PATCHed onto a payment or payment order.
type AbortRequest struct {
	Payment      *Abort `json:"payment,omitempty"`
	PaymentOrder *Abort `json:"paymentorder,omitempty"`
}

type Abort struct {
	Operation   string `json:"operation"`
	AbortReason string `json:"abortReason"`
}

// ConsumerRequest starts a consumer identification session.
type ConsumerRequest struct {
	Operation                               Operation `json:"operation"`
	Language                                string    `json:"language,omitempty"`
	Msisdn                                  string    `json:"msisdn,omitempty"`
	Email                                   string    `json:"email,omitempty"`
	ConsumerCountryCode                     string    `json:"consumerCountryCode,omitempty"`
	ShippingAddressRestrictedToCountryCodes []string  `json:"shippingAddressRestrictedToCountryCodes,omitempty"`
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
