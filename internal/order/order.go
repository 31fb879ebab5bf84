// Package order provides read-only snapshots of a platform order and the
// Accessor that builds them from platform adapter data merged onto defaults.
package order

import (
	"regexp"
	"strings"

	"github.com/yourorg/paymentcore/internal/model"
)

// Status is the platform order status as the engine understands it.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusCaptured   Status = "captured"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusFailed     Status = "failed"
)

// Order field keys in adapter supplied order data.
const (
	KeyOrderID         = "order_id"
	KeyStatus          = "status"
	KeyCurrency        = "currency"
	KeyAmount          = "amount"
	KeyVatAmount       = "vat_amount"
	KeyLanguage        = "language"
	KeyNeedsShipping   = "needs_shipping"
	KeyPaymentToken    = "payment_token"
	KeyRecurrenceToken = "recurrence_token"
)

// Order is an immutable view of one platform order. Amounts are minor units.
type Order struct {
	ID              string `json:"-"`
	Status          Status `json:"status"`
	Currency        string `json:"currency"`
	Amount          int64  `json:"amount"`
	VatAmount       int64  `json:"vat_amount"`
	Description     string `json:"description"`
	Language        string `json:"language"`
	PayerReference  string `json:"payer_reference"`
	UserAgent       string `json:"http_user_agent"`
	NeedsShipping   bool   `json:"needs_shipping"`
	PaymentToken    string `json:"payment_token"`
	RecurrenceToken string `json:"recurrence_token"`

	BillingFirstName string `json:"billing_first_name"`
	BillingLastName  string `json:"billing_last_name"`
	BillingEmail     string `json:"billing_email"`
	BillingPhone     string `json:"billing_phone"`
	BillingAddress1  string `json:"billing_address_1"`
	BillingAddress2  string `json:"billing_address_2"`
	BillingCity      string `json:"billing_city"`
	BillingPostcode  string `json:"billing_postcode"`
	BillingCountry   string `json:"billing_country"`

	ShippingFirstName string `json:"shipping_first_name"`
	ShippingLastName  string `json:"shipping_last_name"`
	ShippingEmail     string `json:"shipping_email"`
	ShippingPhone     string `json:"shipping_phone"`
	ShippingAddress1  string `json:"shipping_address_1"`
	ShippingAddress2  string `json:"shipping_address_2"`
	ShippingCity      string `json:"shipping_city"`
	ShippingPostcode  string `json:"shipping_postcode"`
	ShippingCountry   string `json:"shipping_country"`

	Items []Item `json:"items"`
}

// Item is a payment order line.
type Item struct {
	Reference     string `json:"reference"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Class         string `json:"class"`
	ItemURL       string `json:"item_url"`
	ImageURL      string `json:"image_url"`
	Description   string `json:"description"`
	Quantity      int64  `json:"quantity"`
	QuantityUnit  string `json:"quantity_unit"`
	UnitPrice     int64  `json:"unit_price"`
	DiscountPrice int64  `json:"discount_price"`
	VatPercent    int64  `json:"vat_percent"`
	Amount        int64  `json:"amount"`
	VatAmount     int64  `json:"vat_amount"`
}

// Address is one of the order's postal addresses.
type Address struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address1  string
	Address2  string
	City      string
	Postcode  string
	Country   string
}

// StreetAddress joins the non-empty address lines with ", ".
func (a Address) StreetAddress() string {
	parts := make([]string, 0, 2)
	for _, line := range []string{a.Address1, a.Address2} {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, ", ")
}

// Wire renders the address in gateway form. The co-address is always empty.
func (a Address) Wire() *model.Address {
	return &model.Address{
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Email:         a.Email,
		Msisdn:        a.Phone,
		StreetAddress: a.StreetAddress(),
		CoAddress:     "",
		City:          a.City,
		ZipCode:       a.Postcode,
		CountryCode:   a.Country,
	}
}

func (o *Order) Billing() Address {
	return Address{
		FirstName: o.BillingFirstName,
		LastName:  o.BillingLastName,
		Email:     o.BillingEmail,
		Phone:     o.BillingPhone,
		Address1:  o.BillingAddress1,
		Address2:  o.BillingAddress2,
		City:      o.BillingCity,
		Postcode:  o.BillingPostcode,
		Country:   o.BillingCountry,
	}
}

// Shipping falls back to billing contact details the platform left empty.
func (o *Order) Shipping() Address {
	addr := Address{
		FirstName: o.ShippingFirstName,
		LastName:  o.ShippingLastName,
		Email:     o.ShippingEmail,
		Phone:     o.ShippingPhone,
		Address1:  o.ShippingAddress1,
		Address2:  o.ShippingAddress2,
		City:      o.ShippingCity,
		Postcode:  o.ShippingPostcode,
		Country:   o.ShippingCountry,
	}
	if addr.Email == "" {
		addr.Email = o.BillingEmail
	}
	if addr.Phone == "" {
		addr.Phone = o.BillingPhone
	}
	return addr
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate checks the invariants every composer relies on.
func (o *Order) Validate() error {
	if !currencyPattern.MatchString(o.Currency) {
		return model.NewValidationError(KeyCurrency, "must be a three letter ISO 4217 code")
	}
	if o.Amount < 0 {
		return model.NewValidationError(KeyAmount, "must not be negative")
	}
	if o.VatAmount < 0 {
		return model.NewValidationError(KeyVatAmount, "must not be negative")
	}
	for _, item := range o.Items {
		if item.Amount < 0 || item.VatAmount < 0 || item.Quantity < 0 {
			return model.NewValidationError("items", "amounts and quantities must not be negative")
		}
	}
	return nil
}
