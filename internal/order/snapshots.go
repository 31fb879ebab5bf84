package order

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/yourorg/paymentcore/internal/model"
)

// PlatformURLs are the shop urls the gateway sends the payer back to.
type PlatformURLs struct {
	CompleteURL string   `json:"complete_url"`
	CancelURL   string   `json:"cancel_url"`
	CallbackURL string   `json:"callback_url"`
	TermsURL    string   `json:"terms_url"`
	LogoURL     string   `json:"logo_url"`
	HostURLs    []string `json:"host_urls"`
}

func (u *PlatformURLs) Wire() *model.URLs {
	return &model.URLs{
		HostURLs:          u.HostURLs,
		CompleteURL:       u.CompleteURL,
		CancelURL:         u.CancelURL,
		CallbackURL:       u.CallbackURL,
		TermsOfServiceURL: u.TermsURL,
		LogoURL:           u.LogoURL,
	}
}

// PayeeInfo identifies the merchant and correlates the payment with the order.
type PayeeInfo struct {
	PayeeID        string `json:"payee_id"`
	PayeeName      string `json:"payee_name"`
	PayeeReference string `json:"payee_reference"`
	OrderReference string `json:"order_reference"`
	Subsite        string `json:"subsite,omitempty"`
}

func (p *PayeeInfo) Wire() *model.PayeeInfo {
	return &model.PayeeInfo{
		PayeeID:        p.PayeeID,
		PayeeReference: p.PayeeReference,
		PayeeName:      p.PayeeName,
		OrderReference: p.OrderReference,
		Subsite:        p.Subsite,
	}
}

// RiskIndicator is passed to the gateway without interpretation.
type RiskIndicator map[string]any

const maxPayeeReferenceLength = 30

// GeneratePayeeReference derives the payee reference from an order id: its
// ASCII letters and digits, at most 30 of them. Ids without any fall back to
// a SHA-256 prefix so the result stays deterministic.
func GeneratePayeeReference(orderID string) string {
	var b strings.Builder
	for _, r := range orderID {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		b.WriteRune(r)
		if b.Len() == maxPayeeReferenceLength {
			break
		}
	}
	if b.Len() > 0 {
		return b.String()
	}
	sum := sha256.Sum256([]byte(orderID))
	return hex.EncodeToString(sum[:])[:maxPayeeReferenceLength]
}
