// Package config holds the merchant configuration snapshot the engine runs
// with, and the service configuration the host binary boots from.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Recognized configuration keys. Anything else in an override map is ignored.
const (
	KeyDebug                = "debug"
	KeyAccessToken          = "access_token"
	KeyPayeeID              = "payee_id"
	KeyPayeeName            = "payee_name"
	KeyMode                 = "mode"
	KeyAutoCapture          = "auto_capture"
	KeySubsite              = "subsite"
	KeyLanguage             = "language"
	KeySaveCC               = "save_cc"
	KeyTermsURL             = "terms_url"
	KeyLogoURL              = "logo_url"
	KeyUsePayerInfo         = "use_payer_info"
	KeyUseCardholderInfo    = "use_cardholder_info"
	KeyRejectCreditCards    = "reject_credit_cards"
	KeyRejectDebitCards     = "reject_debit_cards"
	KeyRejectConsumerCards  = "reject_consumer_cards"
	KeyRejectCorporateCards = "reject_corporate_cards"
	KeyCheckoutMethod       = "checkout_method"
)

// Checkout methods.
const (
	CheckoutMethodRedirect = "redirect"
	CheckoutMethodSeamless = "seamless"
)

// Configuration is the immutable merchant settings snapshot.
type Configuration struct {
	Debug       bool
	AccessToken string
	PayeeID     string
	PayeeName   string
	// TestMode selects the external integration environment.
	TestMode    bool
	AutoCapture bool
	Subsite     string
	Language    string
	SaveCC      bool
	TermsURL    string
	LogoURL     string

	UsePayerInfo      bool
	UseCardholderInfo bool

	RejectCreditCards    bool
	RejectDebitCards     bool
	RejectConsumerCards  bool
	RejectCorporateCards bool

	CheckoutMethod string
}

// Defaults returns the default value of every recognized key.
func Defaults() map[string]any {
	return map[string]any{
		KeyDebug:                true,
		KeyAccessToken:          "",
		KeyPayeeID:              "",
		KeyPayeeName:            "",
		KeyMode:                 true,
		KeyAutoCapture:          false,
		KeySubsite:              "",
		KeyLanguage:             "en-US",
		KeySaveCC:               false,
		KeyTermsURL:             "",
		KeyLogoURL:              "",
		KeyUsePayerInfo:         true,
		KeyUseCardholderInfo:    true,
		KeyRejectCreditCards:    false,
		KeyRejectDebitCards:     false,
		KeyRejectConsumerCards:  false,
		KeyRejectCorporateCards: false,
		KeyCheckoutMethod:       "",
	}
}

// Merge returns defaults overridden by every override that is present and non-nil.
// Neither input is modified. Keys only present in overrides are carried over.
func Merge(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		if v == nil {
			continue
		}
		merged[k] = v
	}
	return merged
}

// FromMap builds a Configuration from adapter supplied overrides merged onto Defaults.
func FromMap(overrides map[string]any) (Configuration, error) {
	m := Merge(Defaults(), overrides)
	var cfg Configuration
	p := parser{values: m}

	cfg.Debug = p.boolean(KeyDebug)
	cfg.AccessToken = p.str(KeyAccessToken)
	cfg.PayeeID = p.str(KeyPayeeID)
	cfg.PayeeName = p.str(KeyPayeeName)
	cfg.TestMode = p.mode(KeyMode)
	cfg.AutoCapture = p.boolean(KeyAutoCapture)
	cfg.Subsite = p.str(KeySubsite)
	cfg.Language = p.str(KeyLanguage)
	cfg.SaveCC = p.boolean(KeySaveCC)
	cfg.TermsURL = p.str(KeyTermsURL)
	cfg.LogoURL = p.str(KeyLogoURL)
	cfg.UsePayerInfo = p.boolean(KeyUsePayerInfo)
	cfg.UseCardholderInfo = p.boolean(KeyUseCardholderInfo)
	cfg.RejectCreditCards = p.boolean(KeyRejectCreditCards)
	cfg.RejectDebitCards = p.boolean(KeyRejectDebitCards)
	cfg.RejectConsumerCards = p.boolean(KeyRejectConsumerCards)
	cfg.RejectCorporateCards = p.boolean(KeyRejectCorporateCards)
	cfg.CheckoutMethod = strings.ToLower(p.str(KeyCheckoutMethod))

	if p.err != nil {
		return Configuration{}, p.err
	}
	return cfg, nil
}

// IsTestMode reports whether requests go to the external integration environment.
func (c Configuration) IsTestMode() bool {
	return c.TestMode
}

// IsSeamless reports whether the checkout is embedded rather than redirected.
func (c Configuration) IsSeamless() bool {
	return c.CheckoutMethod == CheckoutMethodSeamless
}

// parser records the first coercion failure and keeps going.
type parser struct {
	values map[string]any
	err    error
}

func (p *parser) fail(key string, v any, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("config: %s: cannot use %v (%T) as %s", key, v, v, want)
	}
}

func (p *parser) boolean(key string) bool {
	switch v := p.values[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "yes", "true", "on":
			return true
		case "", "0", "no", "false", "off":
			return false
		}
		p.fail(key, v, "bool")
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		p.fail(key, v, "bool")
	}
	return false
}

func (p *parser) str(key string) string {
	switch v := p.values[key].(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		p.fail(key, v, "string")
	}
	return ""
}

// mode accepts the historic boolean flag (true = test) as well as named environments.
func (p *parser) mode(key string) bool {
	if s, ok := p.values[key].(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "test", "testing", "sandbox":
			return true
		case "production", "prod", "live":
			return false
		}
	}
	return p.boolean(key)
}
