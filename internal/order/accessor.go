package order

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/yourorg/paymentcore/internal/config"
	"github.com/yourorg/paymentcore/internal/model"
)

// Source is the part of the platform adapter the Accessor reads from.
type Source interface {
	GetOrderData(ctx context.Context, orderID string) (map[string]any, error)
	GetPlatformUrls(ctx context.Context, orderID string) (map[string]any, error)
	GetRiskIndicator(ctx context.Context, orderID string) (map[string]any, error)
	GetPayeeInfo(ctx context.Context, orderID string) (map[string]any, error)
}

// Accessor builds snapshots by merging adapter data onto defaults derived
// from the configuration. Nothing is cached: every call hits the source.
type Accessor struct {
	source Source
	cfg    config.Configuration
}

// NewAccessor creates an Accessor.
func NewAccessor(source Source, cfg config.Configuration) *Accessor {
	if source == nil {
		panic("order source cannot be nil")
	}
	return &Accessor{source: source, cfg: cfg}
}

// FetchOrder returns a validated order snapshot. Source errors are returned unchanged.
func (a *Accessor) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	raw, err := a.source.GetOrderData(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defaults := map[string]any{
		KeyStatus:   string(StatusPending),
		KeyLanguage: a.cfg.Language,
	}

	var o Order
	if err := decode(config.Merge(defaults, raw), &o); err != nil {
		return nil, model.NewValidationError("order data", err.Error())
	}
	o.ID = orderID
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (a *Accessor) FetchPlatformURLs(ctx context.Context, orderID string) (*PlatformURLs, error) {
	raw, err := a.source.GetPlatformUrls(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defaults := map[string]any{
		"terms_url": a.cfg.TermsURL,
		"logo_url":  a.cfg.LogoURL,
		"host_urls": []string{},
	}

	var u PlatformURLs
	if err := decode(config.Merge(defaults, raw), &u); err != nil {
		return nil, model.NewValidationError("platform urls", err.Error())
	}
	return &u, nil
}

// FetchPayeeInfo merges adapter values field by field over the configured payee.
func (a *Accessor) FetchPayeeInfo(ctx context.Context, orderID string) (*PayeeInfo, error) {
	raw, err := a.source.GetPayeeInfo(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defaults := map[string]any{
		"payee_id":        a.cfg.PayeeID,
		"payee_name":      a.cfg.PayeeName,
		"payee_reference": GeneratePayeeReference(orderID),
		"order_reference": orderID,
	}
	if a.cfg.Subsite != "" {
		defaults["subsite"] = a.cfg.Subsite
	}

	var p PayeeInfo
	if err := decode(config.Merge(defaults, raw), &p); err != nil {
		return nil, model.NewValidationError("payee info", err.Error())
	}
	return &p, nil
}

func (a *Accessor) FetchRiskIndicator(ctx context.Context, orderID string) (RiskIndicator, error) {
	raw, err := a.source.GetRiskIndicator(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make(RiskIndicator, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out, nil
}

// Configuration returns the configuration defaults are derived from.
func (a *Accessor) Configuration() config.Configuration {
	return a.cfg
}

func decode(m map[string]any, out any) error {
	data, err := sonic.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding fields: %w", err)
	}
	return sonic.Unmarshal(data, out)
}
