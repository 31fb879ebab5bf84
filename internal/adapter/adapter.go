// Package adapter defines the interface an e-commerce platform implements to
// feed the engine with configuration, order data and a log sink.
// Adapters return raw field maps; the engine merges them onto its own
// defaults, so an adapter only needs to supply what it knows.
package adapter

import (
	"context"

	"github.com/yourorg/paymentcore/internal/logging"
)

// PlatformAdapter is implemented once per platform (WooCommerce, Magento, ...).
//
// Order ids are opaque to the engine. When an order cannot be resolved the
// adapter returns an error wrapping model.ErrNotFound; the engine passes it on
// as it is.
type PlatformAdapter interface {
	// GetConfiguration returns merchant setting overrides keyed by the
	// config.Key* names.
	GetConfiguration(ctx context.Context) (map[string]any, error)

	// GetOrderData returns the order fields (order.Key* names).
	GetOrderData(ctx context.Context, orderID string) (map[string]any, error)

	// GetPlatformUrls returns complete/cancel/callback/terms/logo and host urls.
	GetPlatformUrls(ctx context.Context, orderID string) (map[string]any, error)

	// GetRiskIndicator returns risk scoring fields passed to the gateway verbatim.
	GetRiskIndicator(ctx context.Context, orderID string) (map[string]any, error)

	// GetPayeeInfo returns payee overrides for the order.
	GetPayeeInfo(ctx context.Context, orderID string) (map[string]any, error)

	logging.Sink
}
