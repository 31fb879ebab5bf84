package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourorg/paymentcore/internal/adapter"
	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/model"
)

// Compile-time check that Adapter satisfies the interface.
var _ adapter.PlatformAdapter = (*Adapter)(nil)

// LogEntry is one call to Adapter.Log.
type LogEntry struct {
	Level   logging.Level
	Message string
	Fields  map[string]any
}

// Adapter implements adapter.PlatformAdapter for testing.
// Each method can be configured via function fields; unset fields fall back
// to a single SEK order with id "1".
type Adapter struct {
	GetConfigurationFunc func(ctx context.Context) (map[string]any, error)
	GetOrderDataFunc     func(ctx context.Context, orderID string) (map[string]any, error)
	GetPlatformUrlsFunc  func(ctx context.Context, orderID string) (map[string]any, error)
	GetRiskIndicatorFunc func(ctx context.Context, orderID string) (map[string]any, error)
	GetPayeeInfoFunc     func(ctx context.Context, orderID string) (map[string]any, error)

	// Configuration is returned by GetConfiguration when no func is set.
	Configuration map[string]any

	mu   sync.Mutex
	logs []LogEntry
}

// NewAdapter creates a mock with test credentials.
func NewAdapter() *Adapter {
	return &Adapter{
		Configuration: map[string]any{
			"access_token": "test-access-token",
			"payee_id":     "5cabf558-5283-482f-b252-4d58e06f6f3b",
			"payee_name":   "Test Merchant",
			"mode":         true,
		},
	}
}

func (m *Adapter) GetConfiguration(ctx context.Context) (map[string]any, error) {
	if m.GetConfigurationFunc != nil {
		return m.GetConfigurationFunc(ctx)
	}
	return m.Configuration, nil
}

func (m *Adapter) GetOrderData(ctx context.Context, orderID string) (map[string]any, error) {
	if m.GetOrderDataFunc != nil {
		return m.GetOrderDataFunc(ctx, orderID)
	}
	if orderID != "1" {
		return nil, notFound(orderID)
	}
	return DefaultOrder(), nil
}

func (m *Adapter) GetPlatformUrls(ctx context.Context, orderID string) (map[string]any, error) {
	if m.GetPlatformUrlsFunc != nil {
		return m.GetPlatformUrlsFunc(ctx, orderID)
	}
	if orderID != "1" {
		return nil, notFound(orderID)
	}
	return map[string]any{
		"complete_url": "https://example.com/checkout/complete",
		"cancel_url":   "https://example.com/checkout/cancel",
		"callback_url": "https://example.com/callback",
		"terms_url":    "https://example.com/terms",
		"logo_url":     "https://example.com/logo.png",
		"host_urls":    []any{"https://example.com"},
	}, nil
}

func (m *Adapter) GetRiskIndicator(ctx context.Context, orderID string) (map[string]any, error) {
	if m.GetRiskIndicatorFunc != nil {
		return m.GetRiskIndicatorFunc(ctx, orderID)
	}
	return map[string]any{}, nil
}

func (m *Adapter) GetPayeeInfo(ctx context.Context, orderID string) (map[string]any, error) {
	if m.GetPayeeInfoFunc != nil {
		return m.GetPayeeInfoFunc(ctx, orderID)
	}
	return map[string]any{}, nil
}

func (m *Adapter) Log(_ context.Context, level logging.Level, message string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, LogEntry{Level: level, Message: message, Fields: fields})
}

// Logs returns a copy of everything logged so far.
func (m *Adapter) Logs() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}

// DefaultOrder is order "1": 100.00 SEK with 20.00 VAT.
func DefaultOrder() map[string]any {
	return map[string]any{
		"order_id":           "1",
		"status":             "pending",
		"currency":           "SEK",
		"amount":             int64(10000),
		"vat_amount":         int64(2000),
		"description":        "Order #1",
		"language":           "sv-SE",
		"payer_reference":    "customer-1",
		"http_user_agent":    "Mozilla/5.0",
		"billing_first_name": "Berta",
		"billing_last_name":  "Bencer",
		"billing_email":      "berta@example.com",
		"billing_phone":      "+46739000001",
		"billing_address_1":  "Hökvägen 5",
		"billing_address_2":  "Lgh 1201",
		"billing_city":       "Stockholm",
		"billing_postcode":   "17674",
		"billing_country":    "SE",
		"needs_shipping":     false,
	}
}

func notFound(orderID string) error {
	return fmt.Errorf("order %s: %w", orderID, model.ErrNotFound)
}
