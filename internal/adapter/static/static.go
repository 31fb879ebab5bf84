// Package static serves platform data from a JSON fixture document. It backs
// the demo server and integration tests where no real shop is attached.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/yourorg/paymentcore/internal/adapter"
	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/model"
)

var _ adapter.PlatformAdapter = (*Adapter)(nil)

// Document is the fixture file layout.
type Document struct {
	Configuration map[string]any   `json:"configuration"`
	Orders        map[string]Order `json:"orders"`
}

// Order groups everything the platform knows about one order.
type Order struct {
	Order map[string]any `json:"order"`
	URLs  map[string]any `json:"urls,omitempty"`
	Payee map[string]any `json:"payee,omitempty"`
	Risk  map[string]any `json:"risk,omitempty"`
}

// Adapter is a read-only platform backed by a Document.
type Adapter struct {
	doc  Document
	sink *logging.SlogSink
}

// New wraps doc. Merchant overrides replace keys from the document's configuration.
func New(doc Document, merchant map[string]any, logger *slog.Logger) *Adapter {
	cfg := make(map[string]any, len(doc.Configuration)+len(merchant))
	for k, v := range doc.Configuration {
		cfg[k] = v
	}
	for k, v := range merchant {
		cfg[k] = v
	}
	doc.Configuration = cfg
	if doc.Orders == nil {
		doc.Orders = map[string]Order{}
	}
	return &Adapter{doc: doc, sink: logging.NewSlogSink(logger)}
}

// Load reads a fixture document from path.
func Load(path string, merchant map[string]any, logger *slog.Logger) (*Adapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	return New(doc, merchant, logger), nil
}

func (a *Adapter) GetConfiguration(context.Context) (map[string]any, error) {
	return a.doc.Configuration, nil
}

func (a *Adapter) GetOrderData(_ context.Context, orderID string) (map[string]any, error) {
	o, err := a.order(orderID)
	if err != nil {
		return nil, err
	}
	return o.Order, nil
}

func (a *Adapter) GetPlatformUrls(_ context.Context, orderID string) (map[string]any, error) {
	o, err := a.order(orderID)
	if err != nil {
		return nil, err
	}
	return o.URLs, nil
}

func (a *Adapter) GetRiskIndicator(_ context.Context, orderID string) (map[string]any, error) {
	o, err := a.order(orderID)
	if err != nil {
		return nil, err
	}
	return o.Risk, nil
}

func (a *Adapter) GetPayeeInfo(_ context.Context, orderID string) (map[string]any, error) {
	o, err := a.order(orderID)
	if err != nil {
		return nil, err
	}
	return o.Payee, nil
}

func (a *Adapter) Log(ctx context.Context, level logging.Level, message string, fields map[string]any) {
	a.sink.Log(ctx, level, message, fields)
}

func (a *Adapter) order(orderID string) (Order, error) {
	o, ok := a.doc.Orders[orderID]
	if !ok {
		return Order{}, model.NewNotFoundError("order " + orderID)
	}
	return o, nil
}
