package composer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/paymentcore/internal/adapter/mock"
	"github.com/yourorg/paymentcore/internal/config"
	"github.com/yourorg/paymentcore/internal/dispatcher"
	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/order"
	"github.com/yourorg/paymentcore/internal/txstore"
)

// fakeSender records requests and answers with a fixed response or error.
type fakeSender struct {
	mu       sync.Mutex
	requests []dispatcher.Request
	resp     *model.Response
	err      error
}

func (f *fakeSender) Send(_ context.Context, req dispatcher.Request) (*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeSender) last(t *testing.T) dispatcher.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type fixture struct {
	adapter  *mock.Adapter
	sender   *fakeSender
	registry *txstore.MemoryStore
	deps     Deps
}

// newFixture builds composer dependencies over the mock adapter. overrides
// are applied on top of the adapter's configuration.
func newFixture(t *testing.T, overrides map[string]any) *fixture {
	t.Helper()
	adapter := mock.NewAdapter()
	for k, v := range overrides {
		adapter.Configuration[k] = v
	}
	cfg, err := config.FromMap(adapter.Configuration)
	require.NoError(t, err)

	sender := &fakeSender{resp: &model.Response{StatusCode: 201, Data: map[string]any{
		"payment": map[string]any{"id": "/psp/creditcard/payments/5adc265f", "state": "Ready"},
	}}}
	registry := txstore.NewMemoryStore()
	return &fixture{
		adapter:  adapter,
		sender:   sender,
		registry: registry,
		deps: Deps{
			Config:    cfg,
			Snapshots: order.NewAccessor(adapter, cfg),
			Sender:    sender,
			Logger:    logging.NewFacade(cfg.Debug, adapter),
			Registry:  registry,
		},
	}
}

// withOrder replaces the default order data with fields merged over it.
func (f *fixture) withOrder(fields map[string]any) {
	data := mock.DefaultOrder()
	for k, v := range fields {
		data[k] = v
	}
	f.adapter.GetOrderDataFunc = func(context.Context, string) (map[string]any, error) {
		return data, nil
	}
}
