// Package orchestrator wires the engine together. Core owns the
// configuration snapshot, the gateway transport, the dispatcher, the order
// accessor and one composer per instrument, and runs follow-up actions on
// created payments.
package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/yourorg/paymentcore/internal/adapter"
	"github.com/yourorg/paymentcore/internal/composer"
	"github.com/yourorg/paymentcore/internal/config"
	"github.com/yourorg/paymentcore/internal/dispatcher"
	"github.com/yourorg/paymentcore/internal/gateway"
	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/monitor"
	"github.com/yourorg/paymentcore/internal/order"
	"github.com/yourorg/paymentcore/internal/policy"
	"github.com/yourorg/paymentcore/internal/txstore"
)

// Core is the engine entry point for one merchant configuration. It is safe
// for concurrent use once constructed.
type Core struct {
	cfg        config.Configuration
	platform   adapter.PlatformAdapter
	accessor   *order.Accessor
	dispatcher *dispatcher.Dispatcher
	logger     *logging.Facade
	registry   txstore.Store
	policy     *policy.StatusPolicy
	composers  *composer.Set
}

// New loads the configuration from platform and builds the engine.
func New(ctx context.Context, platform adapter.PlatformAdapter, opts ...Option) (*Core, error) {
	if platform == nil {
		panic("platform adapter cannot be nil")
	}
	o := &options{retryAttempts: gateway.DefaultRetryAttempts}
	for _, opt := range opts {
		opt(o)
	}

	raw, err := platform.GetConfiguration(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg, err := config.FromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	transport := o.transport
	if transport == nil {
		mode := gateway.ModeProduction
		if cfg.IsTestMode() {
			mode = gateway.ModeTest
		}
		client, err := gateway.New(gateway.Config{
			AccessToken:   cfg.AccessToken,
			PayeeID:       cfg.PayeeID,
			Mode:          mode,
			BaseURL:       o.baseURL,
			HTTPClient:    o.httpClient,
			RetryAttempts: o.retryAttempts,
			RetryDelay:    o.retryDelay,
			Breaker:       o.breaker,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gateway client: %w", err)
		}
		transport = client
	}

	var dispatchOpts []dispatcher.Option
	if o.recorder != nil {
		dispatchOpts = append(dispatchOpts, dispatcher.WithRecorder(o.recorder))
	}
	if !o.noValidation {
		validator := o.validator
		if validator == nil {
			cm, err := monitor.Default()
			if err != nil {
				return nil, fmt.Errorf("failed to load contracts: %w", err)
			}
			validator = cm
		}
		dispatchOpts = append(dispatchOpts, dispatcher.WithValidator(validator))
	}

	rules := o.rules
	if rules == nil {
		rules = policy.DefaultRules()
	}
	statusPolicy, err := policy.NewStatusPolicy(rules)
	if err != nil {
		return nil, err
	}

	registry := o.store
	if registry == nil {
		registry = txstore.NewMemoryStore()
	}

	c := &Core{
		cfg:        cfg,
		platform:   platform,
		accessor:   order.NewAccessor(platform, cfg),
		dispatcher: dispatcher.New(transport, dispatchOpts...),
		logger:     logging.NewFacade(cfg.Debug, platform),
		registry:   registry,
		policy:     statusPolicy,
	}
	c.composers = composer.NewSet(composer.Deps{
		Config:    cfg,
		Snapshots: c.accessor,
		Sender:    c.dispatcher,
		Logger:    c.logger,
		Registry:  registry,
	})
	return c, nil
}

// Configuration returns the merchant settings the engine runs with.
func (c *Core) Configuration() config.Configuration { return c.cfg }

// Orders exposes the snapshot accessors.
func (c *Core) Orders() *order.Accessor { return c.accessor }

func (c *Core) Registry() txstore.Store { return c.registry }

func (c *Core) Card() *composer.Card           { return c.composers.Card }
func (c *Core) Mobilepay() *composer.Mobilepay { return c.composers.Mobilepay }
func (c *Core) Swish() *composer.Swish         { return c.composers.Swish }
func (c *Core) Vipps() *composer.Vipps         { return c.composers.Vipps }
func (c *Core) Trustly() *composer.Trustly     { return c.composers.Trustly }
func (c *Core) Invoice() *composer.Invoice     { return c.composers.Invoice }
func (c *Core) Checkout() *composer.Checkout   { return c.composers.Checkout }
func (c *Core) Consumer() *composer.Consumer   { return c.composers.Consumer }

// Composer selects the composer for instrument.
func (c *Core) Composer(instrument model.Instrument) (composer.Composer, error) {
	comp, ok := c.composers.Get(instrument)
	if !ok {
		return nil, model.NewValidationError("instrument", fmt.Sprintf("unknown instrument %q", instrument))
	}
	return comp, nil
}

// CheckCredentials runs the credential probe of instrument.
func (c *Core) CheckCredentials(ctx context.Context, instrument model.Instrument) error {
	if _, err := c.Composer(instrument); err != nil {
		return err
	}
	p, ok := c.composers.Prober(instrument)
	if !ok {
		return model.NewValidationError("instrument", fmt.Sprintf("%s has no credential probe", instrument))
	}
	return p.CheckCredentials(ctx)
}

// Log writes to the platform log while debug is enabled.
func (c *Core) Log(ctx context.Context, level logging.Level, message any, fields map[string]any) {
	c.logger.Log(ctx, level, message, fields)
}

// CanUpdateOrderStatus reports whether the order may move to target. The
// current status is read from the platform; nothing is sent to the gateway.
func (c *Core) CanUpdateOrderStatus(ctx context.Context, orderID string, target order.Status, transactionID string) (bool, error) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "Core.CanUpdateOrderStatus", oteltrace.WithAttributes(
		attribute.String("payment.order_id", orderID),
		attribute.String("order.target_status", string(target)),
	))
	defer span.End()

	if target == "" {
		return false, model.NewValidationError("status", "target status is required")
	}
	raw, err := c.platform.GetOrderData(ctx, orderID)
	if err != nil {
		return false, err
	}
	current := string(order.StatusPending)
	if s, ok := raw[order.KeyStatus].(string); ok && s != "" {
		current = s
	}

	d, err := c.policy.Evaluate(current, string(target), transactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	if !d.Allowed {
		c.logger.Debug(ctx, fmt.Sprintf("order %s: %s -> %s denied by %s", orderID, current, target, d.DeniedBy), nil)
	}
	span.SetAttributes(attribute.Bool("order.transition_allowed", d.Allowed))
	return d.Allowed, nil
}
