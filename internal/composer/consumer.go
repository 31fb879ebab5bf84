package composer

import (
	"context"
	"strings"

	"github.com/yourorg/paymentcore/internal/model"
	"github.com/yourorg/paymentcore/internal/monitor"
)

const consumersPath = "/psp/consumers"

// SessionParams identify the consumer to the gateway. All fields are optional.
type SessionParams struct {
	Msisdn      string
	Email       string
	CountryCode string
	// ShippingCountries restricts the shipping addresses the consumer may pick.
	ShippingCountries []string
}

// Consumer starts consumer identification sessions for checkout. It creates
// no payments and supports no actions.
type Consumer struct {
	base
}

func NewConsumer(deps Deps) *Consumer {
	return &Consumer{base: newBase(model.InstrumentConsumer, consumersPath, deps)}
}

func (c *Consumer) Endpoints() Endpoints {
	return Endpoints{}
}

func (c *Consumer) ComposeInitiateSession(params SessionParams) *model.ConsumerRequest {
	var countries []string
	for _, cc := range params.ShippingCountries {
		if cc = strings.ToUpper(strings.TrimSpace(cc)); cc != "" {
			countries = append(countries, cc)
		}
	}
	return &model.ConsumerRequest{
		Operation:                               model.OperationConsumerSession,
		Language:                                c.cfg().Language,
		Msisdn:                                  params.Msisdn,
		Email:                                   params.Email,
		ConsumerCountryCode:                     strings.ToUpper(params.CountryCode),
		ShippingAddressRestrictedToCountryCodes: countries,
	}
}

// InitiateSession returns the session whose view-consumer-identification
// operation is embedded by the shop.
func (c *Consumer) InitiateSession(ctx context.Context, params SessionParams) (*model.Response, error) {
	return c.call(ctx, string(model.OperationConsumerSession), func(ctx context.Context) (*model.Response, error) {
		req := c.paymentRequest(c.ComposeInitiateSession(params), monitor.ContractConsumer, model.OperationConsumerSession, "", "", 0)
		resp, err := c.deps.Sender.Send(ctx, req)
		if err != nil {
			c.deps.Logger.Debug(ctx, "consumer::InitiateSession: API Exception: "+err.Error(), nil)
			return nil, model.Normalize(err)
		}
		return resp, nil
	})
}
