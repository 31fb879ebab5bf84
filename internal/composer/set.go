package composer

import (
	"github.com/yourorg/paymentcore/internal/model"
)

// Set holds one composer per instrument and selects them by instrument tag.
type Set struct {
	Card      *Card
	Mobilepay *Mobilepay
	Swish     *Swish
	Vipps     *Vipps
	Trustly   *Trustly
	Invoice   *Invoice
	Checkout  *Checkout
	Consumer  *Consumer

	byInstrument map[model.Instrument]Composer
}

// NewSet builds every composer over the same dependencies.
func NewSet(deps Deps) *Set {
	s := &Set{
		Card:      NewCard(deps),
		Mobilepay: NewMobilepay(deps),
		Swish:     NewSwish(deps),
		Vipps:     NewVipps(deps),
		Trustly:   NewTrustly(deps),
		Invoice:   NewInvoice(deps),
		Checkout:  NewCheckout(deps),
		Consumer:  NewConsumer(deps),
	}
	s.byInstrument = make(map[model.Instrument]Composer, len(model.Instruments()))
	for _, c := range []Composer{s.Card, s.Mobilepay, s.Swish, s.Vipps, s.Trustly, s.Invoice, s.Checkout, s.Consumer} {
		s.byInstrument[c.Instrument()] = c
	}
	return s
}

// Get returns the composer for instrument.
func (s *Set) Get(instrument model.Instrument) (Composer, bool) {
	c, ok := s.byInstrument[instrument]
	return c, ok
}

// Prober returns the credential probe of instrument, if it has one.
func (s *Set) Prober(instrument model.Instrument) (Prober, bool) {
	c, ok := s.byInstrument[instrument]
	if !ok {
		return nil, false
	}
	p, ok := c.(Prober)
	return p, ok
}
