// Package txstore remembers which instrument created a payment so that
// follow-up actions can be routed to that instrument's endpoints.
package txstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/paymentcore/internal/model"
)

// Record links a created gateway payment to its order and instrument.
type Record struct {
	PaymentID  string           `json:"payment_id"` // gateway href, e.g. /psp/creditcard/payments/{id}
	Instrument model.Instrument `json:"instrument"`
	OrderID    string           `json:"order_id"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Store is the payment registry. Get accepts a payment id or OrderKey(orderID)
// and returns a NotFound exception for unknown ids.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
}

const orderPrefix = "order:"

// OrderKey is the lookup key of the latest payment created for an order.
func OrderKey(orderID string) string {
	return orderPrefix + orderID
}

// IsOrderKey reports whether id was built by OrderKey.
func IsOrderKey(id string) bool {
	return strings.HasPrefix(id, orderPrefix)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	if rec.PaymentID == "" {
		return model.NewValidationError("payment id", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.PaymentID] = rec
	if rec.OrderID != "" {
		s.records[OrderKey(rec.OrderID)] = rec
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, model.NewNotFoundError("payment " + id)
	}
	return rec, nil
}
