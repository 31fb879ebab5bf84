package txstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yourorg/paymentcore/internal/model"
)

const (
	defaultKeyPrefix = "paymentcore:payments:"
	defaultTTL       = 30 * 24 * time.Hour
)

// RedisStore keeps records as JSON strings so several engine processes can
// share one registry.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTTL sets record expiry. Zero keeps records forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	s := &RedisStore{client: client, prefix: defaultKeyPrefix, ttl: defaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	if rec.PaymentID == "" {
		return model.NewValidationError("payment id", "must not be empty")
	}
	payload, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal payment record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+rec.PaymentID, payload, s.ttl)
	if rec.OrderID != "" {
		pipe.Set(ctx, s.prefix+OrderKey(rec.OrderID), payload, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store payment record: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, model.NewNotFoundError("payment " + id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get payment record: %w", err)
	}

	var rec Record
	if err := sonic.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal payment record: %w", err)
	}
	return rec, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
