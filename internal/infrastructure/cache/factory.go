package cache

import (
	"context"
	"fmt"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backends accepted by idempotency.backend
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// StoreFactory builds the idempotency store selected by configuration
type StoreFactory struct {
	redis                 config.RedisConfig
	backend               string
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption configures a StoreFactory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the memory store. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a factory for the given backend
func NewStoreFactory(backend string, redisCfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redis:                 redisCfg,
		backend:               backend,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the configured store. A redis backend that cannot be
// reached falls back to memory when allowed.
func (f *StoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	switch f.backend {
	case "", BackendMemory:
		f.logger.Info("using in-memory idempotency store")
		return NewMemoryStore(), nil
	case BackendRedis:
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", f.backend)
	}

	store, err := NewRedisStore(ctx, f.redis.Addr(), f.redis.Password, f.redis.DB)
	if err == nil {
		f.logger.Info("using redis idempotency store", zap.String("addr", f.redis.Addr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	f.logger.Warn("redis unavailable, falling back to in-memory idempotency store; "+
		"keys are not shared between instances",
		zap.Error(err))
	return NewMemoryStore(), nil
}
