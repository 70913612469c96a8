package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/stockroom/internal/domain/order"
	"github.com/xiebiao/stockroom/internal/infrastructure/config"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
)

// keyPrefix 幂等键前缀，完整Key为 idempotency:order:{key}
const keyPrefix = "idempotency:order:"

// IdempotencyStore 基于Redis SETNX的下单幂等键存储
// 设计说明：
// 1. Acquire使用SET key 1 NX EX ttl，原子地占用键
// 2. 键在ttl后自动过期，过期后同一个键可以再次下单
// 3. Release直接DEL，用于下单失败后允许重试
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore 创建幂等键存储
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// ProvideIdempotencyStore 按配置选择实现（供Wire使用）
// Redis未启用时返回NopIdempotencyStore
func ProvideIdempotencyStore(client *redis.Client, cfg *config.Config) order.IdempotencyStore {
	if client == nil {
		return order.NopIdempotencyStore{}
	}
	return NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
}

// Acquire 占用幂等键，返回false表示键已被占用
func (s *IdempotencyStore) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, 1, s.ttl).Result()
	if err != nil {
		return false, apperrors.WithCause(apperrors.ErrRedisError, err)
	}
	return ok, nil
}

// Release 释放幂等键
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return apperrors.WithCause(apperrors.ErrRedisError, err)
	}
	return nil
}
