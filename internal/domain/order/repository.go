package order

import (
	"context"
)

// Repository 订单仓储接口(依赖倒置原则)
type Repository interface {
	// Create 创建订单,回填ID和CreatedAt
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单
	FindByID(ctx context.Context, id uint) (*Order, error)

	// FindAll 查询全部订单(按ID升序)
	FindAll(ctx context.Context) ([]*Order, error)
}

// IdempotencyStore 下单幂等键存储
type IdempotencyStore interface {
	// Acquire 占用幂等键,返回false表示键已被占用
	Acquire(ctx context.Context, key string) (bool, error)

	// Release 释放幂等键(下单失败时调用,允许客户端重试)
	Release(ctx context.Context, key string) error
}

// NopIdempotencyStore 未启用Redis时使用,任何键都可以占用
type NopIdempotencyStore struct{}

func (NopIdempotencyStore) Acquire(context.Context, string) (bool, error) { return true, nil }
func (NopIdempotencyStore) Release(context.Context, string) error         { return nil }
