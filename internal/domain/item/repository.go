package item

import (
	"context"
)

// Repository 商品仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 事务通过context传递,所有方法在事务内外都可调用
type Repository interface {
	// Upsert 单条冲突解决写入:
	// INSERT ... ON CONFLICT(type,color,size) DO UPDATE SET stock = stock + delta
	// 返回受影响行数;存储层约束冲突返回ErrConstraintViolation
	Upsert(ctx context.Context, delta Delta) (int64, error)

	// FindIDByKey 根据自然键查找商品ID
	FindIDByKey(ctx context.Context, key NaturalKey) (uint, error)

	// FindAll 查询全部商品(按ID升序)
	FindAll(ctx context.Context) ([]*Item, error)

	// FindByID 根据ID查找商品
	FindByID(ctx context.Context, id uint) (*Item, error)

	// SetStock 将库存覆盖为绝对值,商品不存在返回ErrItemNotFound
	SetStock(ctx context.Context, id uint, stock int) error

	// Delete 删除商品(物理删除),商品不存在返回ErrItemNotFound
	Delete(ctx context.Context, id uint) error
}
