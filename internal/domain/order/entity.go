package order

import (
	"time"
)

// Order 订单实体
// 设计说明:
// 1. 订单只记录"下单时库存检查通过"这一事实,不占用库存
// 2. 不直接持有Item对象,只保存ItemID(订单是历史记录,商品删除后订单仍保留)
// 3. 创建后不可修改
type Order struct {
	ID        uint
	ItemID    uint // 商品ID
	Quantity  int  // 下单数量
	CreatedAt time.Time
}

// NewOrder 创建新订单(工厂方法)
// 业务规则:数量必须大于0
func NewOrder(itemID uint, quantity int) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Order{
		ItemID:    itemID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
	}, nil
}
