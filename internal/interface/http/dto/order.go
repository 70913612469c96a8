package dto

import (
	"github.com/xiebiao/stockroom/internal/domain/order"
)

// PlaceOrderRequest HTTP下单请求
// quantity使用指针:未传 → 参数绑定失败;传了0或负数 → 账本拒绝
type PlaceOrderRequest struct {
	ItemID   uint `json:"item_id" binding:"required" example:"1"`
	Quantity *int `json:"quantity" binding:"required" example:"2"`
}

// OrderResponse HTTP订单响应
type OrderResponse struct {
	ID        uint   `json:"id" example:"1"`
	ItemID    uint   `json:"item_id" example:"1"`
	Quantity  int    `json:"quantity" example:"2"`
	CreatedAt string `json:"created_at" example:"2024-01-15 10:30:00"`
}

// NewOrderResponse 领域实体 → HTTP响应
func NewOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID,
		ItemID:    o.ItemID,
		Quantity:  o.Quantity,
		CreatedAt: o.CreatedAt.Format(TimeLayout),
	}
}

// OrderListResponse HTTP订单列表响应
type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

// NewOrderListResponse 构建订单列表响应
func NewOrderListResponse(orders []*order.Order) *OrderListResponse {
	list := make([]OrderResponse, len(orders))
	for i, o := range orders {
		list[i] = NewOrderResponse(o)
	}
	return &OrderListResponse{Orders: list}
}
