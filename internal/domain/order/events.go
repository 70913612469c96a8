package order

import (
	"context"
	"time"
)

// RoutingKeyPlaced 下单成功事件的路由键
const RoutingKeyPlaced = "order.placed"

// PlacedEvent 下单成功事件
// StockAtCheck是库存检查时读到的库存(下单不扣减库存,仅供下游参考)
type PlacedEvent struct {
	EventID      string    `json:"event_id"`
	OrderID      uint      `json:"order_id"`
	ItemID       uint      `json:"item_id"`
	Quantity     int       `json:"quantity"`
	StockAtCheck int       `json:"stock_at_check"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher 订单事件发布者
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event PlacedEvent) error
}

// NopPublisher 未启用消息队列时使用
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, PlacedEvent) error { return nil }
