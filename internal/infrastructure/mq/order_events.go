package mq

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stockroom/internal/domain/order"
	"github.com/xiebiao/stockroom/internal/infrastructure/config"
	"github.com/xiebiao/stockroom/pkg/circuitbreaker"
)

// publishTimeout 单次发布的最长等待时间
const publishTimeout = 2 * time.Second

// messagePublisher 发布原始消息（*Publisher实现）
type messagePublisher interface {
	Publish(ctx context.Context, routingKey, messageID string, message interface{}) error
}

// OrderEventPublisher 订单事件发布者
// 消息队列连续失败5次后熔断，熔断期间发布直接返回circuitbreaker.ErrOpenState
type OrderEventPublisher struct {
	pub     messagePublisher
	breaker *circuitbreaker.CircuitBreaker
}

// NewOrderEventPublisher 创建订单事件发布者
// breakerOpen为熔断打开持续时间
func NewOrderEventPublisher(pub messagePublisher, breakerOpen time.Duration, log *zap.Logger) *OrderEventPublisher {
	breaker := circuitbreaker.NewCircuitBreaker("order-events", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerOpen,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	log = log.Named("mq")
	breaker.Instrument(func(name string, from, to circuitbreaker.State) {
		log.Warn("熔断器状态变化",
			zap.String("name", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	})

	return &OrderEventPublisher{pub: pub, breaker: breaker}
}

// PublishOrderPlaced 发布order.placed事件，EventID作为消息ID
func (p *OrderEventPublisher) PublishOrderPlaced(ctx context.Context, event order.PlacedEvent) error {
	return p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return p.pub.Publish(ctx, order.RoutingKeyPlaced, event.EventID, event)
	})
}

// ProvideEventPublisher 按配置创建事件发布者（供Wire使用）
// mq.enabled=false时返回NopPublisher
func ProvideEventPublisher(cfg *config.Config, log *zap.Logger) (order.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		log.Info("消息队列未启用，下单事件不发布")
		return order.NopPublisher{}, func() {}, nil
	}

	pub, err := NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = pub.Close()
		log.Info("消息队列连接已关闭")
	}
	return NewOrderEventPublisher(pub, cfg.MQ.BreakerOpen, log), cleanup, nil
}
