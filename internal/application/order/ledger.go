package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/stockroom/internal/domain/item"
	"github.com/xiebiao/stockroom/internal/domain/order"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
	"github.com/xiebiao/stockroom/pkg/metrics"
	"github.com/xiebiao/stockroom/pkg/tracing"
)

const tracerName = "order-ledger"

// 拒绝原因(metrics标签)
const (
	reasonInvalidQuantity   = "invalid_quantity"
	reasonDuplicate         = "duplicate"
	reasonItemNotFound      = "item_not_found"
	reasonInsufficientStock = "insufficient_stock"
	reasonStoreError        = "store_error"
)

// ItemReader 下单时读取商品库存
type ItemReader interface {
	FindByID(ctx context.Context, id uint) (*item.Item, error)
}

// Ledger 订单账本
//
// 下单只检查"当前库存是否足够",不扣减库存,也不锁定商品行。
// 并发下单可能都通过检查,订单之间互不影响。
type Ledger struct {
	orders      order.Repository
	items       ItemReader
	idempotency order.IdempotencyStore
	events      order.EventPublisher
	log         *zap.Logger
}

// NewLedger 创建订单账本
func NewLedger(
	orders order.Repository,
	items ItemReader,
	idempotency order.IdempotencyStore,
	events order.EventPublisher,
	log *zap.Logger,
) *Ledger {
	metrics.InitMetrics()
	return &Ledger{
		orders:      orders,
		items:       items,
		idempotency: idempotency,
		events:      events,
		log:         log.Named("order-ledger"),
	}
}

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	ItemID   uint
	Quantity int

	// IdempotencyKey 可选,同一个键只会受理一次
	IdempotencyKey string
}

// PlaceOrder 下单
//
// 流程:
//  1. 数量必须大于0
//  2. 占用幂等键(如果有)
//  3. 读取商品,不存在 → ErrItemNotFound
//  4. quantity > stock → ErrInsufficientStock
//  5. 写入订单
//  6. 发布order.placed事件(失败只记录日志,不影响下单结果)
func (l *Ledger) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (placed *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "PlaceOrder")
	defer func() { tracing.EndSpan(span, err) }()
	defer metrics.ObserveSince("place_order", time.Now())

	span.SetAttributes(
		attribute.Int64("item.id", int64(req.ItemID)),
		attribute.Int("order.quantity", req.Quantity),
	)

	// 1. 参数校验
	newOrder, err := order.NewOrder(req.ItemID, req.Quantity)
	if err != nil {
		metrics.RejectOrder(reasonInvalidQuantity)
		return nil, err
	}

	// 2. 幂等键
	if req.IdempotencyKey != "" {
		var acquired bool
		acquired, err = l.idempotency.Acquire(ctx, req.IdempotencyKey)
		if err != nil {
			metrics.RejectOrder(reasonStoreError)
			l.log.Error("acquire idempotency key failed", zap.String("key", req.IdempotencyKey), zap.Error(err))
			return nil, apperrors.WithCause(apperrors.ErrRedisError, err)
		}
		if !acquired {
			metrics.RejectOrder(reasonDuplicate)
			return nil, order.ErrDuplicateRequest
		}

		// 下单失败时释放,允许客户端用同一个键重试
		defer func() {
			if err != nil {
				l.releaseKey(ctx, req.IdempotencyKey)
			}
		}()
	}

	// 3. 读取商品
	it, err := l.items.FindByID(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, item.ErrItemNotFound) {
			metrics.RejectOrder(reasonItemNotFound)
			return nil, order.ErrItemNotFound
		}
		metrics.RejectOrder(reasonStoreError)
		l.log.Error("load item failed", zap.Uint("item_id", req.ItemID), zap.Error(err))
		return nil, storeError(err)
	}

	// 4. 库存检查
	if !it.CanFulfil(req.Quantity) {
		metrics.RejectOrder(reasonInsufficientStock)
		return nil, apperrors.WithCause(order.ErrInsufficientStock,
			fmt.Errorf("当前库存:%d,需要:%d", it.Stock, req.Quantity))
	}

	// 5. 写入订单
	if err = l.orders.Create(ctx, newOrder); err != nil {
		metrics.RejectOrder(reasonStoreError)
		l.log.Error("create order failed", zap.Uint("item_id", req.ItemID), zap.Error(err))
		return nil, storeError(err)
	}

	span.SetAttributes(attribute.Int64("order.id", int64(newOrder.ID)))
	metrics.OrdersPlacedTotal.Inc()

	// 6. 发布事件
	l.publishPlaced(ctx, newOrder, it.Stock)

	return newOrder, nil
}

// publishPlaced 尽力发布下单事件
func (l *Ledger) publishPlaced(ctx context.Context, o *order.Order, stock int) {
	event := order.PlacedEvent{
		EventID:      uuid.NewString(),
		OrderID:      o.ID,
		ItemID:       o.ItemID,
		Quantity:     o.Quantity,
		StockAtCheck: stock,
		OccurredAt:   o.CreatedAt,
	}

	err := l.events.PublishOrderPlaced(ctx, event)
	metrics.RecordPublish(order.RoutingKeyPlaced, err)
	if err != nil {
		l.log.Warn("publish order event failed",
			zap.Uint("order_id", o.ID),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}

func (l *Ledger) releaseKey(ctx context.Context, key string) {
	// 请求ctx可能已取消,释放操作不跟随取消
	if err := l.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		l.log.Warn("release idempotency key failed", zap.String("key", key), zap.Error(err))
	}
}

// GetAll 查询全部订单(按ID升序)
func (l *Ledger) GetAll(ctx context.Context) (orders []*order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetAll")
	defer func() { tracing.EndSpan(span, err) }()
	defer metrics.ObserveSince("get_orders", time.Now())

	orders, err = l.orders.FindAll(ctx)
	if err != nil {
		l.log.Error("list orders failed", zap.Error(err))
		return nil, storeError(err)
	}
	return orders, nil
}

// GetByID 查询单个订单
func (l *Ledger) GetByID(ctx context.Context, id uint) (o *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetByID")
	defer func() { tracing.EndSpan(span, err) }()
	defer metrics.ObserveSince("get_order", time.Now())

	span.SetAttributes(attribute.Int64("order.id", int64(id)))

	o, err = l.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, err
		}
		l.log.Error("get order failed", zap.Uint("order_id", id), zap.Error(err))
		return nil, storeError(err)
	}
	return o, nil
}

func storeError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.WrapDB(err, "存储服务不可用")
}
