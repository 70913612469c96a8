package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/stockroom/internal/domain/item"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
	"github.com/xiebiao/stockroom/pkg/metrics"
	"github.com/xiebiao/stockroom/pkg/tracing"
)

const tracerName = "stock-ledger"

// TxManager 事务管理器
// 回调中的ctx携带事务,仓储通过它加入同一事务
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Ledger 库存账本
// 负责商品的批量入库(增量累加)、查询、覆盖库存和删除
type Ledger struct {
	items item.Repository
	tx    TxManager
	log   *zap.Logger
}

// NewLedger 创建库存账本
func NewLedger(items item.Repository, tx TxManager, log *zap.Logger) *Ledger {
	metrics.InitMetrics()
	return &Ledger{
		items: items,
		tx:    tx,
		log:   log.Named("stock-ledger"),
	}
}

// BulkUpsert 批量入库
//
// 流程:
//  1. 逐条校验,任意一条不合法则整批拒绝(不访问存储)
//  2. 在一个事务中按输入顺序逐条执行冲突解决写入:
//     自然键不存在 → 插入,stock为初始库存
//     自然键已存在 → stock += delta
//  3. 任意一条写入失败或没有影响任何行 → 整批回滚
//
// 返回结果与输入一一对应;同一批次内重复的自然键会依次累加,返回相同ID
func (l *Ledger) BulkUpsert(ctx context.Context, deltas []item.Delta) (results []item.UpsertResult, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BulkUpsert")
	defer func() { tracing.EndSpan(span, err) }()
	defer metrics.ObserveSince("bulk_upsert", time.Now())

	span.SetAttributes(attribute.Int("batch.size", len(deltas)))

	// 1. 参数校验
	for i, d := range deltas {
		if verr := d.Validate(); verr != nil {
			return nil, apperrors.WithCause(item.ErrInvalidItems, fmt.Errorf("items[%d]: %w", i, verr))
		}
	}

	if len(deltas) == 0 {
		return []item.UpsertResult{}, nil
	}

	// 2. 事务内逐条写入
	results = make([]item.UpsertResult, len(deltas))
	err = l.tx.Transaction(ctx, func(txCtx context.Context) error {
		for i, d := range deltas {
			affected, err := l.items.Upsert(txCtx, d)
			if err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
			if affected == 0 {
				return apperrors.WithCause(item.ErrBatchRejected, fmt.Errorf("items[%d]: 没有影响任何行", i))
			}

			id, err := l.items.FindIDByKey(txCtx, d.Key())
			if err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
			results[i] = item.UpsertResult{ID: id, Accepted: true}
		}
		return nil
	})

	// 3. 错误归类(事务已回滚)
	if err != nil {
		return nil, l.batchError(err, len(deltas))
	}

	metrics.ItemsUpsertedTotal.Add(float64(len(deltas)))
	l.log.Debug("bulk upsert committed", zap.Int("size", len(deltas)))

	return results, nil
}

// batchError 把事务错误归类为整批拒绝或存储不可用
func (l *Ledger) batchError(err error, size int) error {
	switch {
	case errors.Is(err, item.ErrBatchRejected):
		metrics.BatchesRejectedTotal.Inc()
		l.log.Info("bulk upsert rejected", zap.Int("size", size), zap.Error(err))
		return err
	case errors.Is(err, item.ErrConstraintViolation), errors.Is(err, item.ErrItemNotFound):
		metrics.BatchesRejectedTotal.Inc()
		l.log.Info("bulk upsert rejected", zap.Int("size", size), zap.Error(err))
		return apperrors.WithCause(item.ErrBatchRejected, err)
	default:
		l.log.Error("bulk upsert failed", zap.Int("size", size), zap.Error(err))
		return storeError(err)
	}
}

// GetAll 查询全部商品(按ID升序)
func (l *Ledger) GetAll(ctx context.Context) (items []*item.Item, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetAll")
	defer func() { tracing.EndSpan(span, err) }()
	defer metrics.ObserveSince("get_items", time.Now())

	items, err = l.items.FindAll(ctx)
	if err != nil {
		l.log.Error("list items failed", zap.Error(err))
		return nil, storeError(err)
	}
	return items, nil
}

// GetByID 查询单个商品
func (l *Ledger) GetByID(ctx context.Context, id uint) (it *item.Item, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetByID")
	defer func() { tracing.EndSpan(span, err) }()
	defer metrics.ObserveSince("get_item", time.Now())

	span.SetAttributes(attribute.Int64("item.id", int64(id)))

	it, err = l.items.FindByID(ctx, id)
	if err != nil {
		return nil, l.fail("get item", id, err)
	}
	return it, nil
}

// SetStock 覆盖库存为绝对值
// 不存在 → ErrItemNotFound;负数 → ErrInvalidStock(不访问存储)
func (l *Ledger) SetStock(ctx context.Context, id uint, stock int) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "SetStock")
	defer func() { tracing.EndSpan(span, err) }()
	defer metrics.ObserveSince("set_stock", time.Now())

	span.SetAttributes(attribute.Int64("item.id", int64(id)), attribute.Int("item.stock", stock))

	if err = item.ValidateStock(stock); err != nil {
		return err
	}

	if err = l.items.SetStock(ctx, id, stock); err != nil {
		return l.fail("set stock", id, err)
	}
	return nil
}

// Delete 删除商品
// 已有订单仍然保留对该商品ID的引用
func (l *Ledger) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Delete")
	defer func() { tracing.EndSpan(span, err) }()
	defer metrics.ObserveSince("delete_item", time.Now())

	span.SetAttributes(attribute.Int64("item.id", int64(id)))

	if err = l.items.Delete(ctx, id); err != nil {
		return l.fail("delete item", id, err)
	}
	return nil
}

// fail 业务错误原样返回,存储错误记录日志后返回
func (l *Ledger) fail(op string, id uint, err error) error {
	if errors.Is(err, item.ErrItemNotFound) || errors.Is(err, item.ErrInvalidStock) {
		return err
	}
	l.log.Error(op+" failed", zap.Uint("item_id", id), zap.Error(err))
	return storeError(err)
}

// storeError 未分类的错误统一视为存储不可用
func storeError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.WrapDB(err, "存储服务不可用")
}
