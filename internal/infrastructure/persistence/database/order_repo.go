package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/stockroom/internal/domain/order"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
)

// orderRepository 订单仓储实现
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := &OrderModel{
		ItemID:    o.ItemID,
		Quantity:  o.Quantity,
		CreatedAt: o.CreatedAt,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isConstraintViolation(err) {
			return apperrors.WithCause(order.ErrInvalidQuantity, err)
		}
		return apperrors.WrapDB(err, "创建订单失败")
	}

	// 回填自增ID
	o.ID = model.ID
	o.CreatedAt = model.CreatedAt

	return nil
}

// FindByID 根据ID查找订单
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	err := getDB(ctx, r.db).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.WrapDB(err, "查询订单失败")
	}

	return toOrderEntity(&model), nil
}

// FindAll 查询全部订单
func (r *orderRepository) FindAll(ctx context.Context) ([]*order.Order, error) {
	var models []OrderModel
	if err := getDB(ctx, r.db).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WrapDB(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, nil
}

// toOrderEntity GORM模型 → 领域实体
func toOrderEntity(model *OrderModel) *order.Order {
	return &order.Order{
		ID:        model.ID,
		ItemID:    model.ItemID,
		Quantity:  model.Quantity,
		CreatedAt: model.CreatedAt,
	}
}
