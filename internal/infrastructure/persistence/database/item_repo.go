package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/stockroom/internal/domain/item"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
)

// itemRepository 商品仓储实现
// 设计说明:
// 1. 实现domain/item/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 约束类错误转换为item.ErrConstraintViolation,其余错误统一包装为数据库错误
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository 创建商品仓储
func NewItemRepository(db *gorm.DB) item.Repository {
	return &itemRepository{db: db}
}

// naturalKeyColumns 联合唯一索引uk_item_natural_key的列
var naturalKeyColumns = []clause.Column{{Name: "type"}, {Name: "color"}, {Name: "size"}}

// Upsert 冲突解决写入(单条SQL,不做先查后写)
//
// MySQL:    INSERT INTO item(...) VALUES(...) ON DUPLICATE KEY UPDATE stock = item.stock + ?
// Postgres: INSERT INTO item(...) VALUES(...) ON CONFLICT (type,color,size) DO UPDATE SET stock = item.stock + ?
//
// 返回受影响行数:0表示写入没有产生任何变化,由调用方决定是否回滚
func (r *itemRepository) Upsert(ctx context.Context, d item.Delta) (int64, error) {
	model := &ItemModel{
		Type:  d.Type,
		Color: d.Color,
		Size:  d.Size,
		Stock: d.Stock,
	}

	result := getDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: naturalKeyColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"stock":      gorm.Expr("item.stock + ?", d.Stock),
			"updated_at": time.Now(),
		}),
	}).Create(model)

	if result.Error != nil {
		if isConstraintViolation(result.Error) {
			return 0, apperrors.WithCause(item.ErrConstraintViolation, result.Error)
		}
		return 0, apperrors.WrapDB(result.Error, "写入商品失败")
	}

	return result.RowsAffected, nil
}

// FindIDByKey 根据自然键查找商品ID
func (r *itemRepository) FindIDByKey(ctx context.Context, key item.NaturalKey) (uint, error) {
	var model ItemModel
	err := getDB(ctx, r.db).
		Select("id").
		Where(map[string]interface{}{"type": key.Type, "color": key.Color, "size": key.Size}).
		Take(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, item.ErrItemNotFound
		}
		return 0, apperrors.WrapDB(err, "查询商品失败")
	}

	return model.ID, nil
}

// FindAll 查询全部商品
func (r *itemRepository) FindAll(ctx context.Context) ([]*item.Item, error) {
	var models []ItemModel
	if err := getDB(ctx, r.db).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WrapDB(err, "查询商品列表失败")
	}

	items := make([]*item.Item, len(models))
	for i := range models {
		items[i] = toItemEntity(&models[i])
	}
	return items, nil
}

// FindByID 根据ID查找商品
func (r *itemRepository) FindByID(ctx context.Context, id uint) (*item.Item, error) {
	var model ItemModel
	err := getDB(ctx, r.db).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, item.ErrItemNotFound
		}
		return nil, apperrors.WrapDB(err, "查询商品失败")
	}

	return toItemEntity(&model), nil
}

// SetStock 覆盖库存
// UPDATE item SET stock = ?, updated_at = ? WHERE id = ?
func (r *itemRepository) SetStock(ctx context.Context, id uint, stock int) error {
	result := getDB(ctx, r.db).
		Model(&ItemModel{}).
		Where("id = ?", id).
		Update("stock", stock)

	if result.Error != nil {
		if isConstraintViolation(result.Error) {
			return apperrors.WithCause(item.ErrInvalidStock, result.Error)
		}
		return apperrors.WrapDB(result.Error, "更新库存失败")
	}

	if result.RowsAffected == 0 {
		return item.ErrItemNotFound
	}

	return nil
}

// Delete 删除商品(物理删除)
func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&ItemModel{}, id)

	if result.Error != nil {
		return apperrors.WrapDB(result.Error, "删除商品失败")
	}

	if result.RowsAffected == 0 {
		return item.ErrItemNotFound
	}

	return nil
}

// toItemEntity GORM模型 → 领域实体
func toItemEntity(model *ItemModel) *item.Item {
	return &item.Item{
		ID:        model.ID,
		Type:      model.Type,
		Color:     model.Color,
		Size:      model.Size,
		Stock:     model.Stock,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
