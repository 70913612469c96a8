package item

import (
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
)

// 商品领域错误定义
var (
	// ErrItemNotFound 商品不存在
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeItemNotFound, "商品不存在")

	// ErrInvalidItems 批量入库参数不合法(字段缺失、格式错误)
	ErrInvalidItems = apperrors.New(apperrors.ErrCodeInvalidParams, "一个或多个商品参数不合法")

	// ErrInvalidStock 库存不能为负数
	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	// ErrBatchRejected 批量入库中至少一条无法写入,整批已回滚
	ErrBatchRejected = apperrors.New(apperrors.ErrCodeBatchRejected, "一个或多个商品无效,整批未写入")

	// ErrConstraintViolation 存储层拒绝写入(约束冲突),由仓储层返回
	ErrConstraintViolation = apperrors.New(apperrors.ErrCodeBatchRejected, "商品数据违反约束")
)
