package order

import (
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrItemNotFound 下单引用的商品不存在
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeItemNotFound, "商品不存在")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrDuplicateRequest 幂等键已被使用
	ErrDuplicateRequest = apperrors.New(apperrors.ErrCodeDuplicateRequest, "重复的下单请求")
)
