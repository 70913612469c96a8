package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/stockroom/pkg/errors"
	"github.com/xiebiao/stockroom/pkg/response"
)

const (
	// IdempotencyHeader 客户端提供的幂等键
	IdempotencyHeader = "Idempotency-Key"

	// MaxIdempotencyKeyLen 幂等键最大长度
	MaxIdempotencyKeyLen = 128

	idempotencyKeyCtx = "idempotency_key"
)

// IdempotencyKey 读取Idempotency-Key头并注入Context
// 说明：头缺失时继续处理(键是可选的);超长时直接拒绝
// 使用方式：
//
//	orders := v1.Group("/orders")
//	orders.POST("", middleware.IdempotencyKey(), orderHandler.PlaceOrder)
func IdempotencyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		if len(key) > MaxIdempotencyKeyLen {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "Idempotency-Key过长")
			c.Abort()
			return
		}

		c.Set(idempotencyKeyCtx, key)
		c.Next()
	}
}

// GetIdempotencyKey 从Context获取幂等键,没有时返回空字符串
func GetIdempotencyKey(c *gin.Context) string {
	if key, exists := c.Get(idempotencyKeyCtx); exists {
		if k, ok := key.(string); ok {
			return k
		}
	}
	return ""
}
