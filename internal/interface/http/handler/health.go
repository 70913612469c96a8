package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/stockroom/pkg/errors"
	"github.com/xiebiao/stockroom/pkg/response"
)

// Pinger 存储连通性检查(*sql.DB实现)
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Ping 健康检查
// @Summary      健康检查
// @Tags         系统
// @Produce      json
// @Success      200 {object} response.Response
// @Failure      500 {object} response.Response "数据库不可用"
// @Router       /ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		response.Error(c, apperrors.WrapDB(err, "数据库不可用"))
		return
	}
	response.Success(c, gin.H{"status": "healthy"})
}
