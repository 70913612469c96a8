package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/stockroom/internal/application/order"
	"github.com/xiebiao/stockroom/internal/domain/order"
	"github.com/xiebiao/stockroom/internal/interface/http/dto"
	"github.com/xiebiao/stockroom/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
	"github.com/xiebiao/stockroom/pkg/response"
)

// OrderLedger 订单账本(由application/order.Ledger实现)
type OrderLedger interface {
	PlaceOrder(ctx context.Context, req apporder.PlaceOrderRequest) (*order.Order, error)
	GetAll(ctx context.Context) ([]*order.Order, error)
	GetByID(ctx context.Context, id uint) (*order.Order, error)
}

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	ledger OrderLedger
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(ledger OrderLedger) *OrderHandler {
	return &OrderHandler{ledger: ledger}
}

// PlaceOrder 下单
// @Summary      下单
// @Description  检查当前库存后写入订单,不扣减库存。可通过Idempotency-Key头防止重复提交
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "幂等键"
// @Param        request body dto.PlaceOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      400 {object} response.Response "参数错误或库存不足"
// @Failure      404 {object} response.Response "商品不存在"
// @Failure      409 {object} response.Response "重复请求"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	// 2. 调用账本(幂等键由中间件注入)
	placed, err := h.ledger.PlaceOrder(c.Request.Context(), apporder.PlaceOrderRequest{
		ItemID:         req.ItemID,
		Quantity:       *req.Quantity,
		IdempotencyKey: middleware.GetIdempotencyKey(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// 3. 返回订单
	response.Success(c, dto.NewOrderResponse(placed))
}

// ListOrders 订单列表
// @Summary      订单列表
// @Tags         订单
// @Produce      json
// @Success      200 {object} response.Response{data=dto.OrderListResponse}
// @Failure      500 {object} response.Response "存储服务不可用"
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.ledger.GetAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderListResponse(orders))
}

// GetOrder 订单详情
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, order.ErrOrderNotFound)
	if !ok {
		return
	}

	o, err := h.ledger.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(o))
}
