package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/stockroom/internal/domain/item"
	"github.com/xiebiao/stockroom/internal/interface/http/dto"
	apperrors "github.com/xiebiao/stockroom/pkg/errors"
	"github.com/xiebiao/stockroom/pkg/response"
)

// StockLedger 库存账本(由application/stock.Ledger实现)
type StockLedger interface {
	BulkUpsert(ctx context.Context, deltas []item.Delta) ([]item.UpsertResult, error)
	GetAll(ctx context.Context) ([]*item.Item, error)
	GetByID(ctx context.Context, id uint) (*item.Item, error)
	SetStock(ctx context.Context, id uint, stock int) error
	Delete(ctx context.Context, id uint) error
}

// ItemHandler 商品HTTP处理器
type ItemHandler struct {
	ledger StockLedger
}

// NewItemHandler 创建商品处理器
func NewItemHandler(ledger StockLedger) *ItemHandler {
	return &ItemHandler{ledger: ledger}
}

// UpsertItems 批量入库
// @Summary      批量入库
// @Description  按(type,color,size)累加库存,不存在则创建;任一条失败整批回滚
// @Tags         商品
// @Accept       json
// @Produce      json
// @Param        request body dto.UpsertItemsRequest true "入库明细"
// @Success      200 {object} response.Response{data=dto.UpsertItemsResponse}
// @Failure      400 {object} response.Response "参数错误或整批被拒绝"
// @Failure      500 {object} response.Response "存储服务不可用"
// @Router       /api/v1/items [post]
func (h *ItemHandler) UpsertItems(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.UpsertItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	// 2. 调用账本
	results, err := h.ledger.BulkUpsert(c.Request.Context(), req.ToDeltas())
	if err != nil {
		response.Error(c, err)
		return
	}

	// 3. 返回结果
	response.Success(c, dto.NewUpsertItemsResponse(results))
}

// ListItems 商品列表
// @Summary      商品列表
// @Tags         商品
// @Produce      json
// @Success      200 {object} response.Response{data=dto.ItemListResponse}
// @Failure      500 {object} response.Response "存储服务不可用"
// @Router       /api/v1/items [get]
func (h *ItemHandler) ListItems(c *gin.Context) {
	items, err := h.ledger.GetAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemListResponse(items))
}

// GetItem 商品详情
// @Summary      商品详情
// @Tags         商品
// @Produce      json
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/v1/items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := parseID(c, item.ErrItemNotFound)
	if !ok {
		return
	}

	it, err := h.ledger.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(it))
}

// SetStock 覆盖库存
// @Summary      覆盖库存
// @Description  把库存设置为指定值(绝对值,不是增量)
// @Tags         商品
// @Accept       json
// @Produce      json
// @Param        id path int true "商品ID"
// @Param        request body dto.SetStockRequest true "新库存"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response "库存不能为负数"
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/v1/items/{id} [patch]
func (h *ItemHandler) SetStock(c *gin.Context) {
	id, ok := parseID(c, item.ErrItemNotFound)
	if !ok {
		return
	}

	var req dto.SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	if err := h.ledger.SetStock(c.Request.Context(), id, *req.Stock); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// DeleteItem 删除商品
// @Summary      删除商品
// @Description  物理删除,历史订单保留
// @Tags         商品
// @Produce      json
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/v1/items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c, item.ErrItemNotFound)
	if !ok {
		return
	}

	if err := h.ledger.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// parseID 解析路径参数id
// 非数字或0按资源不存在处理
func parseID(c *gin.Context, notFound error) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, notFound)
		return 0, false
	}
	return uint(id), true
}
