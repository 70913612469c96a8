package dto

import (
	"github.com/xiebiao/stockroom/internal/domain/item"
)

// TimeLayout 响应中的时间格式
const TimeLayout = "2006-01-02 15:04:05"

// UpsertItemsRequest HTTP批量入库请求
// validator tag说明:
// - items至少一条,dive逐条校验
// - stock使用指针区分"未传"和"传了0"
// - 空白字符串、超长等业务规则由账本校验
type UpsertItemsRequest struct {
	Items []UpsertItem `json:"items" binding:"required,min=1,dive"`
}

// UpsertItem 批量入库的一条增量
type UpsertItem struct {
	Type  string `json:"type" binding:"required" example:"shirt"`
	Color string `json:"color" binding:"required" example:"red"`
	Size  string `json:"size" binding:"required" example:"M"`
	Stock *int   `json:"stock" binding:"required,min=0" example:"10"` // 新商品为初始库存,已有商品为增量
}

// ToDeltas 转换为领域增量
func (r *UpsertItemsRequest) ToDeltas() []item.Delta {
	deltas := make([]item.Delta, len(r.Items))
	for i, it := range r.Items {
		deltas[i] = item.Delta{
			Type:  it.Type,
			Color: it.Color,
			Size:  it.Size,
			Stock: *it.Stock,
		}
	}
	return deltas
}

// UpsertItemsResponse HTTP批量入库响应
// item_ids与请求中的items一一对应
type UpsertItemsResponse struct {
	ItemIDs []uint `json:"item_ids" example:"1,2"`
}

// NewUpsertItemsResponse 从账本结果构建响应
func NewUpsertItemsResponse(results []item.UpsertResult) *UpsertItemsResponse {
	ids := make([]uint, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return &UpsertItemsResponse{ItemIDs: ids}
}

// SetStockRequest HTTP覆盖库存请求
// 负数由账本拒绝
type SetStockRequest struct {
	Stock *int `json:"stock" binding:"required" example:"5"`
}

// ItemResponse HTTP商品响应
type ItemResponse struct {
	ID        uint   `json:"id" example:"1"`
	Type      string `json:"type" example:"shirt"`
	Color     string `json:"color" example:"red"`
	Size      string `json:"size" example:"M"`
	Stock     int    `json:"stock" example:"10"`
	CreatedAt string `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt string `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// NewItemResponse 领域实体 → HTTP响应
func NewItemResponse(it *item.Item) ItemResponse {
	return ItemResponse{
		ID:        it.ID,
		Type:      it.Type,
		Color:     it.Color,
		Size:      it.Size,
		Stock:     it.Stock,
		CreatedAt: it.CreatedAt.Format(TimeLayout),
		UpdatedAt: it.UpdatedAt.Format(TimeLayout),
	}
}

// ItemListResponse HTTP商品列表响应
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

// NewItemListResponse 构建商品列表响应(空列表返回[]而不是null)
func NewItemListResponse(items []*item.Item) *ItemListResponse {
	list := make([]ItemResponse, len(items))
	for i, it := range items {
		list[i] = NewItemResponse(it)
	}
	return &ItemListResponse{Items: list}
}
