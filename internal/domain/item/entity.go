package item

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// MaxAttrLen type/color/size的最大长度(与item表列宽一致)
const MaxAttrLen = 64

// Item 库存商品实体
// 设计说明:
// 1. (Type, Color, Size)构成自然键,存储层保证唯一
// 2. Stock是当前在库数量,任何时刻都不能为负数
// 3. ID是存储层生成的代理主键
type Item struct {
	ID        uint
	Type      string
	Color     string
	Size      string
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key 返回商品的自然键
func (i *Item) Key() NaturalKey {
	return NaturalKey{Type: i.Type, Color: i.Color, Size: i.Size}
}

// CanFulfil 当前库存是否足以满足quantity
func (i *Item) CanFulfil(quantity int) bool {
	return quantity <= i.Stock
}

// NaturalKey 自然键(type, color, size)
type NaturalKey struct {
	Type  string
	Color string
	Size  string
}

// Delta 批量入库的一条增量
// 自然键不存在时以Stock作为初始库存插入,已存在时stock += Stock
type Delta struct {
	Type  string
	Color string
	Size  string
	Stock int
}

// Key 返回增量对应的自然键
func (d Delta) Key() NaturalKey {
	return NaturalKey{Type: d.Type, Color: d.Color, Size: d.Size}
}

// Validate 校验增量
// 规则:
// - type/color/size必填,不能全是空白,长度不超过MaxAttrLen
// - stock必须是非负整数
func (d Delta) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Type, validation.Required, validation.By(notBlank), validation.Length(1, MaxAttrLen)),
		validation.Field(&d.Color, validation.Required, validation.By(notBlank), validation.Length(1, MaxAttrLen)),
		validation.Field(&d.Size, validation.Required, validation.By(notBlank), validation.Length(1, MaxAttrLen)),
		validation.Field(&d.Stock, validation.Min(0)),
	)
}

// UpsertResult 批量入库中单条增量的结果,与输入顺序一一对应
type UpsertResult struct {
	ID       uint
	Accepted bool
}

// ValidateStock 校验绝对库存值
func ValidateStock(stock int) error {
	if stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}
