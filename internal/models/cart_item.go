package models

import (
	"time"

	"github.com/verso-store/internal/pricing"
)

// CartItem 购物车项，(购物车, 商品, 规格) 唯一；无规格时 VariantID 为 0
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                // 主键
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_line" json:"cart_id"`              // 购物车ID
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_item_line" json:"product_id"`           // 商品ID
	VariantID uint      `gorm:"not null;default:0;uniqueIndex:idx_cart_item_line" json:"variant_id"` // 规格ID
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`                                  // 数量
	AddedAt   time.Time `gorm:"autoCreateTime;index" json:"added_at"`                                // 加入时间
	UpdatedAt time.Time `json:"updated_at"`                                                          // 更新时间

	Product *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 关联规格
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// HasVariant 是否选择了规格
func (i *CartItem) HasVariant() bool {
	return i.VariantID != 0
}

// UnitPrice 读取时解析单价：有规格取规格价，否则取商品现价
func (i *CartItem) UnitPrice() Money {
	if i.Variant != nil && i.HasVariant() {
		if i.Variant.Product == nil {
			i.Variant.Product = i.Product
		}
		return i.Variant.Price()
	}
	if i.Product == nil {
		return ZeroMoney
	}
	return i.Product.CurrentPrice()
}

// LineTotal 单价乘数量
func (i *CartItem) LineTotal() Money {
	return NewMoney(pricing.LineTotal(i.PricingLine()))
}

// PricingLine 转换为计价行
func (i *CartItem) PricingLine() pricing.Line {
	return pricing.Line{UnitPrice: i.UnitPrice().Decimal, Quantity: i.Quantity}
}

// IsAvailable 可售库存是否满足数量
func (i *CartItem) IsAvailable() bool {
	if i.Variant != nil && i.HasVariant() {
		return i.Variant.Stock >= i.Quantity
	}
	if i.Product == nil {
		return false
	}
	return i.Product.TotalStock >= i.Quantity
}
