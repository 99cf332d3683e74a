package models

import (
	"github.com/shopspring/decimal"
)

// OrderItem 订单项，保存下单时的商品快照
type OrderItem struct {
	ID             uint   `gorm:"primarykey" json:"id"`                                            // 主键
	OrderID        uint   `gorm:"index;not null" json:"order_id"`                                  // 订单ID
	ProductID      *uint  `gorm:"index" json:"product_id,omitempty"`                               // 商品ID（商品删除后置空）
	VariantID      *uint  `gorm:"index" json:"variant_id,omitempty"`                               // 规格ID（规格删除后置空）
	ProductName    string `gorm:"type:varchar(200);not null" json:"product_name"`                  // 商品名称快照
	ProductSKU     string `gorm:"column:product_sku;type:varchar(50);not null" json:"product_sku"` // SKU 快照
	Size           string `gorm:"type:varchar(10)" json:"size"`                                    // 尺码快照
	Color          string `gorm:"type:varchar(50)" json:"color"`                                   // 颜色快照
	UnitPrice      Money  `gorm:"type:decimal(20,2);not null" json:"unit_price"`                   // 单价快照
	Quantity       int    `gorm:"not null" json:"quantity"`                                        // 数量
	DiscountAmount Money  `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`    // 单项优惠
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// TotalPrice 单价乘数量减去单项优惠
func (i *OrderItem) TotalPrice() Money {
	gross := i.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return NewMoney(gross.Sub(i.DiscountAmount.Decimal))
}
