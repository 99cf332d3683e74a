package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/verso-store/internal/pricing"
)

// ProductVariant 商品规格（尺码 + 颜色）
type ProductVariant struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                                              // 主键
	ProductID       uint      `gorm:"not null;uniqueIndex:idx_variant_product_size_color" json:"product_id"`             // 商品ID
	Size            string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_variant_product_size_color" json:"size"`  // 尺码
	Color           string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_variant_product_size_color" json:"color"` // 颜色
	ColorHex        string    `gorm:"type:varchar(7)" json:"color_hex"`                                                  // 颜色色值
	Stock           int       `gorm:"not null;default:0" json:"stock"`                                                   // 库存
	AdditionalPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"additional_price"`                     // 加价（可为负）
	SKUSuffix       string    `gorm:"column:sku_suffix;type:varchar(20)" json:"sku_suffix"`                              // SKU 后缀
	CreatedAt       time.Time `json:"created_at"`                                                                        // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                                                        // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 所属商品
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// Price 规格售价，需要已加载 Product
func (v *ProductVariant) Price() Money {
	if v.Product == nil {
		return NewMoney(v.AdditionalPrice.Decimal)
	}
	return NewMoney(pricing.VariantPrice(v.Product.CurrentPrice().Decimal, v.AdditionalPrice.Decimal))
}

// FullSKU 完整 SKU：商品编码-后缀，无后缀时为 商品编码-尺码-颜色前三位
func (v *ProductVariant) FullSKU() string {
	base := ""
	if v.Product != nil {
		base = v.Product.SKU
	}
	if strings.TrimSpace(v.SKUSuffix) != "" {
		return fmt.Sprintf("%s-%s", base, v.SKUSuffix)
	}
	color := strings.ToUpper(v.Color)
	if len([]rune(color)) > 3 {
		color = string([]rune(color)[:3])
	}
	return fmt.Sprintf("%s-%s-%s", base, v.Size, color)
}

// IsAvailable 是否有货
func (v *ProductVariant) IsAvailable() bool {
	return v.Stock > 0
}
