package models

import (
	"strings"
	"time"

	"github.com/verso-store/internal/pricing"

	"gorm.io/gorm"
)

// Product 商品
type Product struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                            // 主键
	SKU                string         `gorm:"column:sku;type:varchar(50);uniqueIndex;not null" json:"sku"`     // 商品编码
	Slug               string         `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`              // 唯一标识
	Name               string         `gorm:"type:varchar(200);not null" json:"name"`                          // 名称
	Description        string         `gorm:"type:text" json:"description"`                                    // 描述
	ShortDescription   string         `gorm:"type:varchar(500)" json:"short_description"`                      // 简介
	CategoryID         *uint          `gorm:"index" json:"category_id,omitempty"`                              // 分类ID
	Gender             string         `gorm:"type:varchar(10);not null;default:'unisex'" json:"gender"`        // 适用人群
	BasePrice          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`         // 原价
	DiscountPercentage Money          `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percentage"` // 折扣百分比（0-100）
	DiscountAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`    // 立减金额
	TotalStock         int            `gorm:"not null;default:0" json:"total_stock"`                           // 总库存
	LowStockThreshold  int            `gorm:"not null;default:10" json:"low_stock_threshold"`                  // 低库存预警值
	Features           StringArray    `gorm:"type:text" json:"features"`                                       // 卖点
	Material           string         `gorm:"type:varchar(200)" json:"material"`                               // 材质
	IsActive           bool           `gorm:"not null;default:true;index" json:"is_active"`                    // 是否上架
	IsFeatured         bool           `gorm:"not null;default:false;index" json:"is_featured"`                 // 是否推荐
	ViewsCount         int            `gorm:"not null;default:0" json:"views_count"`                           // 浏览量
	SalesCount         int            `gorm:"not null;default:0" json:"sales_count"`                           // 销量
	CreatedByID        *uint          `gorm:"index" json:"created_by_id,omitempty"`                            // 创建人
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt          time.Time      `json:"updated_at"`                                                      // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Category *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`  // 规格
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// BeforeCreate 未填写 slug 时由名称生成
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = Slugify(p.Name)
	}
	return nil
}

// CurrentPrice 折后现价
func (p *Product) CurrentPrice() Money {
	return NewMoney(pricing.CurrentPrice(p.BasePrice.Decimal, p.DiscountPercentage.Decimal, p.DiscountAmount.Decimal))
}

// Savings 节省金额
func (p *Product) Savings() Money {
	return NewMoney(pricing.Savings(p.BasePrice.Decimal, p.CurrentPrice().Decimal))
}

// IsOnSale 是否在折扣中
func (p *Product) IsOnSale() bool {
	return pricing.IsOnSale(p.DiscountPercentage.Decimal, p.DiscountAmount.Decimal)
}

// IsLowStock 是否低库存
func (p *Product) IsLowStock() bool {
	return pricing.IsLowStock(p.TotalStock, p.LowStockThreshold)
}

// CategoryName 分类名称，未分类返回空串
func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
