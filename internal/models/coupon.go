package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Code            string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`             // 优惠码（大写存储）
	Description     string         `gorm:"type:text" json:"description"`                                  // 描述
	DiscountType    string         `gorm:"type:varchar(20);not null" json:"discount_type"`                // 类型（percentage/fixed）
	DiscountValue   Money          `gorm:"type:decimal(20,2);not null" json:"discount_value"`             // 数值（百分比或金额）
	MinimumPurchase Money          `gorm:"type:decimal(20,2);not null;default:0" json:"minimum_purchase"` // 使用门槛
	UsageLimit      *int           `json:"usage_limit"`                                                   // 总使用上限（空表示不限）
	UsageCount      int            `gorm:"not null;default:0" json:"usage_count"`                         // 已使用次数
	SingleUse       bool           `gorm:"not null;default:false" json:"single_use"`                      // 每位用户仅可使用一次
	ValidFrom       time.Time      `gorm:"index;not null" json:"valid_from"`                              // 生效时间
	ValidTo         time.Time      `gorm:"index;not null" json:"valid_to"`                                // 失效时间
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`                        // 是否启用
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                    // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	ApplicableCategories []Category `gorm:"many2many:coupon_categories" json:"applicable_categories,omitempty"` // 限定分类
	ApplicableProducts   []Product  `gorm:"many2many:coupon_products" json:"applicable_products,omitempty"`     // 限定商品
	ApplicableUsers      []User     `gorm:"many2many:coupon_users" json:"applicable_users,omitempty"`           // 限定用户
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// BeforeSave 优惠码统一大写
func (c *Coupon) BeforeSave(tx *gorm.DB) error {
	c.Code = NormalizeCouponCode(c.Code)
	return nil
}

// NormalizeCouponCode 去空格并转大写
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HasRestrictions 是否配置了适用范围
func (c *Coupon) HasRestrictions() bool {
	return len(c.ApplicableCategories) > 0 || len(c.ApplicableProducts) > 0 || len(c.ApplicableUsers) > 0
}

// CouponUsage 优惠券使用记录，与订单同事务写入
type CouponUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	CouponID       uint      `gorm:"index;not null" json:"coupon_id"`                              // 优惠券ID
	UserID         uint      `gorm:"index;not null" json:"user_id"`                                // 用户ID
	OrderID        uint      `gorm:"uniqueIndex;not null" json:"order_id"`                         // 订单ID
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (CouponUsage) TableName() string {
	return "coupon_usages"
}
