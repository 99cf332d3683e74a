package models

import (
	"time"
)

// Cart 购物车，归属登录用户或匿名会话之一
type Cart struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                      // 主键
	UserID     *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`                      // 用户ID（匿名购物车为空）
	SessionKey *string   `gorm:"type:varchar(64);uniqueIndex" json:"session_key,omitempty"` // 匿名会话标识（登录购物车为空）
	CreatedAt  time.Time `json:"created_at"`                                                // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`                                   // 更新时间

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"` // 购物车项
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// TotalItems 商品件数合计
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// IsUserOwned 是否为登录用户的购物车
func (c *Cart) IsUserOwned() bool {
	return c.UserID != nil
}
