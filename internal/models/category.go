package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Category 商品分类
type Category struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"` // 名称
	Slug         string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"` // 唯一标识
	Description  string         `gorm:"type:text" json:"description"`                       // 描述
	ParentID     *uint          `gorm:"index" json:"parent_id,omitempty"`                   // 父分类
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`             // 是否启用
	DisplayOrder int            `gorm:"not null;default:0;index" json:"display_order"`      // 排序
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Parent *Category `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// BeforeCreate 未填写 slug 时由名称生成
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 转为小写连字符形式
func Slugify(raw string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "-")
	return strings.Trim(s, "-")
}
