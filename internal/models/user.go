package models

import (
	"strings"
	"time"

	"github.com/verso-store/internal/constants"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User 用户（顾客与员工共用，角色决定权限）
type User struct {
	ID            uint             `gorm:"primarykey" json:"id"`                                           // 主键
	Username      string           `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`         // 用户名
	Email         string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`            // 邮箱
	PasswordHash  string           `gorm:"type:varchar(255);not null" json:"-"`                            // 密码哈希
	Role          string           `gorm:"type:varchar(20);index;not null;default:'customer'" json:"role"` // 角色
	IsStaff       bool             `gorm:"not null;default:false" json:"is_staff"`                         // 是否员工（由角色推导）
	IsSuperuser   bool             `gorm:"not null;default:false" json:"is_superuser"`                     // 是否超级用户
	IsActive      bool             `gorm:"not null;default:true" json:"is_active"`                         // 是否启用
	FirstName     string           `gorm:"type:varchar(150)" json:"first_name"`                            // 名
	LastName      string           `gorm:"type:varchar(150)" json:"last_name"`                             // 姓
	PhoneNumber   string           `gorm:"type:varchar(17)" json:"phone_number"`                           // 电话
	Address       string           `gorm:"type:text" json:"address"`                                       // 地址
	City          string           `gorm:"type:varchar(100)" json:"city"`                                  // 城市
	State         string           `gorm:"type:varchar(100)" json:"state"`                                 // 省/州
	Country       string           `gorm:"type:varchar(100)" json:"country"`                               // 国家
	PostalCode    string           `gorm:"type:varchar(20)" json:"postal_code"`                            // 邮编
	Latitude      *decimal.Decimal `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`                   // 纬度
	Longitude     *decimal.Decimal `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`                  // 经度
	WalletBalance Money            `gorm:"type:decimal(20,2);not null;default:0" json:"wallet_balance"`    // 钱包余额
	EmailVerified bool             `gorm:"not null;default:false" json:"email_verified"`                   // 邮箱是否验证
	TokenVersion  uint64           `gorm:"not null;default:0" json:"-"`                                    // 令牌版本（改密码或角色后递增）
	LastLoginAt   *time.Time       `json:"last_login_at,omitempty"`                                        // 最后登录时间
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt     time.Time        `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// BeforeSave 员工标记跟随角色，管理员角色始终为超级用户
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
	if u.Role == "" {
		u.Role = constants.RoleCustomer
	}
	u.IsStaff = IsStaffRole(u.Role)
	if u.Role == constants.RoleAdmin {
		u.IsSuperuser = true
	}
	return nil
}

// FullName 全名，缺省时回退到用户名
func (u *User) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// IsStaffMember 是否为员工角色
func (u *User) IsStaffMember() bool {
	return IsStaffRole(u.Role)
}

// IsStaffRole 员工角色：admin / manager / employee
func IsStaffRole(role string) bool {
	switch role {
	case constants.RoleAdmin, constants.RoleManager, constants.RoleEmployee:
		return true
	}
	return false
}
