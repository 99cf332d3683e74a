package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductListFilter 商品列表过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   uint
	ExcludeID    uint
	Search       string
	StockStatus  string           // low_stock / out_of_stock
	Gender       string
	MinPrice     *decimal.Decimal // 按原价过滤
	MaxPrice     *decimal.Decimal
	Sort         string           // newest / price_low / price_high / name
	OnlyActive   bool
	OnlyFeatured bool
	OnlySale     bool
	IsActive     *bool
	WithVariants bool
}

// OrderListFilter 订单列表过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNumber   string
	Search        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// UserListFilter 用户列表过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Role        string
	Roles       []string
	OnlyActive  bool
	CreatedFrom *time.Time
}

// CouponListFilter 优惠券列表过滤条件
type CouponListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}
