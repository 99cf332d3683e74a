package models

import (
	"time"

	"github.com/verso-store/internal/constants"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order 订单。顾客、地址与金额均为下单时快照，创建后不随用户资料变化
type Order struct {
	ID                    uint             `gorm:"primarykey" json:"id"`                                                    // 主键
	OrderNumber           string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`               // 订单编号
	UserID                *uint            `gorm:"index" json:"user_id,omitempty"`                                          // 下单用户（用户删除后置空）
	CustomerName          string           `gorm:"type:varchar(200);not null" json:"customer_name"`                         // 顾客姓名
	CustomerEmail         string           `gorm:"type:varchar(255);not null;index" json:"customer_email"`                  // 顾客邮箱
	CustomerPhone         string           `gorm:"type:varchar(20)" json:"customer_phone"`                                  // 顾客电话
	ShippingAddress       string           `gorm:"type:text;not null" json:"shipping_address"`                              // 收货地址
	ShippingCity          string           `gorm:"type:varchar(100)" json:"shipping_city"`                                  // 收货城市
	ShippingState         string           `gorm:"type:varchar(100)" json:"shipping_state"`                                 // 收货省/州
	ShippingCountry       string           `gorm:"type:varchar(100)" json:"shipping_country"`                               // 收货国家
	ShippingPostalCode    string           `gorm:"type:varchar(20)" json:"shipping_postal_code"`                            // 收货邮编
	ShippingLatitude      *decimal.Decimal `gorm:"type:decimal(10,8)" json:"shipping_latitude,omitempty"`                   // 收货纬度
	ShippingLongitude     *decimal.Decimal `gorm:"type:decimal(11,8)" json:"shipping_longitude,omitempty"`                  // 收货经度
	BillingSameAsShipping bool             `gorm:"not null;default:true" json:"billing_same_as_shipping"`                   // 账单地址同收货地址
	BillingAddress        string           `gorm:"type:text" json:"billing_address"`                                        // 账单地址
	BillingCity           string           `gorm:"type:varchar(100)" json:"billing_city"`                                   // 账单城市
	BillingState          string           `gorm:"type:varchar(100)" json:"billing_state"`                                  // 账单省/州
	BillingCountry        string           `gorm:"type:varchar(100)" json:"billing_country"`                                // 账单国家
	BillingPostalCode     string           `gorm:"type:varchar(20)" json:"billing_postal_code"`                             // 账单邮编
	Status                string           `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`         // 订单状态
	PaymentMethod         string           `gorm:"type:varchar(20);not null" json:"payment_method"`                         // 支付方式
	PaymentStatus         string           `gorm:"type:varchar(20);index;not null;default:'pending'" json:"payment_status"` // 支付状态
	Subtotal              Money            `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`                   // 小计
	Tax                   Money            `gorm:"type:decimal(20,2);not null;default:0" json:"tax"`                        // 税费
	Shipping              Money            `gorm:"type:decimal(20,2);not null;default:0" json:"shipping"`                   // 运费
	Discount              Money            `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`                   // 优惠
	Total                 Money            `gorm:"type:decimal(20,2);not null;default:0" json:"total"`                      // 实付
	CouponID              *uint            `gorm:"index" json:"coupon_id,omitempty"`                                        // 使用的优惠券
	CouponCode            string           `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`                           // 优惠码快照
	TrackingNumber        string           `gorm:"type:varchar(100)" json:"tracking_number"`                                // 物流单号
	Carrier               string           `gorm:"type:varchar(50)" json:"carrier"`                                         // 承运商
	EstimatedDelivery     *time.Time       `json:"estimated_delivery,omitempty"`                                            // 预计送达
	CustomerNotes         string           `gorm:"type:text" json:"customer_notes"`                                         // 顾客备注
	AdminNotes            string           `gorm:"type:text" json:"admin_notes,omitempty"`                                  // 后台备注
	PaidAt                *time.Time       `gorm:"index" json:"paid_at,omitempty"`                                          // 支付时间
	ShippedAt             *time.Time       `json:"shipped_at,omitempty"`                                                    // 发货时间
	DeliveredAt           *time.Time       `json:"delivered_at,omitempty"`                                                  // 送达时间
	CancelledAt           *time.Time       `json:"cancelled_at,omitempty"`                                                  // 取消时间
	CreatedAt             time.Time        `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt             time.Time        `json:"updated_at"`                                                              // 更新时间
	DeletedAt             gorm.DeletedAt   `gorm:"index" json:"-"`                                                          // 软删除时间

	Items        []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`        // 订单项
	Transactions []Transaction `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"` // 交易流水
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// CanCancel 待处理、处理中、已支付的订单可取消
func (o *Order) CanCancel() bool {
	switch o.Status {
	case constants.OrderStatusPending, constants.OrderStatusProcessing, constants.OrderStatusPaid:
		return true
	}
	return false
}

// CanRefund 已支付、已发货、已送达的订单可退款
func (o *Order) CanRefund() bool {
	switch o.Status {
	case constants.OrderStatusPaid, constants.OrderStatusShipped, constants.OrderStatusDelivered:
		return true
	}
	return false
}

// StampStatusTime 为状态写入首次时间戳，已有时间不覆盖
func (o *Order) StampStatusTime(status string, now time.Time) {
	stamp := func(target **time.Time) {
		if *target == nil {
			t := now
			*target = &t
		}
	}
	switch status {
	case constants.OrderStatusPaid:
		stamp(&o.PaidAt)
	case constants.OrderStatusShipped:
		stamp(&o.ShippedAt)
	case constants.OrderStatusDelivered:
		stamp(&o.DeliveredAt)
	case constants.OrderStatusCancelled:
		stamp(&o.CancelledAt)
	}
}

// TotalItems 商品件数合计
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
