package models

import (
	"time"
)

// Transaction 订单交易流水，只追加不修改
type Transaction struct {
	ID              uint       `gorm:"primarykey" json:"id"`                              // 主键
	OrderID         uint       `gorm:"index;not null" json:"order_id"`                    // 订单ID
	TransactionType string     `gorm:"type:varchar(20);not null" json:"transaction_type"` // 类型（payment/refund/partial_refund）
	Amount          Money      `gorm:"type:decimal(20,2);not null" json:"amount"`         // 金额
	PaymentMethod   string     `gorm:"type:varchar(20);not null" json:"payment_method"`   // 支付方式
	Status          string     `gorm:"type:varchar(20);not null;index" json:"status"`     // 状态
	ExternalRef     string     `gorm:"type:varchar(255)" json:"external_ref,omitempty"`   // 渠道流水号
	ResponseData    JSONMap    `gorm:"type:text" json:"response_data,omitempty"`          // 渠道原始响应
	FailureReason   string     `gorm:"type:text" json:"failure_reason,omitempty"`         // 失败原因
	OperatorID      *uint      `gorm:"index" json:"operator_id,omitempty"`                // 操作员（退款）
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                           // 创建时间
	CompletedAt     *time.Time `json:"completed_at,omitempty"`                            // 完成时间
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}
