package queue

import (
	"encoding/json"
	"time"

	"github.com/verso-store/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusChanged 订单状态变更通知任务
	TaskOrderStatusChanged = constants.TaskOrderStatusChanged
	// TaskProductLowStock 低库存预警任务
	TaskProductLowStock = constants.TaskProductLowStock
)

// OrderStatusChangedPayload 订单状态变更任务载荷
type OrderStatusChangedPayload struct {
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	FromStatus  string    `json:"from_status"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ProductLowStockPayload 低库存预警任务载荷
type ProductLowStockPayload struct {
	ProductID  uint      `json:"product_id"`
	SKU        string    `json:"sku"`
	VariantID  uint      `json:"variant_id,omitempty"`
	Stock      int       `json:"stock"`
	Threshold  int       `json:"threshold"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewOrderStatusChangedTask 创建订单状态变更任务
func NewOrderStatusChangedTask(payload OrderStatusChangedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusChanged, body), nil
}

// NewProductLowStockTask 创建低库存预警任务
func NewProductLowStockTask(payload ProductLowStockPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductLowStock, body), nil
}

// ParseOrderStatusChangedPayload 解析订单状态变更载荷
func ParseOrderStatusChangedPayload(body []byte) (OrderStatusChangedPayload, error) {
	var payload OrderStatusChangedPayload
	err := json.Unmarshal(body, &payload)
	return payload, err
}

// ParseProductLowStockPayload 解析低库存预警载荷
func ParseProductLowStockPayload(body []byte) (ProductLowStockPayload, error) {
	var payload ProductLowStockPayload
	err := json.Unmarshal(body, &payload)
	return payload, err
}
