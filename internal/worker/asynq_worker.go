package worker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/events"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/pricing"
	"github.com/verso-store/internal/provider"
	"github.com/verso-store/internal/queue"
	"github.com/verso-store/internal/repository"
	"github.com/verso-store/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	OrderRepo        repository.OrderRepository
	ProductRepo      repository.ProductRepository
	DashboardService *service.DashboardService
	Publisher        events.Publisher
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		OrderRepo:        c.OrderRepo,
		ProductRepo:      c.ProductRepo,
		DashboardService: c.DashboardService,
		Publisher:        c.Publisher,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusChanged, c.handleOrderStatusChanged)
	mux.HandleFunc(queue.TaskProductLowStock, c.handleProductLowStock)
}

// OrderStatusChangedEvent 订单状态变更事件数据
type OrderStatusChangedEvent struct {
	OrderID       uint   `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	FromStatus    string `json:"from_status"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Total         string `json:"total"`
	CustomerEmail string `json:"customer_email"`
}

// ProductLowStockEvent 低库存事件数据
type ProductLowStockEvent struct {
	ProductID uint   `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	VariantID uint   `json:"variant_id,omitempty"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

func (c *Consumer) handleOrderStatusChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderStatusChangedPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_order_status_changed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_changed_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_changed_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_changed_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	if c.DashboardService != nil {
		c.DashboardService.InvalidateStats(ctx)
	}

	data := OrderStatusChangedEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		FromStatus:    payload.FromStatus,
		Status:        payload.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total.String(),
		CustomerEmail: order.CustomerEmail,
	}
	if data.Status == "" {
		data.Status = order.Status
	}
	event := events.NewEvent(constants.EventOrderStatusChanged, order.OrderNumber, data)
	if err := c.publish(ctx, event); err != nil {
		logger.Warnw("worker_order_status_changed_publish_failed",
			"order_id", order.ID,
			"order_number", order.OrderNumber,
			"status", data.Status,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_order_status_changed_handled",
		"order_number", order.OrderNumber,
		"from_status", data.FromStatus,
		"status", data.Status,
	)
	return nil
}

func (c *Consumer) handleProductLowStock(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_product_low_stock_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseProductLowStockPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_product_low_stock_unmarshal_failed", "error", err)
		return err
	}
	if payload.ProductID == 0 {
		logger.Debugw("worker_product_low_stock_skip_invalid_payload", "product_id", payload.ProductID)
		return nil
	}
	product, err := c.ProductRepo.GetByID(payload.ProductID)
	if err != nil {
		logger.Warnw("worker_product_low_stock_fetch_product_failed", "product_id", payload.ProductID, "error", err)
		return err
	}
	if product == nil {
		logger.Debugw("worker_product_low_stock_skip_product_not_found", "product_id", payload.ProductID)
		return nil
	}
	stock, found := currentStock(product, payload.VariantID)
	// 入队后可能已补货
	if !found || !pricing.IsLowStock(stock, product.LowStockThreshold) {
		logger.Debugw("worker_product_low_stock_skip_restocked", "product_id", product.ID, "variant_id", payload.VariantID, "stock", stock)
		return nil
	}

	data := ProductLowStockEvent{
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		VariantID: payload.VariantID,
		Stock:     stock,
		Threshold: product.LowStockThreshold,
	}
	key := strconv.FormatUint(uint64(product.ID), 10)
	if err := c.publish(ctx, events.NewEvent(constants.EventProductLowStock, key, data)); err != nil {
		logger.Warnw("worker_product_low_stock_publish_failed", "product_id", product.ID, "error", err)
		return err
	}
	logger.Warnw("product_low_stock",
		"product_id", product.ID,
		"sku", product.SKU,
		"variant_id", payload.VariantID,
		"stock", stock,
		"threshold", product.LowStockThreshold,
	)
	return nil
}

// currentStock 商品或指定规格的当前库存
func currentStock(product *models.Product, variantID uint) (int, bool) {
	if variantID == 0 {
		return product.TotalStock, true
	}
	for _, variant := range product.Variants {
		if variant.ID == variantID {
			return variant.Stock, true
		}
	}
	return 0, false
}

func (c *Consumer) publish(ctx context.Context, event events.Event) error {
	if c.Publisher == nil {
		return nil
	}
	if err := c.Publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType, err)
	}
	return nil
}
