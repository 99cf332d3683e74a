package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/events"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/queue"
	"github.com/verso-store/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func setupConsumer(t *testing.T) (*Consumer, *recordingPublisher, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), models.GormConfig(false))
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	publisher := &recordingPublisher{}
	consumer := &Consumer{
		OrderRepo:   repository.NewOrderRepository(db),
		ProductRepo: repository.NewProductRepository(db),
		Publisher:   publisher,
	}
	return consumer, publisher, db
}

func TestHandleOrderStatusChangedPublishesEvent(t *testing.T) {
	consumer, publisher, db := setupConsumer(t)
	order := &models.Order{
		OrderNumber:     "VSO20260101QW12",
		CustomerName:    "Ada",
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "1 Main St",
		Status:          constants.OrderStatusPaid,
		PaymentMethod:   constants.PaymentMethodCOD,
		PaymentStatus:   constants.PaymentStatusSucceeded,
		Total:           models.MustMoney("176"),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task, err := queue.NewOrderStatusChangedTask(queue.OrderStatusChangedPayload{
		OrderID:    order.ID,
		FromStatus: constants.OrderStatusPending,
		Status:     constants.OrderStatusPaid,
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleOrderStatusChanged(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("events want 1 got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.EventType != constants.EventOrderStatusChanged || event.Key != order.OrderNumber {
		t.Fatalf("unexpected event envelope: %+v", event)
	}
	data, ok := event.Data.(OrderStatusChangedEvent)
	if !ok {
		t.Fatalf("unexpected event data type %T", event.Data)
	}
	if data.Total != "176.00" || data.CustomerEmail != "ada@example.com" || data.FromStatus != constants.OrderStatusPending {
		t.Fatalf("unexpected event data: %+v", data)
	}

	missing, _ := queue.NewOrderStatusChangedTask(queue.OrderStatusChangedPayload{OrderID: 9999})
	if err := consumer.handleOrderStatusChanged(context.Background(), missing); err != nil {
		t.Fatalf("missing order should be skipped, got %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("missing order must not publish")
	}

	publisher.err = errors.New("broker down")
	if err := consumer.handleOrderStatusChanged(context.Background(), task); err == nil {
		t.Fatalf("publish failure should be returned for retry")
	}
}

func TestHandleProductLowStockSkipsRestocked(t *testing.T) {
	consumer, publisher, db := setupConsumer(t)
	product := &models.Product{
		SKU:               "LOW-1",
		Name:              "Scarf",
		BasePrice:         models.MustMoney("20"),
		TotalStock:        1,
		LowStockThreshold: 3,
		IsActive:          true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	task, _ := queue.NewProductLowStockTask(queue.ProductLowStockPayload{ProductID: product.ID, Stock: 1})
	if err := consumer.handleProductLowStock(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != constants.EventProductLowStock {
		t.Fatalf("low stock event want 1 got %d", len(publisher.events))
	}

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("total_stock", 50).Error; err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if err := consumer.handleProductLowStock(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("restocked product must not publish, got %d events", len(publisher.events))
	}

	variantTask, _ := queue.NewProductLowStockTask(queue.ProductLowStockPayload{ProductID: product.ID, VariantID: 777})
	if err := consumer.handleProductLowStock(context.Background(), variantTask); err != nil {
		t.Fatalf("unknown variant should be skipped, got %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("unknown variant must not publish")
	}
}
