package queue

import (
	"testing"
	"time"

	"github.com/verso-store/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderStatusChanged(OrderStatusChangedPayload{OrderID: 1, Status: "paid"}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.EnqueueProductLowStock(ProductLowStockPayload{ProductID: 1}, time.Minute); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Port: 6380, DB: 2})
	if opt.Addr != "127.0.0.1:6380" {
		t.Fatalf("addr want 127.0.0.1:6380 got %s", opt.Addr)
	}
	if opt.DB != 2 {
		t.Fatalf("db want 2 got %d", opt.DB)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("concurrency want 10 got %d", cfg.Concurrency)
	}
	if cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("default queue weight want 1 got %v", cfg.Queues)
	}
}

func TestLowStockTaskCarriesPayload(t *testing.T) {
	task, err := NewProductLowStockTask(ProductLowStockPayload{ProductID: 7, SKU: "TEE-7", Stock: 2, Threshold: 10})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskProductLowStock {
		t.Fatalf("task type want %s got %s", TaskProductLowStock, task.Type())
	}
	payload, err := ParseProductLowStockPayload(task.Payload())
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.ProductID != 7 || payload.Stock != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
