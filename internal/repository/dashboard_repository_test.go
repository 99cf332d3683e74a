package repository

import (
	"testing"
	"time"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/models"
)

func TestDashboardAggregates(t *testing.T) {
	db := openTestDB(t)
	repo := NewDashboardRepository(db)
	orders := NewOrderRepository(db)

	createTestOrder(t, orders, "VSO20260101D001", nil, constants.OrderStatusPaid, "100")
	createTestOrder(t, orders, "VSO20260101D002", nil, constants.OrderStatusDelivered, "50")
	createTestOrder(t, orders, "VSO20260101D003", nil, constants.OrderStatusPending, "70")
	createTestOrder(t, orders, "VSO20260101D004", nil, constants.OrderStatusCancelled, "30")
	old := createTestOrder(t, orders, "VSO20260101D005", nil, constants.OrderStatusShipped, "40")
	longAgo := time.Now().AddDate(0, 0, -60)
	if err := db.Model(&models.Order{}).Where("id = ?", old.ID).Update("created_at", longAgo).Error; err != nil {
		t.Fatalf("backdate order failed: %v", err)
	}

	all, err := repo.SumSales(nil)
	if err != nil {
		t.Fatalf("sum sales failed: %v", err)
	}
	if all != 190 {
		t.Fatalf("all time sales want 190 got %.2f", all)
	}
	since := time.Now().AddDate(0, 0, -30)
	recent, err := repo.SumSales(&since)
	if err != nil {
		t.Fatalf("sum sales failed: %v", err)
	}
	if recent != 150 {
		t.Fatalf("30 day sales want 150 got %.2f", recent)
	}

	count, err := repo.CountOrders(nil)
	if err != nil || count != 5 {
		t.Fatalf("order count want 5 got %d err=%v", count, err)
	}
	pending, err := repo.CountOrders([]string{constants.OrderStatusPending})
	if err != nil || pending != 1 {
		t.Fatalf("pending count want 1 got %d err=%v", pending, err)
	}
}

func TestDashboardCountsCustomersOnly(t *testing.T) {
	db := openTestDB(t)
	repo := NewDashboardRepository(db)
	seedUser(t, db, "c1", constants.RoleCustomer)
	seedUser(t, db, "c2", constants.RoleCustomer)
	seedUser(t, db, "staff", constants.RoleEmployee)

	total, err := repo.CountCustomers(nil)
	if err != nil || total != 2 {
		t.Fatalf("customers want 2 got %d err=%v", total, err)
	}
}

func TestDashboardTopProducts(t *testing.T) {
	db := openTestDB(t)
	repo := NewDashboardRepository(db)
	product := seedProduct(t, db, "TOP-1", "25", 10)
	order := &models.Order{
		OrderNumber:     "VSO20260101T001",
		CustomerName:    "x",
		CustomerEmail:   "x@example.com",
		ShippingAddress: "addr",
		Status:          constants.OrderStatusPaid,
		PaymentMethod:   constants.PaymentMethodCOD,
		Total:           models.MustMoney("50"),
	}
	items := []models.OrderItem{{
		ProductID:   &product.ID,
		ProductName: product.Name,
		ProductSKU:  product.SKU,
		UnitPrice:   models.MustMoney("25"),
		Quantity:    2,
	}}
	if err := NewOrderRepository(db).Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	now := time.Now()
	rows, err := repo.GetTopProducts(now.Add(-time.Hour), now.Add(time.Hour), 5)
	if err != nil {
		t.Fatalf("top products failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows len want 1 got %d", len(rows))
	}
	if rows[0].ProductID != product.ID || rows[0].Quantity != 2 {
		t.Fatalf("unexpected ranking row %+v", rows[0])
	}
	if rows[0].Revenue != 50 {
		t.Fatalf("revenue want 50 got %.2f", rows[0].Revenue)
	}
}
