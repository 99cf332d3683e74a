//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/verso-store/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), models.GormConfig(false))
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	all := models.AllModels()
	_ = db.Migrator().DropTable(append(all, "coupon_categories", "coupon_products", "coupon_users")...)
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(append(all, "coupon_categories", "coupon_products", "coupon_users")...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresProductSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)
	product := &models.Product{
		SKU:        "PG-TEE-1",
		Name:       "Organic Cotton Tee",
		BasePrice:  models.MustMoney("19.99"),
		TotalStock: 5,
		IsActive:   true,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	rows, total, err := repo.List(ProductListFilter{Page: 1, Search: "cotton"})
	if err != nil {
		t.Fatalf("product list search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("product list search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresConcurrentDecrementNeverOversells(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)
	product := &models.Product{
		SKU:        "PG-LAST-1",
		Name:       "Last One",
		BasePrice:  models.MustMoney("10"),
		TotalStock: 3,
		IsActive:   true,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := repo.DecrementStock(product.ID, 1)
			if err != nil {
				t.Errorf("decrement failed: %v", err)
				return
			}
			if rows == 1 {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 3 {
		t.Fatalf("successful decrements want 3 got %d", success)
	}
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.TotalStock != 0 {
		t.Fatalf("stock want 0 got %d", reloaded.TotalStock)
	}
}

func TestPostgresCouponUsageLimit(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCouponRepository(db)
	limit := 2
	coupon := createTestCoupon(t, repo, "PGLIMIT", &limit)

	granted := 0
	for i := 0; i < 5; i++ {
		ok, err := repo.IncrementUsage(coupon.ID)
		if err != nil {
			t.Fatalf("increment usage failed: %v", err)
		}
		if ok {
			granted++
		}
	}
	if granted != 2 {
		t.Fatalf("granted usages want 2 got %d", granted)
	}
}
