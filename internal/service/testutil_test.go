package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db          *gorm.DB
	users       *repository.GormUserRepository
	categories  *repository.GormCategoryRepository
	products    *repository.GormProductRepository
	variants    *repository.GormProductVariantRepository
	carts       *repository.GormCartRepository
	orders      *repository.GormOrderRepository
	coupons     *repository.GormCouponRepository
	txns        *repository.GormTransactionRepository
	dashboard   *repository.GormDashboardRepository
	cartService *CartService
}

func setupServiceTest(t *testing.T) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	models.DB = db

	f := &serviceFixture{
		db:         db,
		users:      repository.NewUserRepository(db),
		categories: repository.NewCategoryRepository(db),
		products:   repository.NewProductRepository(db),
		variants:   repository.NewProductVariantRepository(db),
		carts:      repository.NewCartRepository(db),
		orders:     repository.NewOrderRepository(db),
		coupons:    repository.NewCouponRepository(db),
		txns:       repository.NewTransactionRepository(db),
		dashboard:  repository.NewDashboardRepository(db),
	}
	f.cartService = NewCartService(f.carts, f.products, f.variants)
	return f
}

func (f *serviceFixture) createProduct(t *testing.T, sku, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:               sku,
		Name:              "Product " + sku,
		BasePrice:         models.MustMoney(price),
		TotalStock:        stock,
		LowStockThreshold: 2,
		IsActive:          true,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (f *serviceFixture) createVariant(t *testing.T, productID uint, size, color string, stock int, additional string) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:       productID,
		Size:            size,
		Color:           color,
		Stock:           stock,
		AdditionalPrice: models.MustMoney(additional),
	}
	if err := f.db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func (f *serviceFixture) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		FirstName:    "Test",
		LastName:     username,
		PhoneNumber:  "+15550001",
		Address:      "1 Main St",
		City:         "Springfield",
		Country:      "US",
		PostalCode:   "12345",
		IsActive:     true,
	}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (f *serviceFixture) createCoupon(t *testing.T, code, discountType, value string) *models.Coupon {
	t.Helper()
	now := time.Now()
	coupon := &models.Coupon{
		Code:            code,
		DiscountType:    discountType,
		DiscountValue:   models.MustMoney(value),
		MinimumPurchase: models.ZeroMoney,
		ValidFrom:       now.Add(-time.Hour),
		ValidTo:         now.Add(time.Hour),
		IsActive:        true,
	}
	if err := f.db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func (f *serviceFixture) reloadProduct(t *testing.T, id uint) *models.Product {
	t.Helper()
	var product models.Product
	if err := f.db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return &product
}

func (f *serviceFixture) reloadVariant(t *testing.T, id uint) *models.ProductVariant {
	t.Helper()
	var variant models.ProductVariant
	if err := f.db.First(&variant, id).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	return &variant
}
