package service

import (
	"errors"
	"testing"
	"time"

	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"github.com/shopspring/decimal"
)

func newTestCatalogService(f *serviceFixture) *CatalogService {
	return NewCatalogService(f.products, f.variants, f.categories)
}

func TestCatalogCreateProductAndVariants(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestCatalogService(f)
	categories := NewCategoryService(f.categories)

	category, err := categories.Create(SaveCategoryInput{Name: "Outer Wear"})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if category.Slug != models.Slugify("Outer Wear") {
		t.Fatalf("category slug want %s got %s", models.Slugify("Outer Wear"), category.Slug)
	}

	inactive := false
	product, err := svc.Create(SaveProductInput{
		SKU:                "COAT-1",
		Name:               "Wool Coat",
		CategoryID:         &category.ID,
		BasePrice:          models.MustMoney("200"),
		DiscountPercentage: models.MustMoney("25"),
		IsActive:           &inactive,
	}, 0)
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if product.IsActive || product.Gender != "unisex" || product.CategoryName() != "Outer Wear" {
		t.Fatalf("unexpected product: active=%v gender=%s category=%s", product.IsActive, product.Gender, product.CategoryName())
	}
	detail := NewProductDetail(product)
	if detail.CurrentPrice.String() != "150.00" || detail.Savings.String() != "50.00" || !detail.IsOnSale {
		t.Fatalf("unexpected pricing: current=%s savings=%s", detail.CurrentPrice, detail.Savings)
	}

	if _, err := svc.Create(SaveProductInput{SKU: "COAT-1", Name: "Dup", BasePrice: models.MustMoney("1")}, 0); !errors.Is(err, ErrSKUTaken) {
		t.Fatalf("want ErrSKUTaken got %v", err)
	}
	if _, err := svc.Create(SaveProductInput{SKU: "BAD-1", Name: "Bad", BasePrice: models.MustMoney("10"), DiscountPercentage: models.MustMoney("120")}, 0); !errors.Is(err, ErrProductPriceInvalid) {
		t.Fatalf("want ErrProductPriceInvalid got %v", err)
	}

	if _, err := svc.CreateVariant(product.ID, SaveVariantInput{Size: "m", Color: "Navy", Stock: 4}); err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	large, err := svc.CreateVariant(product.ID, SaveVariantInput{Size: "L", Color: "Navy", Stock: 6, AdditionalPrice: models.MustMoney("5")})
	if err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	if _, err := svc.CreateVariant(product.ID, SaveVariantInput{Size: "M", Color: "Navy", Stock: 1}); !errors.Is(err, ErrVariantDuplicate) {
		t.Fatalf("want ErrVariantDuplicate got %v", err)
	}
	if _, err := svc.CreateVariant(product.ID, SaveVariantInput{Size: "HUGE", Color: "Navy"}); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("want ErrInvalidSize got %v", err)
	}
	if got := f.reloadProduct(t, product.ID).TotalStock; got != 10 {
		t.Fatalf("total stock should follow variants, want 10 got %d", got)
	}
	if large.Price().String() != "155.00" {
		t.Fatalf("variant price want 155.00 got %s", large.Price())
	}

	updated, err := svc.SetStock(product.ID, large.ID, 1)
	if err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	if updated.TotalStock != 5 {
		t.Fatalf("total stock want 5 got %d", updated.TotalStock)
	}
	if _, err := svc.SetStock(product.ID, 0, 3); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("setting product stock with variants want ErrVariantNotFound got %v", err)
	}

	other := f.createProduct(t, "HAT-9", "10", 1)
	if _, err := svc.UpdateVariant(other.ID, large.ID, SaveVariantInput{Size: "L", Color: "Navy"}); !errors.Is(err, ErrVariantMismatch) {
		t.Fatalf("want ErrVariantMismatch got %v", err)
	}
	if err := svc.DeleteVariant(product.ID, large.ID); err != nil {
		t.Fatalf("delete variant failed: %v", err)
	}
	if got := f.reloadProduct(t, product.ID).TotalStock; got != 4 {
		t.Fatalf("total stock after delete want 4 got %d", got)
	}

	public, total, err := svc.ListPublic(repository.ProductListFilter{})
	if err != nil {
		t.Fatalf("list public failed: %v", err)
	}
	if total != 1 || len(public) != 1 || public[0].ID != other.ID {
		t.Fatalf("inactive products must be hidden, got total=%d", total)
	}
	if _, err := svc.GetPublicBySlug(product.Slug); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product want ErrProductNotFound got %v", err)
	}
	if _, err := svc.GetPublicBySlug(other.Slug); err != nil {
		t.Fatalf("get public product failed: %v", err)
	}
	if got := f.reloadProduct(t, other.ID).ViewsCount; got != 1 {
		t.Fatalf("views want 1 got %d", got)
	}
}

func TestCatalogStorefrontFiltersAndSorting(t *testing.T) {
	f := setupServiceTest(t)
	svc := newTestCatalogService(f)
	tops := &models.Category{Name: "Tops", Slug: "tops", IsActive: true}
	outer := &models.Category{Name: "Outerwear", Slug: "outerwear", IsActive: true}
	for _, category := range []*models.Category{tops, outer} {
		if err := f.db.Create(category).Error; err != nil {
			t.Fatalf("create category failed: %v", err)
		}
	}
	now := time.Now()
	shirt := f.createProduct(t, "A-1", "50", 5)
	coat := f.createProduct(t, "B-1", "120", 5)
	blouse := f.createProduct(t, "C-1", "80", 5)
	hidden := f.createProduct(t, "D-1", "60", 5)
	updates := []struct {
		product *models.Product
		fields  map[string]interface{}
	}{
		{shirt, map[string]interface{}{"category_id": tops.ID, "gender": "male", "created_at": now.Add(-48 * time.Hour)}},
		{coat, map[string]interface{}{"category_id": outer.ID, "gender": "female", "discount_percentage": "10", "created_at": now.Add(-24 * time.Hour)}},
		{blouse, map[string]interface{}{"category_id": tops.ID, "gender": "female", "created_at": now}},
		{hidden, map[string]interface{}{"category_id": tops.ID, "gender": "female", "is_active": false}},
	}
	for _, u := range updates {
		if err := f.db.Model(&models.Product{}).Where("id = ?", u.product.ID).Updates(u.fields).Error; err != nil {
			t.Fatalf("update product failed: %v", err)
		}
	}
	skus := func(products []models.Product) []string {
		out := make([]string, 0, len(products))
		for _, p := range products {
			out = append(out, p.SKU)
		}
		return out
	}
	expect := func(name string, filter repository.ProductListFilter, list func(repository.ProductListFilter) ([]models.Product, int64, error), want ...string) {
		t.Helper()
		products, total, err := list(filter)
		if err != nil {
			t.Fatalf("%s: list failed: %v", name, err)
		}
		got := skus(products)
		if int(total) != len(want) || len(got) != len(want) {
			t.Fatalf("%s: want %v got %v (total %d)", name, want, got, total)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: want %v got %v", name, want, got)
			}
		}
	}

	minPrice := decimal.NewFromInt(60)
	maxPrice := decimal.NewFromInt(100)
	expect("gender", repository.ProductListFilter{Gender: "female", Sort: "name"}, svc.ListPublic, "B-1", "C-1")
	expect("price range", repository.ProductListFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}, svc.ListPublic, "C-1")
	expect("price_low", repository.ProductListFilter{Sort: "price_low"}, svc.ListPublic, "A-1", "C-1", "B-1")
	expect("price_high", repository.ProductListFilter{Sort: "price_high"}, svc.ListPublic, "B-1", "C-1", "A-1")
	expect("name", repository.ProductListFilter{Sort: "name"}, svc.ListPublic, "A-1", "B-1", "C-1")
	expect("category name search", repository.ProductListFilter{Search: "Outer"}, svc.ListPublic, "B-1")
	expect("sale", repository.ProductListFilter{}, svc.ListSale, "B-1")
	expect("new arrivals", repository.ProductListFilter{Sort: "price_low"}, svc.ListNewArrivals, "C-1", "B-1", "A-1")

	related, err := svc.RelatedProducts(shirt.Slug)
	if err != nil {
		t.Fatalf("related failed: %v", err)
	}
	if got := skus(related); len(got) != 1 || got[0] != "C-1" {
		t.Fatalf("related want [C-1] got %v", got)
	}
	loose := f.createProduct(t, "E-1", "10", 5)
	if related, err := svc.RelatedProducts(loose.Slug); err != nil || len(related) != 0 {
		t.Fatalf("uncategorized product want no related items got %v err=%v", skus(related), err)
	}
	if _, err := svc.RelatedProducts("missing-product"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
}
