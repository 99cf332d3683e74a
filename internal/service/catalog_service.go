package service

import (
	"sort"
	"strings"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"gorm.io/gorm"
)

const relatedProductsLimit = 4

// CatalogService 商品与规格服务
type CatalogService struct {
	productRepo  repository.ProductRepository
	variantRepo  repository.ProductVariantRepository
	categoryRepo repository.CategoryRepository
}

// NewCatalogService 创建商品服务
func NewCatalogService(productRepo repository.ProductRepository, variantRepo repository.ProductVariantRepository, categoryRepo repository.CategoryRepository) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		categoryRepo: categoryRepo,
	}
}

// SaveProductInput 创建/更新商品输入
type SaveProductInput struct {
	SKU                string
	Slug               string
	Name               string
	Description        string
	ShortDescription   string
	CategoryID         *uint
	Gender             string
	BasePrice          models.Money
	DiscountPercentage models.Money
	DiscountAmount     models.Money
	TotalStock         *int
	LowStockThreshold  *int
	Features           []string
	Material           string
	IsActive           *bool
	IsFeatured         *bool
}

// SaveVariantInput 创建/更新规格输入
type SaveVariantInput struct {
	Size            string
	Color           string
	ColorHex        string
	Stock           int
	AdditionalPrice models.Money
	SKUSuffix       string
}

// ProductDetail 商品详情及计算字段
type ProductDetail struct {
	*models.Product
	CurrentPrice    models.Money `json:"current_price"`
	Savings         models.Money `json:"savings"`
	IsOnSale        bool         `json:"is_on_sale"`
	IsLowStock      bool         `json:"is_low_stock"`
	AvailableSizes  []string     `json:"available_sizes"`
	AvailableColors []string     `json:"available_colors"`
}

// NewProductDetail 附加现价、折扣与可选尺码颜色
func NewProductDetail(product *models.Product) ProductDetail {
	detail := ProductDetail{
		Product:      product,
		CurrentPrice: product.CurrentPrice(),
		Savings:      product.Savings(),
		IsOnSale:     product.IsOnSale(),
		IsLowStock:   product.IsLowStock(),
	}
	sizes := map[string]struct{}{}
	colors := map[string]struct{}{}
	for _, v := range product.Variants {
		sizes[v.Size] = struct{}{}
		colors[v.Color] = struct{}{}
	}
	detail.AvailableSizes = sortedKeys(sizes)
	detail.AvailableColors = sortedKeys(colors)
	return detail
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ListPublic 获取上架商品列表
func (s *CatalogService) ListPublic(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = true
	filter.IsActive = nil
	filter.Page, filter.PageSize = repository.NormalizePagination(filter.Page, filter.PageSize)
	return s.productRepo.List(filter)
}

// ListSale 折扣中的上架商品
func (s *CatalogService) ListSale(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlySale = true
	return s.ListPublic(filter)
}

// ListNewArrivals 按上架时间倒序的新品
func (s *CatalogService) ListNewArrivals(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.Sort = "newest"
	return s.ListPublic(filter)
}

// RelatedProducts 同分类的其他上架商品，最多 relatedProductsLimit 个
func (s *CatalogService) RelatedProducts(slug string) ([]models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.CategoryID == nil {
		return []models.Product{}, nil
	}
	related, _, err := s.productRepo.List(repository.ProductListFilter{
		Page:       1,
		PageSize:   relatedProductsLimit,
		CategoryID: *product.CategoryID,
		ExcludeID:  product.ID,
		OnlyActive: true,
	})
	if err != nil {
		return nil, err
	}
	return related, nil
}

// GetPublicBySlug 获取上架商品详情并累计浏览量
func (s *CatalogService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := s.productRepo.IncrementViews(product.ID); err != nil {
		logger.Warnw("product_increment_views_failed", "product_id", product.ID, "error", err)
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *CatalogService) ListAdmin(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = false
	filter.Page, filter.PageSize = repository.NormalizePagination(filter.Page, filter.PageSize)
	return s.productRepo.List(filter)
}

// GetAdminByID 获取后台商品详情
func (s *CatalogService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *CatalogService) validateProduct(input *SaveProductInput) error {
	if strings.TrimSpace(input.SKU) == "" || strings.TrimSpace(input.Name) == "" {
		return ErrInvalidInput
	}
	if input.BasePrice.Decimal.IsNegative() || input.DiscountAmount.Decimal.IsNegative() {
		return ErrProductPriceInvalid
	}
	pct := input.DiscountPercentage.Decimal
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return ErrProductPriceInvalid
	}
	if input.TotalStock != nil && *input.TotalStock < 0 {
		return ErrInvalidQuantity
	}
	if input.LowStockThreshold != nil && *input.LowStockThreshold < 0 {
		return ErrInvalidQuantity
	}
	gender := strings.ToLower(strings.TrimSpace(input.Gender))
	if gender == "" {
		gender = constants.GenderUnisex
	}
	if !containsString(constants.ValidGenders, gender) {
		return ErrInvalidInput
	}
	input.Gender = gender
	if input.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(*input.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return ErrCategoryNotFound
		}
	}
	return nil
}

func applyProductInput(product *models.Product, input SaveProductInput) {
	product.SKU = strings.TrimSpace(input.SKU)
	if slug := strings.TrimSpace(input.Slug); slug != "" {
		product.Slug = slug
	}
	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.ShortDescription = strings.TrimSpace(input.ShortDescription)
	product.CategoryID = input.CategoryID
	product.Gender = input.Gender
	product.BasePrice = models.NewMoney(input.BasePrice.Decimal)
	product.DiscountPercentage = models.NewMoney(input.DiscountPercentage.Decimal)
	product.DiscountAmount = models.NewMoney(input.DiscountAmount.Decimal)
	if input.TotalStock != nil {
		product.TotalStock = *input.TotalStock
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}
	product.Features = models.StringArray(input.Features)
	product.Material = strings.TrimSpace(input.Material)
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}

// Create 创建商品
func (s *CatalogService) Create(input SaveProductInput, createdByID uint) (*models.Product, error) {
	if err := s.validateProduct(&input); err != nil {
		return nil, err
	}
	product := &models.Product{IsActive: true, LowStockThreshold: 10}
	applyProductInput(product, input)
	if createdByID != 0 {
		product.CreatedByID = &createdByID
	}
	if err := s.productRepo.Create(product); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSKUTaken
		}
		return nil, err
	}
	// is_active 与 low_stock_threshold 列有默认值，零值在插入时会被忽略
	if !product.IsActive || product.LowStockThreshold == 0 {
		if err := s.productRepo.Update(product); err != nil {
			return nil, err
		}
	}
	logger.Infow("product_created", "product_id", product.ID, "sku", product.SKU)
	return s.GetAdminByID(product.ID)
}

// Update 更新商品；有规格时总库存以规格之和为准
func (s *CatalogService) Update(id uint, input SaveProductInput) (*models.Product, error) {
	product, err := s.GetAdminByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.validateProduct(&input); err != nil {
		return nil, err
	}
	applyProductInput(product, input)
	if err := s.productRepo.Update(product); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSKUTaken
		}
		return nil, err
	}
	if err := s.productRepo.SyncStockFromVariants(product.ID); err != nil {
		return nil, err
	}
	return s.GetAdminByID(product.ID)
}

// Delete 删除商品
func (s *CatalogService) Delete(id uint) error {
	if _, err := s.GetAdminByID(id); err != nil {
		return err
	}
	return s.productRepo.Delete(id)
}

func normalizeVariantInput(input *SaveVariantInput) error {
	input.Size = strings.ToUpper(strings.TrimSpace(input.Size))
	input.Color = strings.TrimSpace(input.Color)
	if !containsString(constants.ValidSizes, input.Size) {
		return ErrInvalidSize
	}
	if input.Color == "" {
		return ErrInvalidInput
	}
	if input.Stock < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// CreateVariant 新增规格，并同步商品总库存
func (s *CatalogService) CreateVariant(productID uint, input SaveVariantInput) (*models.ProductVariant, error) {
	if _, err := s.GetAdminByID(productID); err != nil {
		return nil, err
	}
	if err := normalizeVariantInput(&input); err != nil {
		return nil, err
	}
	variant := &models.ProductVariant{
		ProductID:       productID,
		Size:            input.Size,
		Color:           input.Color,
		ColorHex:        strings.TrimSpace(input.ColorHex),
		Stock:           input.Stock,
		AdditionalPrice: models.NewMoney(input.AdditionalPrice.Decimal),
		SKUSuffix:       strings.TrimSpace(input.SKUSuffix),
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.variantRepo.WithTx(tx).Create(variant); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrVariantDuplicate
			}
			return err
		}
		return s.productRepo.WithTx(tx).SyncStockFromVariants(productID)
	})
	if err != nil {
		return nil, err
	}
	return s.variantRepo.GetByID(variant.ID)
}

// UpdateVariant 更新规格，规格必须属于该商品
func (s *CatalogService) UpdateVariant(productID, variantID uint, input SaveVariantInput) (*models.ProductVariant, error) {
	variant, err := s.ownedVariant(productID, variantID)
	if err != nil {
		return nil, err
	}
	if err := normalizeVariantInput(&input); err != nil {
		return nil, err
	}
	variant.Size = input.Size
	variant.Color = input.Color
	variant.ColorHex = strings.TrimSpace(input.ColorHex)
	variant.Stock = input.Stock
	variant.AdditionalPrice = models.NewMoney(input.AdditionalPrice.Decimal)
	variant.SKUSuffix = strings.TrimSpace(input.SKUSuffix)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.variantRepo.WithTx(tx).Update(variant); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrVariantDuplicate
			}
			return err
		}
		return s.productRepo.WithTx(tx).SyncStockFromVariants(productID)
	})
	if err != nil {
		return nil, err
	}
	return s.variantRepo.GetByID(variant.ID)
}

// DeleteVariant 删除规格并同步总库存
func (s *CatalogService) DeleteVariant(productID, variantID uint) error {
	if _, err := s.ownedVariant(productID, variantID); err != nil {
		return err
	}
	return models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.variantRepo.WithTx(tx).Delete(variantID); err != nil {
			return err
		}
		return s.productRepo.WithTx(tx).SyncStockFromVariants(productID)
	})
}

// SetStock 盘点库存：指定规格时设置规格库存并汇总，否则直接设置商品库存
func (s *CatalogService) SetStock(productID, variantID uint, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.GetAdminByID(productID)
	if err != nil {
		return nil, err
	}
	if variantID == 0 && len(product.Variants) > 0 {
		return nil, ErrVariantNotFound
	}
	var variant *models.ProductVariant
	if variantID != 0 {
		if variant, err = s.ownedVariant(productID, variantID); err != nil {
			return nil, err
		}
		variant.Stock = stock
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		if variant == nil {
			return productRepo.SetStock(productID, stock)
		}
		if err := s.variantRepo.WithTx(tx).Update(variant); err != nil {
			return err
		}
		return productRepo.SyncStockFromVariants(productID)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("product_stock_set", "product_id", productID, "variant_id", variantID, "stock", stock)
	return s.GetAdminByID(productID)
}

func (s *CatalogService) ownedVariant(productID, variantID uint) (*models.ProductVariant, error) {
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	if variant.ProductID != productID {
		return nil, ErrVariantMismatch
	}
	variant.Product = nil
	return variant, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
