package repository

import (
	"errors"
	"strings"

	"github.com/verso-store/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	ListAll() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string, onlyActive bool) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	DecrementStock(productID uint, quantity int) (int64, error)
	RestoreStock(productID uint, quantity int) error
	SetStock(productID uint, stock int) error
	SyncStockFromVariants(productID uint) error
	IncrementViews(productID uint) error
	CountLowStock() (int64, error)
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	} else if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.OnlyFeatured {
		query = query.Where("is_featured = ?", true)
	}
	if filter.OnlySale {
		query = query.Where("discount_percentage > 0 OR discount_amount > 0")
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ExcludeID != 0 {
		query = query.Where("id <> ?", filter.ExcludeID)
	}
	if gender := strings.ToLower(strings.TrimSpace(filter.Gender)); gender != "" {
		query = query.Where("gender = ?", gender)
	}
	if filter.MinPrice != nil {
		query = query.Where("base_price >= ?", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		query = query.Where("base_price <= ?", filter.MaxPrice.String())
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, args := buildLikeCondition(r.db, search, "name", "sku", "description")
		categoryCondition, categoryArgs := buildLikeCondition(r.db, search, "name")
		condition = "((" + condition + ") OR category_id IN (SELECT id FROM categories WHERE " + categoryCondition + "))"
		query = query.Where(condition, append(args, categoryArgs...)...)
	}
	switch strings.ToLower(strings.TrimSpace(filter.StockStatus)) {
	case "low_stock":
		query = query.Where("total_stock > 0 AND total_stock <= low_stock_threshold")
	case "out_of_stock":
		query = query.Where("total_stock <= 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Category")
	if filter.WithVariants {
		query = query.Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("size ASC, color ASC")
		})
	}
	var products []models.Product
	if err := applyPagination(query, filter.Page, filter.PageSize).
		Order(productListOrder(filter.Sort)).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func productListOrder(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "price_low":
		return "base_price ASC, id ASC"
	case "price_high":
		return "base_price DESC, id DESC"
	case "name":
		return "name ASC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

// ListAll 全部商品（导出用）
func (r *GormProductRepository) ListAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Preload("Category").Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.Preload("Category").Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("size ASC, color ASC")
	})
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.withDetail(r.db).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string, onlyActive bool) (*models.Product, error) {
	query := r.withDetail(r.db).Where("slug = ?", strings.TrimSpace(slug))
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var product models.Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Omit(clause.Associations).Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Omit(clause.Associations).Save(product).Error
}

// Delete 删除商品，订单项保留快照并解除关联，购物车中的该商品一并移除
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).
			Updates(map[string]interface{}{"product_id": nil, "variant_id": nil}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Wishlist{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
}

// DecrementStock 条件扣减库存并累加销量，库存不足时影响行数为 0
func (r *GormProductRepository) DecrementStock(productID uint, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND total_stock >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"total_stock": gorm.Expr("total_stock - ?", quantity),
			"sales_count": gorm.Expr("sales_count + ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RestoreStock 回补库存并扣回销量（订单取消）
func (r *GormProductRepository) RestoreStock(productID uint, quantity int) error {
	if productID == 0 || quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"total_stock": gorm.Expr("total_stock + ?", quantity),
			"sales_count": gorm.Expr("CASE WHEN sales_count >= ? THEN sales_count - ? ELSE 0 END", quantity, quantity),
		}).Error
}

// SetStock 直接设置库存（后台盘点）
func (r *GormProductRepository) SetStock(productID uint, stock int) error {
	return r.db.Model(&models.Product{}).Where("id = ?", productID).Update("total_stock", stock).Error
}

// SyncStockFromVariants 有规格时总库存等于各规格库存之和
func (r *GormProductRepository) SyncStockFromVariants(productID uint) error {
	var row struct {
		Count int64
		Total int64
	}
	if err := r.db.Model(&models.ProductVariant{}).
		Select("COUNT(*) AS count, COALESCE(SUM(stock), 0) AS total").
		Where("product_id = ?", productID).
		Scan(&row).Error; err != nil {
		return err
	}
	if row.Count == 0 {
		return nil
	}
	return r.SetStock(productID, int(row.Total))
}

// IncrementViews 浏览量 +1
func (r *GormProductRepository) IncrementViews(productID uint) error {
	return r.db.Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

// CountLowStock 低库存上架商品数
func (r *GormProductRepository) CountLowStock() (int64, error) {
	var total int64
	err := r.db.Model(&models.Product{}).
		Where("is_active = ? AND total_stock <= low_stock_threshold", true).
		Count(&total).Error
	return total, err
}
