package repository

import (
	"github.com/verso-store/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WishlistRepository 收藏数据访问接口
type WishlistRepository interface {
	ListByUser(userID uint) ([]models.Wishlist, error)
	Exists(userID, productID uint) (bool, error)
	Create(item *models.Wishlist) error
	Delete(userID, productID uint) (int64, error)
	WithTx(tx *gorm.DB) WishlistRepository
}

// GormWishlistRepository GORM 实现
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository 创建收藏仓库
func NewWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWishlistRepository) WithTx(tx *gorm.DB) WishlistRepository {
	if tx == nil {
		return r
	}
	return &GormWishlistRepository{db: tx}
}

// ListByUser 用户收藏，最近加入的在前
func (r *GormWishlistRepository) ListByUser(userID uint) ([]models.Wishlist, error) {
	var items []models.Wishlist
	err := r.db.Preload("Product").Preload("Product.Category").
		Where("user_id = ?", userID).
		Order("added_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Exists 是否已收藏
func (r *GormWishlistRepository) Exists(userID, productID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Wishlist{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 新增收藏
func (r *GormWishlistRepository) Create(item *models.Wishlist) error {
	return r.db.Omit(clause.Associations).Create(item).Error
}

// Delete 取消收藏
func (r *GormWishlistRepository) Delete(userID, productID uint) (int64, error) {
	result := r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Wishlist{})
	return result.RowsAffected, result.Error
}
