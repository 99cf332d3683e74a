package repository

import (
	"errors"
	"time"

	"github.com/verso-store/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByID(id uint) (*models.Cart, error)
	GetByUser(userID uint) (*models.Cart, error)
	GetBySession(sessionKey string) (*models.Cart, error)
	Create(cart *models.Cart) error
	Delete(cartID uint) error
	Touch(cartID uint) error
	GetItem(itemID uint) (*models.CartItem, error)
	FindItem(cartID, productID, variantID uint) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	IncrementItemQuantity(itemID uint, delta int) error
	SetItemQuantity(itemID uint, quantity int) error
	MoveItem(itemID, cartID uint) error
	DeleteItem(itemID uint) error
	ClearItems(cartID uint) (int64, error)
	LockByID(id uint) (*models.Cart, error)
	ListItems(cartID uint) ([]models.CartItem, error)
	DeleteItems(cartID uint, itemIDs []uint) (int64, error)
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

func (r *GormCartRepository) withItems(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at DESC, id DESC") }).
		Preload("Items.Product").
		Preload("Items.Variant")
}

func (r *GormCartRepository) first(query *gorm.DB) (*models.Cart, error) {
	var cart models.Cart
	if err := r.withItems(query).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetByID 根据 ID 获取购物车
func (r *GormCartRepository) GetByID(id uint) (*models.Cart, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByUser 获取用户购物车
func (r *GormCartRepository) GetByUser(userID uint) (*models.Cart, error) {
	return r.first(r.db.Where("user_id = ?", userID))
}

// GetBySession 获取匿名会话购物车
func (r *GormCartRepository) GetBySession(sessionKey string) (*models.Cart, error) {
	return r.first(r.db.Where("session_key = ? AND user_id IS NULL", sessionKey))
}

// Create 创建购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Omit(clause.Associations).Create(cart).Error
}

// Delete 删除购物车及其购物车项
func (r *GormCartRepository) Delete(cartID uint) error {
	if err := r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Cart{}, cartID).Error
}

// Touch 刷新购物车更新时间
func (r *GormCartRepository) Touch(cartID uint) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).UpdateColumn("updated_at", time.Now()).Error
}

// GetItem 根据 ID 获取购物车项
func (r *GormCartRepository) GetItem(itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindItem 按 (购物车, 商品, 规格) 查找购物车项
func (r *GormCartRepository) FindItem(cartID, productID, variantID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ? AND variant_id = ?", cartID, productID, variantID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem 新增购物车项
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	return r.db.Omit(clause.Associations).Create(item).Error
}

// IncrementItemQuantity 原子累加数量
func (r *GormCartRepository) IncrementItemQuantity(itemID uint, delta int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		}).Error
}

// SetItemQuantity 设置数量
func (r *GormCartRepository) SetItemQuantity(itemID uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		}).Error
}

// MoveItem 将购物车项挂到另一个购物车
func (r *GormCartRepository) MoveItem(itemID, cartID uint) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"cart_id":    cartID,
			"updated_at": time.Now(),
		}).Error
}

// DeleteItem 删除购物车项
func (r *GormCartRepository) DeleteItem(itemID uint) error {
	return r.db.Delete(&models.CartItem{}, itemID).Error
}

// ClearItems 清空购物车项，购物车本身保留
func (r *GormCartRepository) ClearItems(cartID uint) (int64, error) {
	result := r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// LockByID 锁定购物车行（不预加载购物车项），需在事务内调用
func (r *GormCartRepository) LockByID(id uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// ListItems 读取购物车当前的全部购物车项
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteItems 删除购物车中指定的购物车项
func (r *GormCartRepository) DeleteItems(cartID uint, itemIDs []uint) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	result := r.db.Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}
