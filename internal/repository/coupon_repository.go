package repository

import (
	"errors"

	"github.com/verso-store/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	Delete(id uint) error
	ReplaceRestrictions(coupon *models.Coupon, categoryIDs, productIDs, userIDs []uint) error
	IncrementUsage(id uint) (bool, error)
	DecrementUsage(id uint) error
	CountUserUsages(couponID, userID uint) (int64, error)
	CreateUsage(usage *models.CouponUsage) error
	DeleteUsageByOrder(orderID uint) (*models.CouponUsage, error)
	WithTx(tx *gorm.DB) CouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) CouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

func (r *GormCouponRepository) withRestrictions(query *gorm.DB) *gorm.DB {
	return query.
		Preload("ApplicableCategories").
		Preload("ApplicableProducts").
		Preload("ApplicableUsers")
}

func (r *GormCouponRepository) first(query *gorm.DB) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.withRestrictions(query).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByID 根据 ID 获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByCode 根据优惠码获取优惠券（大小写不敏感）
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	normalized := models.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, nil
	}
	return r.first(r.db.Where("code = ?", normalized))
}

// List 获取优惠券列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := r.db.Model(&models.Coupon{})
	if filter.Code != "" {
		condition, args := buildLikeCondition(r.db, models.NormalizeCouponCode(filter.Code), "code")
		query = query.Where(condition, args...)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var coupons []models.Coupon
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id DESC").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Omit(clause.Associations).Create(coupon).Error
}

// Update 更新优惠券基础字段
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Omit(clause.Associations).Save(coupon).Error
}

// Delete 删除优惠券
func (r *GormCouponRepository) Delete(id uint) error {
	coupon := models.Coupon{ID: id}
	if err := r.db.Model(&coupon).Association("ApplicableCategories").Clear(); err != nil {
		return err
	}
	if err := r.db.Model(&coupon).Association("ApplicableProducts").Clear(); err != nil {
		return err
	}
	if err := r.db.Model(&coupon).Association("ApplicableUsers").Clear(); err != nil {
		return err
	}
	return r.db.Delete(&models.Coupon{}, id).Error
}

// ReplaceRestrictions 覆盖优惠券适用范围
func (r *GormCouponRepository) ReplaceRestrictions(coupon *models.Coupon, categoryIDs, productIDs, userIDs []uint) error {
	categories := make([]models.Category, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		categories = append(categories, models.Category{ID: id})
	}
	products := make([]models.Product, 0, len(productIDs))
	for _, id := range productIDs {
		products = append(products, models.Product{ID: id})
	}
	users := make([]models.User, 0, len(userIDs))
	for _, id := range userIDs {
		users = append(users, models.User{ID: id})
	}
	if err := r.db.Model(coupon).Association("ApplicableCategories").Replace(categories); err != nil {
		return err
	}
	if err := r.db.Model(coupon).Association("ApplicableProducts").Replace(products); err != nil {
		return err
	}
	return r.db.Model(coupon).Association("ApplicableUsers").Replace(users)
}

// IncrementUsage 在未达上限时使用次数加一，返回是否成功
func (r *GormCouponRepository) IncrementUsage(id uint) (bool, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ?", id).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementUsage 使用次数减一（不低于 0）
func (r *GormCouponRepository) DecrementUsage(id uint) error {
	return r.db.Model(&models.Coupon{}).
		Where("id = ? AND usage_count > 0", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count - ?", 1)).Error
}

// CountUserUsages 统计用户使用某优惠券的次数
func (r *GormCouponRepository) CountUserUsages(couponID, userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateUsage 写入使用记录
func (r *GormCouponRepository) CreateUsage(usage *models.CouponUsage) error {
	return r.db.Create(usage).Error
}

// DeleteUsageByOrder 删除订单对应的使用记录并返回被删除的记录
func (r *GormCouponRepository) DeleteUsageByOrder(orderID uint) (*models.CouponUsage, error) {
	var usage models.CouponUsage
	if err := r.db.Where("order_id = ?", orderID).First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.db.Delete(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}
