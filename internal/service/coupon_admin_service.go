package service

import (
	"strings"
	"time"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo repository.CouponRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository) *CouponAdminService {
	return &CouponAdminService{repo: repo}
}

// SaveCouponInput 创建/更新优惠券输入
type SaveCouponInput struct {
	Code                  string
	Description           string
	DiscountType          string
	DiscountValue         models.Money
	MinimumPurchase       models.Money
	UsageLimit            *int
	SingleUse             bool
	ValidFrom             time.Time
	ValidTo               time.Time
	IsActive              *bool
	ApplicableCategoryIDs []uint
	ApplicableProductIDs  []uint
	ApplicableUserIDs     []uint
}

func (input *SaveCouponInput) normalize() (string, string, error) {
	code := models.NormalizeCouponCode(input.Code)
	if code == "" {
		return "", "", ErrCouponInvalid
	}
	discountType := strings.ToLower(strings.TrimSpace(input.DiscountType))
	if discountType != constants.CouponTypeFixed && discountType != constants.CouponTypePercentage {
		return "", "", ErrCouponInvalid
	}
	if input.DiscountValue.Decimal.LessThanOrEqual(decimal.Zero) {
		return "", "", ErrCouponInvalid
	}
	if discountType == constants.CouponTypePercentage && input.DiscountValue.Decimal.GreaterThan(hundred) {
		return "", "", ErrCouponInvalid
	}
	if input.MinimumPurchase.Decimal.IsNegative() {
		return "", "", ErrCouponInvalid
	}
	if input.UsageLimit != nil && *input.UsageLimit < 0 {
		return "", "", ErrCouponInvalid
	}
	if input.ValidFrom.IsZero() || input.ValidTo.IsZero() || input.ValidTo.Before(input.ValidFrom) {
		return "", "", ErrCouponInvalid
	}
	return code, discountType, nil
}

// List 优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	filter.Page, filter.PageSize = repository.NormalizePagination(filter.Page, filter.PageSize)
	return s.repo.List(filter)
}

// Get 优惠券详情
func (s *CouponAdminService) Get(id uint) (*models.Coupon, error) {
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input SaveCouponInput) (*models.Coupon, error) {
	code, discountType, err := input.normalize()
	if err != nil {
		return nil, err
	}
	exist, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeTaken
	}

	coupon := &models.Coupon{
		Code:            code,
		Description:     strings.TrimSpace(input.Description),
		DiscountType:    discountType,
		DiscountValue:   input.DiscountValue,
		MinimumPurchase: input.MinimumPurchase,
		UsageLimit:      input.UsageLimit,
		SingleUse:       input.SingleUse,
		ValidFrom:       input.ValidFrom,
		ValidTo:         input.ValidTo,
		IsActive:        true,
	}
	if err := s.repo.Create(coupon); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrCouponCodeTaken
		}
		return nil, err
	}
	// is_active 列默认 true，零值在插入时会被忽略
	if input.IsActive != nil && !*input.IsActive {
		coupon.IsActive = false
		if err := s.repo.Update(coupon); err != nil {
			return nil, err
		}
	}
	if err := s.repo.ReplaceRestrictions(coupon, input.ApplicableCategoryIDs, input.ApplicableProductIDs, input.ApplicableUserIDs); err != nil {
		return nil, err
	}
	return s.Get(coupon.ID)
}

// Update 更新优惠券，已使用次数保持不变
func (s *CouponAdminService) Update(id uint, input SaveCouponInput) (*models.Coupon, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCouponNotFound
	}
	code, discountType, err := input.normalize()
	if err != nil {
		return nil, err
	}
	if code != existing.Code {
		dup, err := s.repo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrCouponCodeTaken
		}
	}

	existing.Code = code
	existing.Description = strings.TrimSpace(input.Description)
	existing.DiscountType = discountType
	existing.DiscountValue = input.DiscountValue
	existing.MinimumPurchase = input.MinimumPurchase
	existing.UsageLimit = input.UsageLimit
	existing.SingleUse = input.SingleUse
	existing.ValidFrom = input.ValidFrom
	existing.ValidTo = input.ValidTo
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}
	if err := s.repo.Update(existing); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRestrictions(existing, input.ApplicableCategoryIDs, input.ApplicableProductIDs, input.ApplicableUserIDs); err != nil {
		return nil, err
	}
	return s.Get(existing.ID)
}

// Delete 删除优惠券
func (s *CouponAdminService) Delete(id uint) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCouponNotFound
	}
	return s.repo.Delete(id)
}
