package service

import (
	"strings"
	"time"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CouponContext 校验优惠券时的下单上下文
type CouponContext struct {
	UserID      uint
	ProductIDs  []uint
	CategoryIDs []uint
	Subtotal    decimal.Decimal
}

// CouponContextFromCart 由购物车构建校验上下文
func CouponContextFromCart(cart *models.Cart, userID uint) CouponContext {
	ctx := CouponContext{UserID: userID}
	lines := make([]decimal.Decimal, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		ctx.ProductIDs = append(ctx.ProductIDs, item.ProductID)
		if item.Product != nil && item.Product.CategoryID != nil {
			ctx.CategoryIDs = append(ctx.CategoryIDs, *item.Product.CategoryID)
		}
		lines = append(lines, item.LineTotal().Decimal)
	}
	ctx.Subtotal = decimal.Sum(decimal.Zero, lines...)
	return ctx
}

// CouponQuote 优惠券试算结果
type CouponQuote struct {
	Coupon   *models.Coupon
	Discount decimal.Decimal
}

// CouponService 优惠券校验与计算
type CouponService struct {
	couponRepo repository.CouponRepository
	cartRepo   repository.CartRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, cartRepo repository.CartRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		cartRepo:   cartRepo,
	}
}

// CheckValidity 校验启用状态、有效期与总使用次数
func CheckValidity(coupon *models.Coupon, now time.Time) error {
	if coupon == nil {
		return ErrCouponNotFound
	}
	if !coupon.IsActive {
		return ErrCouponInactive
	}
	if now.Before(coupon.ValidFrom) {
		return ErrCouponNotStarted
	}
	if now.After(coupon.ValidTo) {
		return ErrCouponExpired
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return ErrCouponUsageLimit
	}
	return nil
}

// IsValid 优惠券当前是否可用
func IsValid(coupon *models.Coupon, now time.Time) bool {
	return CheckValidity(coupon, now) == nil
}

// CheckEligibility 校验适用用户、商品与分类；未配置的维度不限制
func CheckEligibility(coupon *models.Coupon, ctx CouponContext) error {
	if len(coupon.ApplicableUsers) > 0 {
		if ctx.UserID == 0 || !containsUser(coupon.ApplicableUsers, ctx.UserID) {
			return ErrCouponNotEligible
		}
	}
	if len(coupon.ApplicableProducts) == 0 && len(coupon.ApplicableCategories) == 0 {
		return nil
	}
	products := make(map[uint]struct{}, len(coupon.ApplicableProducts))
	for _, p := range coupon.ApplicableProducts {
		products[p.ID] = struct{}{}
	}
	categories := make(map[uint]struct{}, len(coupon.ApplicableCategories))
	for _, c := range coupon.ApplicableCategories {
		categories[c.ID] = struct{}{}
	}
	for _, id := range ctx.ProductIDs {
		if _, ok := products[id]; ok {
			return nil
		}
	}
	for _, id := range ctx.CategoryIDs {
		if _, ok := categories[id]; ok {
			return nil
		}
	}
	return ErrCouponNotEligible
}

func containsUser(users []models.User, userID uint) bool {
	for _, u := range users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// CalculateDiscount 计算优惠金额：未达门槛为 0；百分比按小计折算；固定金额不超过小计
func CalculateDiscount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil || subtotal.LessThan(coupon.MinimumPurchase.Decimal) {
		return decimal.Zero
	}
	value := coupon.DiscountValue.Decimal
	if !value.IsPositive() {
		return decimal.Zero
	}
	switch strings.ToLower(strings.TrimSpace(coupon.DiscountType)) {
	case constants.CouponTypePercentage:
		return subtotal.Mul(decimal.Min(value, hundred)).Div(hundred).Round(2)
	case constants.CouponTypeFixed:
		return decimal.Min(value, subtotal).Round(2)
	default:
		return decimal.Zero
	}
}

// Validate 完整校验：有效性、适用范围、单用户限用与门槛
func (s *CouponService) Validate(coupon *models.Coupon, now time.Time, ctx CouponContext) error {
	if err := CheckValidity(coupon, now); err != nil {
		return err
	}
	if err := CheckEligibility(coupon, ctx); err != nil {
		return err
	}
	if coupon.SingleUse && ctx.UserID != 0 {
		used, err := s.couponRepo.CountUserUsages(coupon.ID, ctx.UserID)
		if err != nil {
			return err
		}
		if used > 0 {
			return ErrCouponSingleUse
		}
	}
	if ctx.Subtotal.LessThan(coupon.MinimumPurchase.Decimal) {
		return ErrCouponMinAmount
	}
	return nil
}

// Apply 按优惠码查找、校验并计算优惠
func (s *CouponService) Apply(code string, ctx CouponContext, now time.Time) (*CouponQuote, error) {
	code = models.NormalizeCouponCode(code)
	if code == "" {
		return nil, ErrCouponInvalid
	}
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if err := s.Validate(coupon, now, ctx); err != nil {
		return nil, err
	}
	return &CouponQuote{
		Coupon:   coupon,
		Discount: CalculateDiscount(coupon, ctx.Subtotal),
	}, nil
}

// Preview 对当前购物车试算优惠码
func (s *CouponService) Preview(owner CartOwner, userID uint, code string) (*CartView, error) {
	cart, err := findCart(s.cartRepo, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}
	quote, err := s.Apply(code, CouponContextFromCart(cart, userID), time.Now())
	if err != nil {
		return nil, err
	}
	view := BuildCartView(cart, quote.Discount)
	view.CouponCode = quote.Coupon.Code
	return view, nil
}
