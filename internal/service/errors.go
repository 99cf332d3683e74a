package service

import "errors"

// 通用
var (
	ErrNotFound           = errors.New("资源不存在")
	ErrForbidden          = errors.New("无权操作")
	ErrPermissionDenied   = errors.New("权限不足")
	ErrInvalidInput       = errors.New("参数错误")
	ErrQueueUnavailable   = errors.New("队列不可用")
	ErrCaptchaInvalid     = errors.New("验证码错误")
	ErrCaptchaRequired    = errors.New("验证码必填")
	ErrCaptchaUnavailable = errors.New("验证码服务不可用")
)

// 用户
var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserDisabled       = errors.New("用户已禁用")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUsernameTaken      = errors.New("用户名已存在")
	ErrEmailTaken         = errors.New("邮箱已被注册")
	ErrInvalidEmail       = errors.New("邮箱格式错误")
	ErrWeakPassword       = errors.New("密码强度不足")
	ErrRoleInvalid        = errors.New("角色无效")
	ErrCannotDeleteSelf   = errors.New("不能删除自己")
)

// 商品
var (
	ErrProductNotFound     = errors.New("商品不存在")
	ErrProductNotAvailable = errors.New("商品不可购买")
	ErrVariantNotFound     = errors.New("商品规格不存在")
	ErrVariantMismatch     = errors.New("规格不属于该商品")
	ErrVariantDuplicate    = errors.New("相同尺码与颜色的规格已存在")
	ErrSKUTaken            = errors.New("商品编码已存在")
	ErrCategoryNotFound    = errors.New("分类不存在")
	ErrProductPriceInvalid = errors.New("商品价格无效")
	ErrInvalidSize         = errors.New("尺码无效")
	ErrVariantRequired     = errors.New("请选择商品规格")
)

// 购物车
var (
	ErrCartItemNotFound = errors.New("购物车项不存在")
	ErrInvalidQuantity  = errors.New("数量无效")
	ErrInvalidCartOwner = errors.New("购物车归属无效")
	ErrEmptyCart        = errors.New("购物车为空")
	ErrCartChanged      = errors.New("购物车已变更，请刷新后重试")
)

// 收藏
var (
	ErrWishlistItemNotFound = errors.New("收藏不存在")
)

// 优惠券
var (
	ErrCouponNotFound    = errors.New("优惠券不存在")
	ErrCouponInvalid     = errors.New("优惠券无效")
	ErrCouponInactive    = errors.New("优惠券未启用")
	ErrCouponNotStarted  = errors.New("优惠券未生效")
	ErrCouponExpired     = errors.New("优惠券已过期")
	ErrCouponUsageLimit  = errors.New("优惠券已达使用上限")
	ErrCouponSingleUse   = errors.New("优惠券每位用户仅可使用一次")
	ErrCouponMinAmount   = errors.New("未达到优惠券使用门槛")
	ErrCouponNotEligible = errors.New("优惠券不适用于当前商品或用户")
	ErrCouponCodeTaken   = errors.New("优惠码已存在")
)

// 订单
var (
	ErrOrderNotFound         = errors.New("订单不存在")
	ErrOrderStatusInvalid    = errors.New("订单状态不允许该操作")
	ErrOrderCannotCancel     = errors.New("订单不可取消")
	ErrOrderCannotRefund     = errors.New("订单不可退款")
	ErrOrderConflict         = errors.New("订单状态已变更，请刷新后重试")
	ErrInsufficientStock     = errors.New("库存不足")
	ErrPaymentMethodInvalid  = errors.New("支付方式无效")
	ErrShippingAddressNeeded = errors.New("收货地址必填")
	ErrRefundAmountInvalid   = errors.New("退款金额无效")
	ErrOrderNumberExhausted  = errors.New("订单编号生成失败")
	ErrPaymentAmountMismatch = errors.New("支付金额与订单不一致")
)

// 后台
var (
	ErrDashboardRangeInvalid = errors.New("统计区间无效")
	ErrExportKindInvalid     = errors.New("导出类型无效")
	ErrExportFormatInvalid   = errors.New("导出格式无效")
)
