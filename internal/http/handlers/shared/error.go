package shared

import (
	"errors"

	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.With("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// MappedError 定义业务错误到接口错误码的映射关系，消息取自业务错误本身。
type MappedError struct {
	Target error
	Code   int
}

// RespondWithMappedError 按规则匹配业务错误，未命中时使用兜底响应并记录原始错误。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Target.Error(), nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackMsg, err)
}

// ConcatMappedErrors 合并多组映射规则
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

func mapAll(code int, targets ...error) []MappedError {
	rules := make([]MappedError, 0, len(targets))
	for _, target := range targets {
		rules = append(rules, MappedError{Target: target, Code: code})
	}
	return rules
}

// CommonErrorRules 各接口共享的业务错误映射
var CommonErrorRules = ConcatMappedErrors(
	mapAll(response.CodeNotFound,
		service.ErrNotFound,
		service.ErrUserNotFound,
		service.ErrProductNotFound,
		service.ErrVariantNotFound,
		service.ErrCategoryNotFound,
		service.ErrCartItemNotFound,
		service.ErrWishlistItemNotFound,
		service.ErrCouponNotFound,
		service.ErrOrderNotFound,
	),
	mapAll(response.CodeForbidden,
		service.ErrForbidden,
		service.ErrPermissionDenied,
		service.ErrUserDisabled,
	),
	mapAll(response.CodeUnauthorized,
		service.ErrInvalidCredentials,
	),
	mapAll(response.CodeConflict,
		service.ErrUsernameTaken,
		service.ErrEmailTaken,
		service.ErrSKUTaken,
		service.ErrVariantDuplicate,
		service.ErrCouponCodeTaken,
		service.ErrOrderConflict,
		service.ErrInsufficientStock,
		service.ErrCartChanged,
	),
	mapAll(response.CodeBadRequest,
		service.ErrInvalidInput,
		service.ErrCaptchaInvalid,
		service.ErrCaptchaRequired,
		service.ErrInvalidEmail,
		service.ErrWeakPassword,
		service.ErrRoleInvalid,
		service.ErrCannotDeleteSelf,
		service.ErrProductNotAvailable,
		service.ErrVariantMismatch,
		service.ErrProductPriceInvalid,
		service.ErrInvalidSize,
		service.ErrVariantRequired,
		service.ErrInvalidQuantity,
		service.ErrInvalidCartOwner,
		service.ErrEmptyCart,
		service.ErrCouponInvalid,
		service.ErrCouponInactive,
		service.ErrCouponNotStarted,
		service.ErrCouponExpired,
		service.ErrCouponUsageLimit,
		service.ErrCouponSingleUse,
		service.ErrCouponMinAmount,
		service.ErrCouponNotEligible,
		service.ErrOrderStatusInvalid,
		service.ErrOrderCannotCancel,
		service.ErrOrderCannotRefund,
		service.ErrPaymentMethodInvalid,
		service.ErrShippingAddressNeeded,
		service.ErrRefundAmountInvalid,
		service.ErrPaymentAmountMismatch,
		service.ErrDashboardRangeInvalid,
		service.ErrExportKindInvalid,
		service.ErrExportFormatInvalid,
	),
	mapAll(response.CodeInternal,
		service.ErrQueueUnavailable,
		service.ErrCaptchaUnavailable,
		service.ErrOrderNumberExhausted,
	),
)

// RespondServiceError 使用通用映射响应业务错误
func RespondServiceError(c *gin.Context, err error, fallbackMsg string) {
	RespondWithMappedError(c, err, CommonErrorRules, response.CodeInternal, fallbackMsg)
}
