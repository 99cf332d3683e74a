package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveCouponRequest 创建/更新优惠券请求
type SaveCouponRequest struct {
	Code                  string       `json:"code" binding:"required"`
	Description           string       `json:"description"`
	DiscountType          string       `json:"discount_type" binding:"required"`
	DiscountValue         models.Money `json:"discount_value"`
	MinimumPurchase       models.Money `json:"minimum_purchase"`
	UsageLimit            *int         `json:"usage_limit"`
	SingleUse             bool         `json:"single_use"`
	ValidFrom             time.Time    `json:"valid_from" binding:"required"`
	ValidTo               time.Time    `json:"valid_to" binding:"required"`
	IsActive              *bool        `json:"is_active"`
	ApplicableCategoryIDs []uint       `json:"applicable_category_ids"`
	ApplicableProductIDs  []uint       `json:"applicable_product_ids"`
	ApplicableUserIDs     []uint       `json:"applicable_user_ids"`
}

func (req SaveCouponRequest) toInput() service.SaveCouponInput {
	return service.SaveCouponInput{
		Code:                  req.Code,
		Description:           req.Description,
		DiscountType:          req.DiscountType,
		DiscountValue:         req.DiscountValue,
		MinimumPurchase:       req.MinimumPurchase,
		UsageLimit:            req.UsageLimit,
		SingleUse:             req.SingleUse,
		ValidFrom:             req.ValidFrom,
		ValidTo:               req.ValidTo,
		IsActive:              req.IsActive,
		ApplicableCategoryIDs: req.ApplicableCategoryIDs,
		ApplicableProductIDs:  req.ApplicableProductIDs,
		ApplicableUserIDs:     req.ApplicableUserIDs,
	}
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req SaveCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	coupon, err := h.CouponAdminService.Create(req.toInput())
	if err != nil {
		respondServiceError(c, err, "创建优惠券失败")
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req SaveCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	coupon, err := h.CouponAdminService.Update(id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "更新优惠券失败")
		return
	}
	response.Success(c, coupon)
}

// GetCoupon 优惠券详情
func (h *Handler) GetCoupon(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	coupon, err := h.CouponAdminService.Get(id)
	if err != nil {
		respondServiceError(c, err, "获取优惠券失败")
		return
	}
	response.Success(c, coupon)
}

// GetCoupons 优惠券列表
func (h *Handler) GetCoupons(c *gin.Context) {
	page, pageSize := handlershared.PageParams(c)
	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取优惠券列表失败", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.NewPagination(page, pageSize, total))
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.CouponAdminService.Delete(id); err != nil {
		respondServiceError(c, err, "删除优惠券失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
