package public

import (
	"strings"

	handlershared "github.com/verso-store/internal/http/handlers/shared"
	"github.com/verso-store/internal/http/response"
	"github.com/verso-store/internal/repository"
	"github.com/verso-store/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	PaymentMethod         string `json:"payment_method"`
	CouponCode            string `json:"coupon_code"`
	CustomerName          string `json:"customer_name"`
	CustomerEmail         string `json:"customer_email"`
	CustomerPhone         string `json:"customer_phone"`
	ShippingAddress       string `json:"shipping_address"`
	ShippingCity          string `json:"shipping_city"`
	ShippingState         string `json:"shipping_state"`
	ShippingCountry       string `json:"shipping_country"`
	ShippingPostalCode    string `json:"shipping_postal_code"`
	BillingSameAsShipping *bool  `json:"billing_same_as_shipping"`
	BillingAddress        string `json:"billing_address"`
	BillingCity           string `json:"billing_city"`
	BillingState          string `json:"billing_state"`
	BillingCountry        string `json:"billing_country"`
	BillingPostalCode     string `json:"billing_postal_code"`
	CustomerNotes         string `json:"customer_notes"`
}

// Checkout 购物车结算下单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}

	order, err := h.OrderService.Checkout(uid, service.CheckoutInput{
		PaymentMethod:         req.PaymentMethod,
		CouponCode:            req.CouponCode,
		CustomerName:          req.CustomerName,
		CustomerEmail:         req.CustomerEmail,
		CustomerPhone:         req.CustomerPhone,
		ShippingAddress:       req.ShippingAddress,
		ShippingCity:          req.ShippingCity,
		ShippingState:         req.ShippingState,
		ShippingCountry:       req.ShippingCountry,
		ShippingPostalCode:    req.ShippingPostalCode,
		BillingSameAsShipping: req.BillingSameAsShipping,
		BillingAddress:        req.BillingAddress,
		BillingCity:           req.BillingCity,
		BillingState:          req.BillingState,
		BillingCountry:        req.BillingCountry,
		BillingPostalCode:     req.BillingPostalCode,
		CustomerNotes:         req.CustomerNotes,
	})
	if err != nil {
		respondServiceError(c, err, "下单失败")
		return
	}
	response.Success(c, order)
}

// ListOrders 本人订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageParams(c)
	orders, total, err := h.OrderService.ListForUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err, "获取订单列表失败")
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 本人订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetForUser(orderID, uid)
	if err != nil {
		respondServiceError(c, err, "获取订单详情失败")
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消本人订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Cancel(orderID, uid)
	if err != nil {
		respondServiceError(c, err, "取消订单失败")
		return
	}
	response.Success(c, order)
}
