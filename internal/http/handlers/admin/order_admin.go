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

// AdminOrderDetail 管理端订单详情返回
type AdminOrderDetail struct {
	*models.Order
	Transactions []models.Transaction `json:"transactions"`
}

// UpdateOrderStatusRequest 推进订单状态请求
type UpdateOrderStatusRequest struct {
	Status     string  `json:"status" binding:"required"`
	AdminNotes *string `json:"admin_notes"`
}

// UpdateTrackingRequest 物流信息请求
type UpdateTrackingRequest struct {
	TrackingNumber    string     `json:"tracking_number" binding:"required"`
	Carrier           string     `json:"carrier"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// RefundOrderRequest 退款请求
type RefundOrderRequest struct {
	Amount models.Money `json:"amount"`
	Reason string       `json:"reason"`
}

// RecordPaymentRequest 录入支付流水请求
type RecordPaymentRequest struct {
	Amount        models.Money   `json:"amount"`
	PaymentMethod string         `json:"payment_method"`
	Status        string         `json:"status" binding:"required"`
	ExternalRef   string         `json:"external_ref"`
	ResponseData  models.JSONMap `json:"response_data"`
	FailureReason string         `json:"failure_reason"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.PageParams(c)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	var userID uint
	if userIDStr := strings.TrimSpace(c.Query("user_id")); userIDStr != "" {
		if parsed, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.AdminList(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        userID,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNumber:   strings.TrimSpace(c.Query("order_number")),
		Search:        strings.TrimSpace(c.Query("search")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取订单列表失败", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情，附带交易流水
func (h *Handler) AdminGetOrder(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.AdminGet(id)
	if err != nil {
		respondServiceError(c, err, "获取订单详情失败")
		return
	}
	txns, err := h.TransactionService.ListByOrder(id)
	if err != nil {
		respondError(c, response.CodeInternal, "获取订单详情失败", err)
		return
	}
	response.Success(c, AdminOrderDetail{Order: order, Transactions: txns})
}

// AdminUpdateOrderStatus 推进订单状态
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(id, req.Status, req.AdminNotes)
	if err != nil {
		respondServiceError(c, err, "更新订单状态失败")
		return
	}
	response.Success(c, order)
}

// AdminUpdateTracking 更新物流信息
func (h *Handler) AdminUpdateTracking(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	order, err := h.OrderService.UpdateTracking(id, service.TrackingInput{
		TrackingNumber:    req.TrackingNumber,
		Carrier:           req.Carrier,
		EstimatedDelivery: req.EstimatedDelivery,
	})
	if err != nil {
		respondServiceError(c, err, "更新物流信息失败")
		return
	}
	response.Success(c, order)
}

// AdminRefundOrder 订单退款
func (h *Handler) AdminRefundOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	order, err := h.OrderService.Refund(id, service.RefundInput{
		Amount:     req.Amount.Decimal,
		Reason:     req.Reason,
		OperatorID: &actor.ID,
	})
	if err != nil {
		respondServiceError(c, err, "退款失败")
		return
	}
	response.Success(c, order)
}

// AdminListTransactions 订单交易流水
func (h *Handler) AdminListTransactions(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.OrderService.AdminGet(id); err != nil {
		respondServiceError(c, err, "获取交易流水失败")
		return
	}
	txns, err := h.TransactionService.ListByOrder(id)
	if err != nil {
		respondError(c, response.CodeInternal, "获取交易流水失败", err)
		return
	}
	response.Success(c, txns)
}

// AdminRecordPayment 录入支付流水
func (h *Handler) AdminRecordPayment(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	txn, err := h.TransactionService.RecordPayment(id, service.RecordPaymentInput{
		Amount:        req.Amount.Decimal,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
		ExternalRef:   req.ExternalRef,
		ResponseData:  req.ResponseData,
		FailureReason: req.FailureReason,
	})
	if err != nil {
		respondServiceError(c, err, "录入支付流水失败")
		return
	}
	response.Success(c, txn)
}
