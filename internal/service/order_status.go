package service

import (
	"strings"
	"time"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusPaid:       true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusPaid:      true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusRefunded: true,
	},
}

// IsTransitionAllowed 判断订单状态流转是否合法
func IsTransitionAllowed(current, target string) bool {
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// IsValidOrderStatus 是否为已知订单状态
func IsValidOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusPending, constants.OrderStatusProcessing, constants.OrderStatusPaid,
		constants.OrderStatusShipped, constants.OrderStatusDelivered, constants.OrderStatusCancelled,
		constants.OrderStatusRefunded:
		return true
	}
	return false
}

// statusUpdates 生成状态变更字段，时间戳只在首次进入该状态时写入
func statusUpdates(order *models.Order, target string, now time.Time) map[string]interface{} {
	before := map[string]*time.Time{
		"paid_at":      order.PaidAt,
		"shipped_at":   order.ShippedAt,
		"delivered_at": order.DeliveredAt,
		"cancelled_at": order.CancelledAt,
	}
	order.StampStatusTime(target, now)
	after := map[string]*time.Time{
		"paid_at":      order.PaidAt,
		"shipped_at":   order.ShippedAt,
		"delivered_at": order.DeliveredAt,
		"cancelled_at": order.CancelledAt,
	}
	updates := map[string]interface{}{
		"status":     target,
		"updated_at": now,
	}
	for column, stamped := range after {
		if before[column] == nil && stamped != nil {
			updates[column] = *stamped
		}
	}
	return updates
}

// UpdateStatus 后台推进订单状态；取消与退款走各自流程
func (s *OrderService) UpdateStatus(orderID uint, target string, adminNotes *string) (*models.Order, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if !IsValidOrderStatus(target) {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == target {
		if adminNotes != nil {
			if err := s.orderRepo.Updates(order.ID, map[string]interface{}{"admin_notes": strings.TrimSpace(*adminNotes)}); err != nil {
				return nil, err
			}
			return s.AdminGet(order.ID)
		}
		return order, nil
	}
	if !IsTransitionAllowed(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}

	switch target {
	case constants.OrderStatusCancelled:
		if err := s.cancel(order); err != nil {
			return nil, err
		}
	case constants.OrderStatusRefunded:
		if _, err := s.Refund(order.ID, RefundInput{Reason: "status change"}); err != nil {
			return nil, err
		}
	default:
		from := order.Status
		updates := statusUpdates(order, target, s.now())
		if target == constants.OrderStatusPaid && order.PaymentStatus != constants.PaymentStatusSucceeded {
			updates["payment_status"] = constants.PaymentStatusSucceeded
		}
		if adminNotes != nil {
			updates["admin_notes"] = strings.TrimSpace(*adminNotes)
		}
		rows, err := s.orderRepo.UpdateStatusFrom(order.ID, from, updates)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, ErrOrderConflict
		}
		order.Status = target
		s.notifyStatusChanged(order, from)
	}

	if adminNotes != nil && (target == constants.OrderStatusCancelled || target == constants.OrderStatusRefunded) {
		if err := s.orderRepo.Updates(order.ID, map[string]interface{}{"admin_notes": strings.TrimSpace(*adminNotes)}); err != nil {
			return nil, err
		}
	}
	return s.AdminGet(order.ID)
}

// Cancel 顾客取消自己的订单，恢复库存与优惠券次数
func (s *OrderService) Cancel(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.cancel(order); err != nil {
		return nil, err
	}
	return s.GetForUser(order.ID, userID)
}

func (s *OrderService) cancel(order *models.Order) error {
	if !order.CanCancel() {
		return ErrOrderCannotCancel
	}
	from := order.Status
	updates := statusUpdates(order, constants.OrderStatusCancelled, s.now())
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderRepo.WithTx(tx).UpdateStatusFrom(order.ID, from, updates)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrOrderConflict
		}
		if err := restoreOrderStock(s.productRepo.WithTx(tx), s.variantRepo.WithTx(tx), order.Items); err != nil {
			return err
		}
		couponRepo := s.couponRepo.WithTx(tx)
		usage, err := couponRepo.DeleteUsageByOrder(order.ID)
		if err != nil {
			return err
		}
		if usage != nil {
			return couponRepo.DecrementUsage(usage.CouponID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Status = constants.OrderStatusCancelled
	logger.Infow("order_cancelled", "order_id", order.ID, "order_number", order.OrderNumber, "from_status", from)
	s.notifyStatusChanged(order, from)
	return nil
}

func restoreOrderStock(productRepo repository.ProductRepository, variantRepo repository.ProductVariantRepository, items []models.OrderItem) error {
	for _, item := range items {
		if item.VariantID != nil {
			if err := variantRepo.RestoreStock(*item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		if item.ProductID != nil {
			if err := productRepo.RestoreStock(*item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}

// RefundInput 退款输入，金额为零时退还剩余全部金额
type RefundInput struct {
	Amount     decimal.Decimal
	Reason     string
	OperatorID *uint
}

// Refund 员工退款：写入退款流水，全额退款时订单进入 refunded
func (s *OrderService) Refund(orderID uint, input RefundInput) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.CanRefund() {
		return nil, ErrOrderCannotRefund
	}

	refunded, err := s.txnRepo.SumByOrder(order.ID, []string{constants.TransactionTypeRefund, constants.TransactionTypePartialRefund}, constants.TransactionStatusSucceeded)
	if err != nil {
		return nil, err
	}
	refundable := order.Total.Decimal.Sub(refunded.Decimal)
	amount := input.Amount.Round(2)
	if amount.IsNegative() {
		return nil, ErrRefundAmountInvalid
	}
	if amount.IsZero() {
		amount = decimal.Max(refundable, decimal.Zero)
	}
	if amount.GreaterThan(refundable) {
		return nil, ErrRefundAmountInvalid
	}
	full := amount.GreaterThanOrEqual(refundable)

	from := order.Status
	now := s.now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		txnType := constants.TransactionTypePartialRefund
		if full {
			txnType = constants.TransactionTypeRefund
		}
		txn := &models.Transaction{
			OrderID:         order.ID,
			TransactionType: txnType,
			Amount:          models.NewMoney(amount),
			PaymentMethod:   order.PaymentMethod,
			Status:          constants.TransactionStatusSucceeded,
			OperatorID:      input.OperatorID,
			CompletedAt:     &now,
		}
		if reason := strings.TrimSpace(input.Reason); reason != "" {
			txn.ResponseData = models.JSONMap{"reason": reason}
		}
		if amount.IsPositive() {
			if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
				return err
			}
		}
		if !full {
			return nil
		}
		rows, err := s.orderRepo.WithTx(tx).UpdateStatusFrom(order.ID, from, map[string]interface{}{
			"status":         constants.OrderStatusRefunded,
			"payment_status": constants.PaymentStatusRefunded,
			"updated_at":     now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrOrderConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("order_refunded",
		"order_id", order.ID,
		"amount", amount.StringFixed(2),
		"full", full,
	)
	if full {
		order.Status = constants.OrderStatusRefunded
		s.notifyStatusChanged(order, from)
	}
	return s.AdminGet(order.ID)
}

// TrackingInput 物流信息
type TrackingInput struct {
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
}

// UpdateTracking 更新物流信息
func (s *OrderService) UpdateTracking(orderID uint, input TrackingInput) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusCancelled || order.Status == constants.OrderStatusRefunded {
		return nil, ErrOrderStatusInvalid
	}
	updates := map[string]interface{}{
		"tracking_number":    strings.TrimSpace(input.TrackingNumber),
		"carrier":            strings.TrimSpace(input.Carrier),
		"estimated_delivery": input.EstimatedDelivery,
		"updated_at":         s.now(),
	}
	if err := s.orderRepo.Updates(order.ID, updates); err != nil {
		return nil, err
	}
	return s.AdminGet(order.ID)
}

// ListForUser 用户订单列表
func (s *OrderService) ListForUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrForbidden
	}
	filter.Page, filter.PageSize = repository.NormalizePagination(filter.Page, filter.PageSize)
	return s.orderRepo.ListByUser(filter)
}

// GetForUser 用户订单详情
func (s *OrderService) GetForUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// AdminList 后台订单列表
func (s *OrderService) AdminList(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.Page, filter.PageSize = repository.NormalizePagination(filter.Page, filter.PageSize)
	return s.orderRepo.ListAdmin(filter)
}

// AdminGet 后台订单详情
func (s *OrderService) AdminGet(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Transactions 订单交易流水
func (s *OrderService) Transactions(orderID uint) ([]models.Transaction, error) {
	if _, err := s.AdminGet(orderID); err != nil {
		return nil, err
	}
	return s.txnRepo.ListByOrder(orderID)
}
