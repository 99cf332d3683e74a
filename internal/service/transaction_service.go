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

// RecordPaymentInput 支付结果
type RecordPaymentInput struct {
	Amount        decimal.Decimal
	PaymentMethod string
	Status        string
	ExternalRef   string
	ResponseData  models.JSONMap
	FailureReason string
}

// TransactionService 交易流水服务，流水只追加
type TransactionService struct {
	txnRepo      repository.TransactionRepository
	orderRepo    repository.OrderRepository
	orderService *OrderService
}

// NewTransactionService 创建交易流水服务
func NewTransactionService(txnRepo repository.TransactionRepository, orderRepo repository.OrderRepository, orderService *OrderService) *TransactionService {
	return &TransactionService{
		txnRepo:      txnRepo,
		orderRepo:    orderRepo,
		orderService: orderService,
	}
}

// RecordPayment 记录一次支付尝试；成功时订单支付状态置为 succeeded 并进入 paid
func (s *TransactionService) RecordPayment(orderID uint, input RecordPaymentInput) (*models.Transaction, error) {
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
	method := order.PaymentMethod
	if strings.TrimSpace(input.PaymentMethod) != "" {
		method, err = normalizePaymentMethod(input.PaymentMethod)
		if err != nil {
			return nil, err
		}
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	switch status {
	case constants.TransactionStatusPending, constants.TransactionStatusProcessing,
		constants.TransactionStatusSucceeded, constants.TransactionStatusFailed:
	default:
		return nil, ErrInvalidInput
	}
	amount := input.Amount.Round(2)
	if status == constants.TransactionStatusSucceeded && !amount.Equal(order.Total.Decimal) {
		return nil, ErrPaymentAmountMismatch
	}

	now := time.Now()
	txn := &models.Transaction{
		OrderID:         order.ID,
		TransactionType: constants.TransactionTypePayment,
		Amount:          models.NewMoney(amount),
		PaymentMethod:   method,
		Status:          status,
		ExternalRef:     strings.TrimSpace(input.ExternalRef),
		ResponseData:    input.ResponseData,
		FailureReason:   strings.TrimSpace(input.FailureReason),
	}
	if status == constants.TransactionStatusSucceeded || status == constants.TransactionStatusFailed {
		txn.CompletedAt = &now
	}

	from := order.Status
	promoted := false
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
			return err
		}
		orderRepo := s.orderRepo.WithTx(tx)
		switch status {
		case constants.TransactionStatusSucceeded:
			if from == constants.OrderStatusPending || from == constants.OrderStatusProcessing {
				updates := statusUpdates(order, constants.OrderStatusPaid, now)
				updates["payment_status"] = constants.PaymentStatusSucceeded
				rows, err := orderRepo.UpdateStatusFrom(order.ID, from, updates)
				if err != nil {
					return err
				}
				if rows == 0 {
					return ErrOrderConflict
				}
				promoted = true
				return nil
			}
			return orderRepo.Updates(order.ID, map[string]interface{}{"payment_status": constants.PaymentStatusSucceeded})
		case constants.TransactionStatusFailed:
			return orderRepo.Updates(order.ID, map[string]interface{}{"payment_status": constants.PaymentStatusFailed})
		case constants.TransactionStatusProcessing:
			return orderRepo.Updates(order.ID, map[string]interface{}{"payment_status": constants.PaymentStatusProcessing})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("payment_recorded",
		"order_id", order.ID,
		"transaction_id", txn.ID,
		"status", status,
		"amount", amount.StringFixed(2),
	)
	if promoted && s.orderService != nil {
		order.Status = constants.OrderStatusPaid
		s.orderService.notifyStatusChanged(order, from)
	}
	return txn, nil
}

// ListByOrder 订单交易流水
func (s *TransactionService) ListByOrder(orderID uint) ([]models.Transaction, error) {
	return s.txnRepo.ListByOrder(orderID)
}
