package repository

import (
	"github.com/verso-store/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository 交易流水数据访问接口（只追加）
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	ListByOrder(orderID uint) ([]models.Transaction, error)
	SumByOrder(orderID uint, txnTypes []string, status string) (models.Money, error)
	WithTx(tx *gorm.DB) TransactionRepository
}

// GormTransactionRepository GORM 实现
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易流水仓库
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Create 追加交易流水
func (r *GormTransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// ListByOrder 获取订单的交易流水，最新在前
func (r *GormTransactionRepository) ListByOrder(orderID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.Where("order_id = ?", orderID).Order("created_at DESC, id DESC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// SumByOrder 汇总订单指定类型与状态的流水金额
func (r *GormTransactionRepository) SumByOrder(orderID uint, txnTypes []string, status string) (models.Money, error) {
	var txns []models.Transaction
	query := r.db.Select("amount").Where("order_id = ?", orderID)
	if len(txnTypes) > 0 {
		query = query.Where("transaction_type IN ?", txnTypes)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&txns).Error; err != nil {
		return models.ZeroMoney, err
	}
	sum := models.ZeroMoney.Decimal
	for _, txn := range txns {
		sum = sum.Add(txn.Amount.Decimal)
	}
	return models.NewMoney(sum), nil
}
