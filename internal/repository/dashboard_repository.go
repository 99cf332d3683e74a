package repository

import (
	"fmt"
	"time"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	SumSales(since *time.Time) (float64, error)
	CountOrders(statuses []string) (int64, error)
	CountCustomers(since *time.Time) (int64, error)
	CountLowStockProducts() (int64, error)
	GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error)
}

// DashboardOrderTrendRow 订单趋势统计
type DashboardOrderTrendRow struct {
	Day         string
	OrdersTotal int64
	OrdersPaid  int64
	Sales       float64
}

// DashboardProductRankingRow 商品排行原始行
type DashboardProductRankingRow struct {
	ProductID   uint
	ProductName string
	Orders      int64
	Quantity    int64
	Revenue     float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// SalesStatuses 计入销售额的订单状态
func SalesStatuses() []string {
	return []string{
		constants.OrderStatusPaid,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	}
}

// SumSales 统计销售额，since 为空时统计全部
func (r *GormDashboardRepository) SumSales(since *time.Time) (float64, error) {
	query := r.db.Model(&models.Order{}).Where("status IN ?", SalesStatuses())
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var total float64
	if err := query.Select("COALESCE(SUM(total), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountOrders 统计订单数，statuses 为空时统计全部
func (r *GormDashboardRepository) CountOrders(statuses []string) (int64, error) {
	query := r.db.Model(&models.Order{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountCustomers 统计顾客数，since 不为空时只统计新注册
func (r *GormDashboardRepository) CountCustomers(since *time.Time) (int64, error) {
	query := r.db.Model(&models.User{}).Where("role = ?", constants.RoleCustomer)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountLowStockProducts 统计库存不高于预警值的在售商品
func (r *GormDashboardRepository) CountLowStockProducts() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).
		Where("is_active = ? AND total_stock <= low_stock_threshold", true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetOrderTrends 获取按天聚合的订单趋势
func (r *GormDashboardRepository) GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error) {
	type totalRow struct {
		Day   string
		Total int64
	}
	type paidRow struct {
		Day   string
		Paid  int64
		Sales float64
	}

	dayExpr := "CAST(date(created_at) AS TEXT)"

	var totals []totalRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var paids []paidRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as paid, COALESCE(SUM(total), 0) as sales", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, SalesStatuses()).
		Group(dayExpr).
		Order("day asc").
		Scan(&paids).Error; err != nil {
		return nil, err
	}

	paidMap := make(map[string]paidRow, len(paids))
	for _, item := range paids {
		paidMap[item.Day] = item
	}

	result := make([]DashboardOrderTrendRow, 0, len(totals))
	for _, item := range totals {
		paid := paidMap[item.Day]
		result = append(result, DashboardOrderTrendRow{
			Day:         item.Day,
			OrdersTotal: item.Total,
			OrdersPaid:  paid.Paid,
			Sales:       paid.Sales,
		})
	}
	return result, nil
}

// GetTopProducts 获取商品销售排行
func (r *GormDashboardRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardProductRankingRow, 0)
	if err := r.db.Model(&models.OrderItem{}).
		Select(`
			order_items.product_id as product_id,
			order_items.product_name as product_name,
			COUNT(DISTINCT order_items.order_id) as orders,
			COALESCE(SUM(order_items.quantity), 0) as quantity,
			COALESCE(SUM(order_items.unit_price * order_items.quantity - order_items.discount_amount), 0) as revenue
		`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.deleted_at IS NULL AND orders.created_at >= ? AND orders.created_at < ? AND orders.status IN ?", startAt, endAt, SalesStatuses()).
		Where("order_items.product_id IS NOT NULL").
		Group("order_items.product_id, order_items.product_name").
		Order("revenue DESC, quantity DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
