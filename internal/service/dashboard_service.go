package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verso-store/internal/cache"
	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/repository"
)

const (
	dashboardCacheTTL      = 60 * time.Second
	dashboardCustomMaxDays = 90
	dashboardStatsCacheKey = "dashboard:stats"
	dashboardTopProducts   = 5
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页的销售、订单、顾客与库存数据。
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// DashboardStats 仪表盘统计
type DashboardStats struct {
	TotalSales       string `json:"total_sales"`
	Sales30d         string `json:"sales_30d"`
	Sales7d          string `json:"sales_7d"`
	OrdersTotal      int64  `json:"orders_total"`
	OrdersPending    int64  `json:"orders_pending"`
	OrdersProcessing int64  `json:"orders_processing"`
	CustomersTotal   int64  `json:"customers_total"`
	NewCustomers30d  int64  `json:"new_customers_30d"`
	LowStockProducts int64  `json:"low_stock_products"`
	GeneratedAt      string `json:"generated_at"`
}

// DashboardQueryInput 趋势与排行查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date        string `json:"date"`
	OrdersTotal int64  `json:"orders_total"`
	OrdersPaid  int64  `json:"orders_paid"`
	Sales       string `json:"sales"`
}

// DashboardRankingsResponse 仪表盘排行响应
type DashboardRankingsResponse struct {
	Range       string                    `json:"range"`
	From        string                    `json:"from"`
	To          string                    `json:"to"`
	Timezone    string                    `json:"timezone"`
	TopProducts []DashboardProductRanking `json:"top_products"`
}

// DashboardProductRanking 商品排行项
type DashboardProductRanking struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Orders    int64  `json:"orders"`
	Quantity  int64  `json:"quantity"`
	Revenue   string `json:"revenue"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

// GetStats 获取仪表盘统计，Redis 启用时缓存 60 秒
func (s *DashboardService) GetStats(ctx context.Context, forceRefresh bool) (*DashboardStats, error) {
	if s == nil || s.repo == nil {
		return &DashboardStats{}, nil
	}
	if !forceRefresh {
		var cached DashboardStats
		hit, cacheErr := cache.GetJSON(ctx, dashboardStatsCacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	now := time.Now()
	since30 := now.AddDate(0, 0, -30)
	since7 := now.AddDate(0, 0, -7)

	totalSales, err := s.repo.SumSales(nil)
	if err != nil {
		return nil, err
	}
	sales30, err := s.repo.SumSales(&since30)
	if err != nil {
		return nil, err
	}
	sales7, err := s.repo.SumSales(&since7)
	if err != nil {
		return nil, err
	}
	ordersTotal, err := s.repo.CountOrders(nil)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.CountOrders([]string{constants.OrderStatusPending})
	if err != nil {
		return nil, err
	}
	processing, err := s.repo.CountOrders([]string{constants.OrderStatusProcessing})
	if err != nil {
		return nil, err
	}
	customers, err := s.repo.CountCustomers(nil)
	if err != nil {
		return nil, err
	}
	newCustomers, err := s.repo.CountCustomers(&since30)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.repo.CountLowStockProducts()
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalSales:       formatMoneyValue(totalSales),
		Sales30d:         formatMoneyValue(sales30),
		Sales7d:          formatMoneyValue(sales7),
		OrdersTotal:      ordersTotal,
		OrdersPending:    pending,
		OrdersProcessing: processing,
		CustomersTotal:   customers,
		NewCustomers30d:  newCustomers,
		LowStockProducts: lowStock,
		GeneratedAt:      now.Format(time.RFC3339),
	}
	_ = cache.SetJSON(ctx, dashboardStatsCacheKey, stats, dashboardCacheTTL)
	return stats, nil
}

// InvalidateStats 清除统计缓存
func (s *DashboardService) InvalidateStats(ctx context.Context) {
	_ = cache.Del(ctx, dashboardStatsCacheKey)
}

// GetTrends 获取按天聚合的订单趋势
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.GetOrderTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	rowMap := make(map[string]repository.DashboardOrderTrendRow, len(rows))
	for _, item := range rows {
		rowMap[item.Day] = item
	}

	points := make([]DashboardTrendPoint, 0)
	for cursor := time.Date(window.startAt.Year(), window.startAt.Month(), window.startAt.Day(), 0, 0, 0, 0, window.startAt.Location()); cursor.Before(window.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		item := rowMap[day]
		points = append(points, DashboardTrendPoint{
			Date:        day,
			OrdersTotal: item.OrdersTotal,
			OrdersPaid:  item.OrdersPaid,
			Sales:       formatMoneyValue(item.Sales),
		})
	}

	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}
	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetRankings 获取商品销售排行
func (s *DashboardService) GetRankings(ctx context.Context, input DashboardQueryInput) (*DashboardRankingsResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardRankingsResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:rankings:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardRankingsResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.GetTopProducts(window.startAt, window.endAt, dashboardTopProducts)
	if err != nil {
		return nil, err
	}
	products := make([]DashboardProductRanking, 0, len(rows))
	for _, item := range rows {
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			name = "-"
		}
		products = append(products, DashboardProductRanking{
			ProductID: item.ProductID,
			Name:      name,
			Orders:    item.Orders,
			Quantity:  item.Quantity,
			Revenue:   formatMoneyValue(item.Revenue),
		})
	}

	response := &DashboardRankingsResponse{
		Range:       window.rangeKey,
		From:        window.startAt.Format(time.RFC3339),
		To:          window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone:    window.timezone,
		TopProducts: products,
	}
	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) || endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
		return window, nil
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	window.endAt = todayStart.AddDate(0, 0, 1)
	return window, nil
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
