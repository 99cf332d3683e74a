package service

import (
	"io"
	"strconv"
	"strings"

	"github.com/verso-store/internal/constants"
	"github.com/verso-store/internal/export"
	"github.com/verso-store/internal/models"
	"github.com/verso-store/internal/repository"
)

// 导出类型
const (
	ExportKindOrders    = "orders"
	ExportKindProducts  = "products"
	ExportKindCustomers = "customers"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService 后台数据导出
type ExportService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewExportService 创建导出服务
func NewExportService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository) *ExportService {
	return &ExportService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// ExportFile 导出结果元信息
type ExportFile struct {
	FileName    string
	ContentType string
	Format      string
	Table       *export.Table
}

// Build 生成导出表格
func (s *ExportService) Build(kind, format string) (*ExportFile, error) {
	normalizedFormat, err := export.NormalizeFormat(format)
	if err != nil {
		return nil, ErrExportFormatInvalid
	}
	kind = strings.ToLower(strings.TrimSpace(kind))

	var table *export.Table
	switch kind {
	case ExportKindOrders:
		table, err = s.ordersTable()
	case ExportKindProducts:
		table, err = s.productsTable()
	case ExportKindCustomers:
		table, err = s.customersTable()
	default:
		return nil, ErrExportKindInvalid
	}
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		FileName:    export.FileName(kind, normalizedFormat),
		ContentType: export.ContentType(normalizedFormat),
		Format:      normalizedFormat,
		Table:       table,
	}, nil
}

// Write 写出导出文件
func (f *ExportFile) Write(w io.Writer) error {
	return export.Write(w, f.Table, f.Format)
}

func (s *ExportService) ordersTable() (*export.Table, error) {
	orders, err := s.orderRepo.ListAll()
	if err != nil {
		return nil, err
	}
	table := &export.Table{
		Name:   "Orders",
		Header: []string{"Order Number", "Customer", "Email", "Status", "Total", "Created At"},
		Rows:   make([][]string, 0, len(orders)),
	}
	for _, order := range orders {
		table.AddRow(
			order.OrderNumber,
			order.CustomerName,
			order.CustomerEmail,
			order.Status,
			order.Total.String(),
			order.CreatedAt.Format(exportTimeLayout),
		)
	}
	return table, nil
}

func (s *ExportService) productsTable() (*export.Table, error) {
	products, err := s.productRepo.ListAll()
	if err != nil {
		return nil, err
	}
	table := &export.Table{
		Name:   "Products",
		Header: []string{"SKU", "Name", "Category", "Price", "Stock", "Status"},
		Rows:   make([][]string, 0, len(products)),
	}
	for i := range products {
		product := &products[i]
		table.AddRow(
			product.SKU,
			product.Name,
			product.CategoryName(),
			product.BasePrice.String(),
			strconv.Itoa(product.TotalStock),
			productStatusLabel(product),
		)
	}
	return table, nil
}

func (s *ExportService) customersTable() (*export.Table, error) {
	users, err := s.userRepo.ListAll(repository.UserListFilter{Role: constants.RoleCustomer})
	if err != nil {
		return nil, err
	}
	table := &export.Table{
		Name:   "Customers",
		Header: []string{"Username", "Email", "Name", "Phone", "Created At"},
		Rows:   make([][]string, 0, len(users)),
	}
	for i := range users {
		user := &users[i]
		table.AddRow(
			user.Username,
			user.Email,
			user.FullName(),
			user.PhoneNumber,
			user.CreatedAt.Format(exportTimeLayout),
		)
	}
	return table, nil
}

func productStatusLabel(product *models.Product) string {
	if product.IsActive {
		return "Active"
	}
	return "Inactive"
}
