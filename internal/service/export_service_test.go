package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/verso-store/internal/constants"
)

func TestExportBuildsFixedHeaders(t *testing.T) {
	f := setupServiceTest(t)
	orders := newTestOrderService(f)
	svc := NewExportService(f.orders, f.products, f.users)

	order, created := checkoutSingleItem(t, f, orders, "nora", 5)
	f.createUser(t, "clerk", constants.RoleEmployee)
	product := f.reloadProduct(t, created.ID)
	product.IsActive = false
	if err := f.products.Update(product); err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	cases := []struct {
		kind   string
		header []string
		rows   int
		check  func(row []string) bool
	}{
		{
			kind:   ExportKindOrders,
			header: []string{"Order Number", "Customer", "Email", "Status", "Total", "Created At"},
			rows:   1,
			check: func(row []string) bool {
				return row[0] == order.OrderNumber && row[1] == "Test nora" && row[2] == "nora@example.com" && row[3] == constants.OrderStatusPending && row[4] == "88.00"
			},
		},
		{
			kind:   ExportKindProducts,
			header: []string{"SKU", "Name", "Category", "Price", "Stock", "Status"},
			rows:   1,
			check: func(row []string) bool {
				return row[0] == product.SKU && row[2] == "" && row[3] == "40.00" && row[4] == "3" && row[5] == "Inactive"
			},
		},
		{
			kind:   ExportKindCustomers,
			header: []string{"Username", "Email", "Name", "Phone", "Created At"},
			rows:   1,
			check: func(row []string) bool {
				return row[0] == "nora" && row[2] == "Test nora" && row[3] == "+15550001"
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			file, err := svc.Build(tc.kind, "csv")
			if err != nil {
				t.Fatalf("build export failed: %v", err)
			}
			if file.FileName != tc.kind+".csv" {
				t.Fatalf("file name want %s.csv got %s", tc.kind, file.FileName)
			}
			var buf bytes.Buffer
			if err := file.Write(&buf); err != nil {
				t.Fatalf("write export failed: %v", err)
			}
			records, err := csv.NewReader(&buf).ReadAll()
			if err != nil {
				t.Fatalf("read csv failed: %v", err)
			}
			if len(records) != tc.rows+1 {
				t.Fatalf("records want %d got %d", tc.rows+1, len(records))
			}
			for i, h := range tc.header {
				if records[0][i] != h {
					t.Fatalf("header[%d] want %s got %s", i, h, records[0][i])
				}
			}
			if !tc.check(records[1]) {
				t.Fatalf("unexpected row: %v", records[1])
			}
		})
	}

	if _, err := svc.Build("invoices", "csv"); !errors.Is(err, ErrExportKindInvalid) {
		t.Fatalf("want ErrExportKindInvalid got %v", err)
	}
	if _, err := svc.Build(ExportKindOrders, "pdf"); !errors.Is(err, ErrExportFormatInvalid) {
		t.Fatalf("want ErrExportFormatInvalid got %v", err)
	}
}
