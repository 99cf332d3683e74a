package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"
)

// 导出格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnsupportedFormat 不支持的导出格式
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Table 导出表格，首行为表头
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// AddRow 追加一行
func (t *Table) AddRow(values ...string) {
	t.Rows = append(t.Rows, values)
}

// NormalizeFormat 规范化格式，空值默认 csv
func NormalizeFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	switch format {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX:
		return format, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType 响应类型
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName 下载文件名
func FileName(name, format string) string {
	return fmt.Sprintf("%s.%s", name, format)
}

// Write 按格式写出表格
func Write(w io.Writer, table *Table, format string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, table)
	case FormatXLSX:
		return WriteXLSX(w, table)
	}
	return ErrUnsupportedFormat
}

// WriteCSV 写出 CSV
func WriteCSV(w io.Writer, table *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// WriteXLSX 写出单工作表的 Excel 文件
func WriteXLSX(w io.Writer, table *Table) error {
	file := xlsx.NewFile()
	name := strings.TrimSpace(table.Name)
	if name == "" {
		name = "Sheet1"
	}
	sheet, err := file.AddSheet(name)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	headerRow := sheet.AddRow()
	for _, h := range table.Header {
		headerRow.AddCell().SetString(h)
	}
	for _, values := range table.Rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	return file.Write(w)
}
