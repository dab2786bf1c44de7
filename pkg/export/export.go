// Package export writes a report to disk as JSON or as an XLSX workbook.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sales-rfm/pkg/logger"
	"sales-rfm/pkg/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// TimestampedFilename returns dir/name_YYYYMMDD_HHMMSS.ext.
func TimestampedFilename(dir, name, ext string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, now.Format("20060102_150405"), ext))
}

// JSON writes report as indented JSON, creating the parent folder if needed.
func JSON(path string, report *models.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	logger.Info("report exported", zap.String("path", path), zap.String("format", "json"))
	return nil
}

// XLSXFile writes the workbook of report to path.
func XLSXFile(path string, report *models.Report) error {
	buf, err := XLSX(report)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	logger.Info("report exported", zap.String("path", path), zap.String("format", "xlsx"))
	return nil
}

type sheet struct {
	name    string
	headers []string
	rows    [][]interface{}
}

// XLSX builds a workbook with one sheet per report table.
func XLSX(report *models.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("close workbook", zap.Error(err))
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}

	sheets := sheetsOf(report)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	return f.WriteToBuffer()
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	header := make([]interface{}, len(s.headers))
	for i, h := range s.headers {
		header[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(s.headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(s.name, "A", lastCol, 22); err != nil {
		return err
	}
	return f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func sheetsOf(r *models.Report) []sheet {
	summary := sheet{
		name:    "Summary",
		headers: []string{"metric", "value"},
		rows: [][]interface{}{
			{"start", r.Range.Start.Format(models.DateLayout)},
			{"end", r.Range.End.Format(models.DateLayout)},
			{"total_orders", r.Summary.TotalOrders},
			{"total_revenue", r.Summary.TotalRevenue.InexactFloat64()},
			{"total_revenue_million", r.Summary.RevenueMillion},
			{"total_customers", r.Summary.TotalCustomers},
		},
	}

	orders := sheet{name: "Monthly Orders", headers: []string{"month", "order_count"}}
	for _, m := range r.MonthlyOrders {
		orders.rows = append(orders.rows, []interface{}{m.YearMonth, m.OrderCount})
	}
	revenue := sheet{name: "Monthly Revenue", headers: []string{"month", "payment_value", "total_revenue_million"}}
	for _, m := range r.MonthlyRevenue {
		revenue.rows = append(revenue.rows, []interface{}{m.YearMonth, m.PaymentValue.InexactFloat64(), m.RevenueMillion})
	}

	customers := sheet{
		name: "Customers",
		headers: []string{
			"customer_id", "last_purchase_date", "frequency", "monetary", "recency",
			"r_rank", "f_rank", "m_rank", "rfm_score", "customer_segment",
		},
	}
	for _, c := range r.Customers {
		customers.rows = append(customers.rows, []interface{}{
			c.CustomerID, c.LastPurchaseDate.Format(time.DateTime), c.Frequency,
			c.Monetary.InexactFloat64(), c.Recency,
			c.RRank, c.FRank, c.MRank, c.RFMScore, c.Segment,
		})
	}

	return []sheet{
		summary,
		orders,
		revenue,
		categorySheet("Top Categories", r.TopCategories),
		categorySheet("Bottom Categories", r.BottomCategories),
		countSheet("Payment Types", "payment_type", r.PaymentCustomers),
		countSheet("States", "customer_state", r.StateCustomers),
		countSheet("Segments", "customer_segment", r.Segments),
		customers,
	}
}

func categorySheet(name string, rows []models.CategorySales) sheet {
	s := sheet{name: name, headers: []string{"product_category_name_english", "total_items_sold"}}
	for _, c := range rows {
		s.rows = append(s.rows, []interface{}{c.Category, c.TotalItemsSold})
	}
	return s
}

func countSheet(name, label string, rows []models.CustomerCount) sheet {
	s := sheet{name: name, headers: []string{label, "customer_count"}}
	for _, c := range rows {
		s.rows = append(s.rows, []interface{}{c.Label, c.CustomerCount})
	}
	return s
}
