package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sales-rfm/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport(t *testing.T) *models.Report {
	rng, err := models.NewDateRange("2017-01-01", "2017-03-31")
	require.NoError(t, err)
	last := time.Date(2017, 3, 2, 8, 15, 0, 0, time.UTC)
	return &models.Report{
		Range: rng,
		Summary: models.Summary{
			TotalOrders:    3,
			TotalRevenue:   decimal.RequireFromString("250.5"),
			RevenueMillion: 0.0002505,
			TotalCustomers: 2,
		},
		MonthlyOrders: []models.MonthlyOrders{{YearMonth: "2017-01", OrderCount: 1}, {YearMonth: "2017-03", OrderCount: 2}},
		TopCategories: []models.CategorySales{
			{Category: "toys", TotalItemsSold: 5},
			{Category: "garden_tools", TotalItemsSold: 2},
		},
		Segments: []models.CustomerCount{{Label: "Top Customers", CustomerCount: 1}},
		Customers: []models.RFMSegmentRecord{{
			RFMRecord: models.RFMRecord{CustomerID: "c1", LastPurchaseDate: last, Frequency: 2, Monetary: decimal.NewFromInt(200)},
			RRank:     5,
			FRank:     5,
			MRank:     5,
			RFMScore:  15,
			Segment:   "Top Customers",
		}},
	}
}

func TestTimestampedFilename(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, filepath.Join("reports", "rfm_report_20240506_070809.json"),
		TimestampedFilename("reports", "rfm_report", "json", now))
}

func TestJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.json")
	require.NoError(t, JSON(path, sampleReport(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"start": "2017-01-01", "end": "2017-03-31"}, decoded["range"])
	assert.Contains(t, decoded, "monthly_orders")
	assert.Contains(t, decoded, "segments")
}

func TestXLSX_OneSheetPerTable(t *testing.T) {
	buf, err := XLSX(sampleReport(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"Summary", "Monthly Orders", "Monthly Revenue", "Top Categories", "Bottom Categories",
		"Payment Types", "States", "Segments", "Customers",
	}, f.GetSheetList())

	rows, err := f.GetRows("Top Categories")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"product_category_name_english", "total_items_sold"},
		{"toys", "5"},
		{"garden_tools", "2"},
	}, rows)

	rows, err = f.GetRows("Customers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c1", rows[1][0])
	assert.Equal(t, "2017-03-02 08:15:00", rows[1][1])
	assert.Equal(t, "Top Customers", rows[1][9])

	summary, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "3", summary)
}

func TestXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	require.NoError(t, XLSXFile(path, sampleReport(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 9)
}

func TestXLSX_EmptyReport(t *testing.T) {
	buf, err := XLSX(&models.Report{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Monthly Orders")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
