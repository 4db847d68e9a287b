package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/services"
)

var generatedAt = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func testBundle() services.Bundle {
	return services.Bundle{
		GeneratedAt: generatedAt,
		PopularProducts: []models.PopularProduct{
			{Category: "cama_mesa_banho", Orders: 11115},
			{Category: "beleza_saude", Orders: 9670},
		},
		PurchaseFrequency: []models.RankedFrequency{
			{Rank: 1, ProductFrequency: models.ProductFrequency{ProductID: "p1", Category: "moveis_decoracao", Frequency: 527}},
		},
		MonthlyTrend: []models.MonthlyCount{{Month: 1, MonthName: "January", Orders: 3}},
		DailyTrend:   []models.DailyCount{{Day: 5, Orders: 3}},
		DailyRange: &models.DailyRange{
			Start:  "2018-01-01",
			End:    "2018-01-31",
			Total:  3,
			Series: []models.DateCount{{Date: "2018-01-05", Orders: 3}},
		},
		TopCustomers: []models.CustomerRFM{{CustomerID: "c1", Recency: 10, Frequency: 2, Monetary: 150.5}},
		Profit: []models.ProductProfit{
			{Category: "beleza_saude", Products: 2444, TotalProfit: decimal.RequireFromString("1258681.34")},
		},
		CityMap: &models.CityMap{
			Points: []models.CityPoint{{CityOrders: models.CityOrders{City: "sao paulo", Orders: 50}, Radius: 25000}},
		},
		Errors: map[string]string{
			services.ViewSegments: "table customer_segment: missing column \"customer_segment\"",
		},
	}
}

func TestTimestampedFilename(t *testing.T) {
	got := TimestampedFilename("reports", "dashboard", FormatXLSX, generatedAt)
	assert.Equal(t, filepath.Join("reports", "dashboard_20240309_140507.xlsx"), got)
}

func TestExportJSON(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, ExportJSON(filename, testBundle()))

	raw, err := os.ReadFile(filename)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "popular_products")
	assert.Contains(t, decoded, "daily_range")
	assert.NotContains(t, decoded, "segments")

	errs, ok := decoded["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, services.ViewSegments)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testBundle()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	sheets := f.GetSheetList()
	require.NotEmpty(t, sheets)
	assert.Equal(t, summarySheet, sheets[0])
	for _, view := range services.ViewNames {
		assert.Contains(t, sheets, view)
	}

	rows, err := f.GetRows(services.ViewPopularProducts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"product_category_name", "order_count"},
		{"cama_mesa_banho", "11115"},
		{"beleza_saude", "9670"},
	}, rows)

	rows, err = f.GetRows(services.ViewProfit)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1258681.34", rows[1][2])

	rows, err = f.GetRows(services.ViewSegments)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "error", rows[0][0])
	assert.Contains(t, rows[1][0], "missing column")
}

func TestWorkbook_ProfitKeepsExactDigits(t *testing.T) {
	b := testBundle()
	b.Profit = []models.ProductProfit{
		{Category: "relogios_presentes", Products: 1, TotalProfit: decimal.RequireFromString("12345678901234.56789")},
	}

	f, err := Workbook(b)
	require.NoError(t, err)

	cell, err := f.GetCellValue(services.ViewProfit, "C2")
	require.NoError(t, err)
	assert.Equal(t, "12345678901234.56789", cell)
}

func TestWorkbook_Summary(t *testing.T) {
	f, err := Workbook(testBundle())
	require.NoError(t, err)

	rows, err := f.GetRows(summarySheet)
	require.NoError(t, err)

	values := make(map[string]string)
	for _, row := range rows[1:] {
		require.Len(t, row, 2)
		values[row[0]] = row[1]
	}
	assert.Equal(t, "2024-03-09T14:05:07Z", values["generated_at"])
	assert.Equal(t, "3", values["range_orders"])
	assert.Equal(t, "ok", values[services.ViewPopularProducts])
	assert.Contains(t, values[services.ViewSegments], "error: ")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()

	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			filename, err := Export(dir, format, testBundle())
			require.NoError(t, err)
			assert.Equal(t, TimestampedFilename(dir, "dashboard", format, generatedAt), filename)

			info, err := os.Stat(filename)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}

	_, err := Export(dir, "csv", testBundle())
	assert.Error(t, err)
}
