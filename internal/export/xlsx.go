package export

import (
	"fmt"
	"io"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/services"
)

const (
	summarySheet = "summary"
	defaultSheet = "Sheet1"
	headerStyle  = `{"font":{"bold":true},"fill":{"type":"pattern","color":["#E0E6EE"],"pattern":1}}`
)

type sheet struct {
	name   string
	header []interface{}
	rows   [][]interface{}
}

func errorSheet(view, message string) sheet {
	return sheet{
		name:   view,
		header: []interface{}{"error"},
		rows:   [][]interface{}{{message}},
	}
}

// viewSheet lays out one view of the bundle. ok is false when the view is
// absent from the bundle without a recorded error.
func viewSheet(b services.Bundle, view string) (sheet, bool) {
	if message, failed := b.Errors[view]; failed {
		return errorSheet(view, message), true
	}

	s := sheet{name: view}
	switch view {
	case services.ViewPopularProducts:
		s.header = []interface{}{"product_category_name", "order_count"}
		for _, p := range b.PopularProducts {
			s.rows = append(s.rows, []interface{}{p.Category, p.Orders})
		}
	case services.ViewPurchaseFrequency:
		s.header = []interface{}{"rank", "product_id", "product_category_name", "purchase_frequency"}
		for _, p := range b.PurchaseFrequency {
			s.rows = append(s.rows, []interface{}{p.Rank, p.ProductID, p.Category, p.Frequency})
		}
	case services.ViewMonthlyTrend:
		s.header = []interface{}{"month", "month_name", "orders"}
		for _, m := range b.MonthlyTrend {
			s.rows = append(s.rows, []interface{}{m.Month, m.MonthName, m.Orders})
		}
	case services.ViewDailyTrend:
		s.header = []interface{}{"day", "orders"}
		for _, d := range b.DailyTrend {
			s.rows = append(s.rows, []interface{}{d.Day, d.Orders})
		}
	case services.ViewDailyRange:
		if b.DailyRange == nil {
			return s, false
		}
		s.header = []interface{}{"date", "orders"}
		for _, d := range b.DailyRange.Series {
			s.rows = append(s.rows, []interface{}{d.Date, d.Orders})
		}
	case services.ViewSegments:
		s.header = []interface{}{"customer_segment", "customer_count"}
		for _, seg := range b.Segments {
			s.rows = append(s.rows, []interface{}{seg.Segment, seg.Customers})
		}
	case services.ViewTopCustomers:
		s.header = []interface{}{"customer_unique_id", "recency", "frequency", "monetary", "customer_segment"}
		for _, c := range b.TopCustomers {
			s.rows = append(s.rows, []interface{}{c.CustomerID, c.Recency, c.Frequency, c.Monetary, c.Segment})
		}
	case services.ViewProfit:
		s.header = []interface{}{"product_category_name", "product_count", "total_profit"}
		for _, p := range b.Profit {
			s.rows = append(s.rows, []interface{}{p.Category, p.Products, p.TotalProfit})
		}
	case services.ViewCityMap:
		if b.CityMap == nil {
			return s, false
		}
		s.header = []interface{}{"geolocation_city", "geolocation_lat", "geolocation_lng", "order_count", "radius"}
		for _, p := range b.CityMap.Points {
			s.rows = append(s.rows, []interface{}{p.City, p.Latitude, p.Longitude, p.Orders, p.Radius})
		}
	default:
		return s, false
	}
	return s, true
}

func summary(b services.Bundle) sheet {
	s := sheet{
		name:   summarySheet,
		header: []interface{}{"field", "value"},
		rows: [][]interface{}{
			{"generated_at", b.GeneratedAt.Format(time.RFC3339)},
		},
	}
	if b.DailyRange != nil {
		s.rows = append(s.rows,
			[]interface{}{"range_start", b.DailyRange.Start},
			[]interface{}{"range_end", b.DailyRange.End},
			[]interface{}{"range_orders", b.DailyRange.Total},
		)
	}
	for _, view := range services.ViewNames {
		status := "ok"
		if message, failed := b.Errors[view]; failed {
			status = "error: " + message
		}
		s.rows = append(s.rows, []interface{}{view, status})
	}
	return s
}

func writeSheet(f *excelize.File, s sheet, style int) error {
	header := s.header
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return fmt.Errorf("sheet %s header: %w", s.name, err)
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, style); err != nil {
		return fmt.Errorf("sheet %s style: %w", s.name, err)
	}

	for i := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := s.rows[i]
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", s.name, i+2, err)
		}
		if err := setDecimals(f, s.name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// setDecimals rewrites decimal cells as numbers from their exact digits;
// SetSheetRow would store them as text.
func setDecimals(f *excelize.File, sheetName string, rowNum int, row []interface{}) error {
	for col, value := range row {
		d, ok := value.(decimal.Decimal)
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellDefault(sheetName, cell, d.String()); err != nil {
			return fmt.Errorf("sheet %s cell %s: %w", sheetName, cell, err)
		}
	}
	return nil
}

// Workbook builds the XLSX workbook: a summary sheet followed by one sheet
// per view in dashboard order.
func Workbook(b services.Bundle) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName(defaultSheet, summarySheet)

	style, err := f.NewStyle(headerStyle)
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	sheets := []sheet{summary(b)}
	for _, view := range services.ViewNames {
		if s, ok := viewSheet(b, view); ok {
			sheets = append(sheets, s)
		}
	}

	for _, s := range sheets {
		if s.name != summarySheet {
			f.NewSheet(s.name)
		}
		if err := writeSheet(f, s, style); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func WriteXLSX(w io.Writer, b services.Bundle) error {
	f, err := Workbook(b)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}
