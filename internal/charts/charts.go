// Package charts describes each dashboard view as a Chart.js config and turns
// it into a QuickChart image URL sized by the display width control.
package charts

import (
	"encoding/json"
	"fmt"

	quickchartgo "github.com/henomis/quickchart-go"

	"ecommerce-dashboard/internal/models"
)

const (
	TypeBar           = "bar"
	TypeHorizontalBar = "horizontalBar"
	TypeLine          = "line"

	// Height follows width at the 2:1 ratio used by the dashboard layout.
	heightRatio = 2
)

type ChartConfig struct {
	Type    string         `json:"type"`
	Data    ChartData      `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

type ChartData struct {
	Labels   []string  `json:"labels"`
	DataSets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	Fill            bool      `json:"fill"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
}

func titled(title string) map[string]any {
	return map[string]any{
		"title":  map[string]any{"display": true, "text": title},
		"legend": map[string]any{"display": false},
	}
}

func single(chartType, title, label string, labels []string, data []float64, color string) ChartConfig {
	ds := Dataset{Label: label, Data: data, BackgroundColor: color}
	if chartType == TypeLine {
		ds.BorderColor = color
		ds.BackgroundColor = ""
	}
	return ChartConfig{
		Type:    chartType,
		Data:    ChartData{Labels: labels, DataSets: []Dataset{ds}},
		Options: titled(title),
	}
}

func PopularProducts(rows []models.PopularProduct) ChartConfig {
	labels := make([]string, len(rows))
	data := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Category
		data[i] = float64(r.Orders)
	}
	return single(TypeHorizontalBar, "Most popular product categories", "Orders", labels, data, "#4c78a8")
}

func PurchaseFrequency(rows []models.RankedFrequency) ChartConfig {
	labels := make([]string, len(rows))
	data := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.ProductID
		data[i] = float64(r.Frequency)
	}
	return single(TypeHorizontalBar, fmt.Sprintf("Purchase frequency, top %d products", len(rows)), "Purchases", labels, data, "#f58518")
}

func MonthlyTrend(rows []models.MonthlyCount) ChartConfig {
	labels := make([]string, len(rows))
	data := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.MonthName
		data[i] = float64(r.Orders)
	}
	return single(TypeBar, "Orders per month", "Orders", labels, data, "#54a24b")
}

func DailyTrend(rows []models.DailyCount) ChartConfig {
	labels := make([]string, len(rows))
	data := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = fmt.Sprintf("%d", r.Day)
		data[i] = float64(r.Orders)
	}
	return single(TypeLine, "Orders by day of month", "Orders", labels, data, "#1f77b4")
}

func DailyRange(r models.DailyRange) ChartConfig {
	labels := make([]string, len(r.Series))
	data := make([]float64, len(r.Series))
	for i, d := range r.Series {
		labels[i] = d.Date
		data[i] = float64(d.Orders)
	}
	return single(TypeLine, fmt.Sprintf("Daily orders %s to %s", r.Start, r.End), "Orders", labels, data, "#1f77b4")
}

func Profit(rows []models.ProductProfit) ChartConfig {
	labels := make([]string, len(rows))
	data := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Category
		data[i] = r.TotalProfit.InexactFloat64()
	}
	return single(TypeHorizontalBar, "Product categories by total profit", "Total profit", labels, data, "#b279a2")
}

func Segments(rows []models.CustomerSegment) ChartConfig {
	labels := make([]string, len(rows))
	data := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Segment
		data[i] = float64(r.Customers)
	}
	return single(TypeBar, "Customers per segment", "Unique customers", labels, data, "#e45756")
}

func TopCustomers(rows []models.CustomerRFM) ChartConfig {
	labels := make([]string, len(rows))
	data := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.CustomerID
		data[i] = r.Monetary
	}
	return single(TypeHorizontalBar, "Customers by monetary value", "Monetary", labels, data, "#72b7b2")
}

// URL renders the config as a QuickChart image URL.
func URL(config ChartConfig, width int) (string, error) {
	bytes, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("marshal chart config: %w", err)
	}

	qc := quickchartgo.New()
	qc.Config = string(bytes)
	qc.Width = int64(width)
	qc.Height = int64(width / heightRatio)

	url, err := qc.GetUrl()
	if err != nil {
		return "", fmt.Errorf("quickchart url: %w", err)
	}
	return url, nil
}
