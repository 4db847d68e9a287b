package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/services"
)

var testDashboard = config.DashboardConfig{
	ChartWidth:    800,
	MinChartWidth: 500,
	MaxChartWidth: 1200,
	WidthStep:     50,
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func retention(id string, ts time.Time) models.RetentionRecord {
	return models.RetentionRecord{OrderID: id, PurchasedAt: ts, Day: ts.Day(), Month: ts.Month()}
}

func createTestTables() *dataset.Tables {
	return &dataset.Tables{
		PopularProducts: []models.PopularProduct{
			{Category: "beleza_saude", Orders: 9670},
			{Category: "cama_mesa_banho", Orders: 11115},
			{Category: "esporte_lazer", Orders: 8641},
		},
		Frequencies: []models.ProductFrequency{
			{ProductID: "aca2eb7d00ea1a7b8ebd4e68314663af", Category: "moveis_decoracao", Frequency: 527},
			{ProductID: "99a4788cb24856965c36a24e339b6058", Category: "cama_mesa_banho", Frequency: 488},
		},
		Retention: dataset.RetentionTable{
			Records: []models.RetentionRecord{
				retention("o1", time.Date(2018, 1, 5, 10, 0, 0, 0, time.UTC)),
				retention("o2", time.Date(2018, 1, 5, 18, 30, 0, 0, time.UTC)),
				retention("o3", time.Date(2018, 2, 14, 9, 0, 0, 0, time.UTC)),
				retention("o4", time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)),
			},
		},
		Segments: []models.CustomerSegment{
			{Segment: "Top customers", Customers: 934},
			{Segment: "Low value customers", Customers: 40512},
		},
		Cities: []models.CityOrders{
			{City: "sao paulo", Latitude: -23.55, Longitude: -46.63, Orders: 15540},
			{City: "small town", Latitude: -10, Longitude: -40, Orders: 4},
		},
		RFM: []models.CustomerRFM{
			{CustomerID: "c1", Recency: 10, Frequency: 2, Monetary: 150.5, Segment: "High value customers"},
			{CustomerID: "c2", Recency: 300, Frequency: 1, Monetary: 20, Segment: "Lost customers"},
		},
		Profits: []models.ProductProfit{
			{Category: "beleza_saude", Products: 2444, TotalProfit: decimal.RequireFromString("1258681.34")},
			{Category: "relogios_presentes", Products: 1329, TotalProfit: decimal.RequireFromString("1205005.68")},
		},
		Errs: map[string]error{},
	}
}

func createTestAnalytics() *services.Analytics {
	return createAnalyticsWith(createTestTables())
}

func createAnalyticsWith(tables *dataset.Tables) *services.Analytics {
	a, err := services.NewAnalytics(nil, 8, testLogger())
	if err != nil {
		panic(err)
	}
	a.SetTables(tables)
	return a
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func errorCode(t *testing.T, response map[string]any) string {
	t.Helper()
	errObj, ok := response["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response, got %v", response)
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := slog.Default()
	handlers := NewAPIHandlers(analytics, testDashboard, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}

	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_Views(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	tests := []struct {
		name    string
		path    string
		handler http.HandlerFunc
	}{
		{"popular products", "/api/popular-products", handlers.HandlePopularProducts},
		{"purchase frequency", "/api/purchase-frequency", handlers.HandlePurchaseFrequency},
		{"monthly trend", "/api/monthly-trend", handlers.HandleMonthlyTrend},
		{"daily trend", "/api/daily-trend", handlers.HandleDailyTrend},
		{"segments", "/api/segments", handlers.HandleSegments},
		{"top customers", "/api/top-customers", handlers.HandleTopCustomers},
		{"profit", "/api/profit", handlers.HandleProfit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
			}

			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content-type 'application/json', got %q", ct)
			}

			if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
				t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
			}

			response := decodeBody(t, w)
			if success, ok := response["success"].(bool); !ok || !success {
				t.Error("expected success=true in response")
			}

			data, ok := response["data"].([]any)
			if !ok || len(data) == 0 {
				t.Errorf("expected non-empty data array, got %v", response["data"])
			}
		})
	}
}

func TestAPIHandlers_HandlePopularProducts_Limit(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/popular-products?limit=2", nil)
	w := httptest.NewRecorder()
	handlers.HandlePopularProducts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := decodeBody(t, w)["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(data))
	}

	first := data[0].(map[string]any)
	if first["product_category_name"] != "cama_mesa_banho" {
		t.Errorf("expected cama_mesa_banho first, got %v", first["product_category_name"])
	}
}

func TestAPIHandlers_InvalidParameters(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	tests := []struct {
		name    string
		path    string
		handler http.HandlerFunc
	}{
		{"non numeric limit", "/api/popular-products?limit=abc", handlers.HandlePopularProducts},
		{"zero limit", "/api/profit?limit=0", handlers.HandleProfit},
		{"negative limit", "/api/top-customers?limit=-3", handlers.HandleTopCustomers},
		{"bad start date", "/api/daily-range?start=05/01/2018", handlers.HandleDailyRange},
		{"bad end date", "/api/daily-range?start=2018-01-01&end=2018-13-01", handlers.HandleDailyRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			if code := errorCode(t, decodeBody(t, w)); code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %q", code)
			}
		})
	}
}

func TestAPIHandlers_HandleDailyRange(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	tests := []struct {
		name      string
		query     string
		wantTotal float64
		wantStart string
		wantEnd   string
	}{
		{"defaults to full range", "", 4, "2018-01-05", "2018-03-01"},
		{"single day includes whole day", "?start=2018-01-05&end=2018-01-05", 2, "2018-01-05", "2018-01-05"},
		{"start only", "?start=2018-02-01", 2, "2018-02-01", "2018-03-01"},
		{"inverted range is empty", "?start=2018-03-01&end=2018-01-01", 0, "2018-03-01", "2018-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/daily-range"+tt.query, nil)
			w := httptest.NewRecorder()

			handlers.HandleDailyRange(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
			}

			data := decodeBody(t, w)["data"].(map[string]any)
			if data["total"] != tt.wantTotal {
				t.Errorf("expected total %v, got %v", tt.wantTotal, data["total"])
			}
			if data["start"] != tt.wantStart || data["end"] != tt.wantEnd {
				t.Errorf("expected range %s..%s, got %v..%v", tt.wantStart, tt.wantEnd, data["start"], data["end"])
			}
		})
	}
}

func TestAPIHandlers_HandleCityMap(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/city-map", nil)
	w := httptest.NewRecorder()
	handlers.HandleCityMap(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := decodeBody(t, w)["data"].(map[string]any)
	points := data["points"].([]any)
	if len(points) != 1 {
		t.Fatalf("expected 1 city above the threshold, got %d", len(points))
	}

	viewState := data["view_state"].(map[string]any)
	if viewState["zoom"] != float64(4) {
		t.Errorf("expected zoom 4, got %v", viewState["zoom"])
	}
}

func TestAPIHandlers_TableErrors(t *testing.T) {
	tables := createTestTables()
	tables.Profits = nil
	tables.Errs[dataset.TableProfit] = &dataset.MissingFileError{Table: dataset.TableProfit, Path: "data/profit_product.csv", Err: os.ErrNotExist}
	tables.Segments = nil
	tables.Errs[dataset.TableSegments] = &dataset.MalformedRowError{Table: dataset.TableSegments, Column: dataset.ColSegment}

	handlers := NewAPIHandlers(createAnalyticsWith(tables), testDashboard, testLogger())

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantCode   string
	}{
		{"missing table", handlers.HandleProfit, http.StatusServiceUnavailable, "MISSING_TABLE"},
		{"malformed table", handlers.HandleSegments, http.StatusUnprocessableEntity, "MALFORMED_TABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if code := errorCode(t, decodeBody(t, w)); code != tt.wantCode {
				t.Errorf("expected %s, got %q", tt.wantCode, code)
			}
		})
	}

	// Other views keep working.
	req := httptest.NewRequest(http.MethodGet, "/api/popular-products", nil)
	w := httptest.NewRecorder()
	handlers.HandlePopularProducts(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected healthy view to return %d, got %d", http.StatusOK, w.Code)
	}
}

func TestAPIHandlers_NotLoaded(t *testing.T) {
	analytics, err := services.NewAnalytics(nil, 8, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	handlers := NewAPIHandlers(analytics, testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/segments", nil)
	w := httptest.NewRecorder()
	handlers.HandleSegments(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
	if code := errorCode(t, decodeBody(t, w)); code != "SERVICE_UNAVAILABLE" {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %q", code)
	}
}

func TestAPIHandlers_HandleChart(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	tests := []struct {
		name       string
		view       string
		query      string
		wantStatus int
	}{
		{"daily trend at default width", "daily-trend", "", http.StatusOK},
		{"profit at custom width", "profit", "?width=1000", http.StatusOK},
		{"daily range with dates", "daily-range", "?start=2018-01-01&end=2018-01-31&width=500", http.StatusOK},
		{"width below range", "popular-products", "?width=400", http.StatusBadRequest},
		{"width off step", "popular-products", "?width=825", http.StatusBadRequest},
		{"city map has no chart", "city-map", "", http.StatusNotFound},
		{"unknown view", "revenue", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/charts/"+tt.view+tt.query, nil)
			req.SetPathValue("view", tt.view)
			w := httptest.NewRecorder()

			handlers.HandleChart(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			data := decodeBody(t, w)["data"].(map[string]any)
			if data["view"] != tt.view {
				t.Errorf("expected view %q, got %v", tt.view, data["view"])
			}
			url, _ := data["url"].(string)
			if !strings.Contains(url, "quickchart.io") {
				t.Errorf("expected quickchart url, got %q", url)
			}
		})
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data, ok := decodeBody(t, w)["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}

	if status, ok := data["status"].(string); !ok || status != "healthy" {
		t.Errorf("expected status 'healthy', got %v", data["status"])
	}

	if _, ok := data["timestamp"]; !ok {
		t.Error("expected timestamp field in response")
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testDashboard, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data, ok := decodeBody(t, w)["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}

	if loaded, ok := data["loaded"].(bool); !ok || !loaded {
		t.Errorf("expected loaded=true, got %v", data["loaded"])
	}

	tables, ok := data["tables"].(map[string]any)
	if !ok {
		t.Fatal("expected tables object in stats")
	}
	if tables[dataset.TableRetention] != float64(4) {
		t.Errorf("expected 4 retention rows, got %v", tables[dataset.TableRetention])
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"10", 10, false},
		{"1000", 1000, false},
		{"1001", 0, true},
		{"0", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		got, err := parseLimit(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLimit(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}
