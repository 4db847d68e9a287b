package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/views"
)

const maxLimit = 1000

// viewQuery holds the optional parameters a view request may carry. Zero
// values mean "use the default".
type viewQuery struct {
	Limit int
	Start time.Time
	End   time.Time
	Width int
}

func parseLimit(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 || limit > maxLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d, got %q", maxLimit, value)
	}
	return limit, nil
}

func parseDate(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(views.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must use the YYYY-MM-DD format, got %q", name, value)
	}
	return t, nil
}

func parseWidth(value string, dashboard config.DashboardConfig) (int, error) {
	if value == "" {
		return dashboard.ChartWidth, nil
	}
	width, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("width must be an integer, got %q", value)
	}
	if err := dashboard.ValidateWidth(width); err != nil {
		return 0, err
	}
	return width, nil
}

func parseViewQuery(r *http.Request, dashboard config.DashboardConfig) (viewQuery, error) {
	q := r.URL.Query()

	var (
		vq  viewQuery
		err error
	)
	if vq.Limit, err = parseLimit(q.Get("limit")); err != nil {
		return vq, err
	}
	if vq.Start, err = parseDate("start", q.Get("start")); err != nil {
		return vq, err
	}
	if vq.End, err = parseDate("end", q.Get("end")); err != nil {
		return vq, err
	}
	if vq.Width, err = parseWidth(q.Get("width"), dashboard); err != nil {
		return vq, err
	}
	return vq, nil
}

func limitOr(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}

// dateRange fills missing bounds from the retention table, matching the
// initial state of the dashboard date filter.
func dateRange(s *services.Session, start, end time.Time) (time.Time, time.Time) {
	if !start.IsZero() && !end.IsZero() {
		return start, end
	}
	minDate, maxDate, ok := s.DateBounds()
	if !ok {
		return start, end
	}
	if start.IsZero() {
		start = minDate
	}
	if end.IsZero() {
		end = maxDate
	}
	return start, end
}

var errNoChart = errors.New("view has no chart")

// chartConfig builds the chart for a view from the session tables.
func chartConfig(s *services.Session, view string, vq viewQuery) (charts.ChartConfig, error) {
	switch view {
	case services.ViewPopularProducts:
		rows, err := s.PopularProducts(limitOr(vq.Limit, views.DefaultPopularLimit))
		return charts.PopularProducts(rows), err
	case services.ViewPurchaseFrequency:
		rows, err := s.PurchaseFrequency(limitOr(vq.Limit, views.DefaultFrequencyLimit))
		return charts.PurchaseFrequency(rows), err
	case services.ViewMonthlyTrend:
		rows, err := s.MonthlyTrend()
		return charts.MonthlyTrend(rows), err
	case services.ViewDailyTrend:
		rows, err := s.DailyTrend()
		return charts.DailyTrend(rows), err
	case services.ViewDailyRange:
		start, end := dateRange(s, vq.Start, vq.End)
		r, err := s.DailyRange(start, end)
		return charts.DailyRange(r), err
	case services.ViewSegments:
		rows, err := s.Segments()
		return charts.Segments(rows), err
	case services.ViewTopCustomers:
		rows, err := s.TopCustomers(limitOr(vq.Limit, views.DefaultCustomerLimit))
		return charts.TopCustomers(rows), err
	case services.ViewProfit:
		rows, err := s.Profit(limitOr(vq.Limit, views.DefaultProfitLimit))
		return charts.Profit(rows), err
	default:
		return charts.ChartConfig{}, errNoChart
	}
}
