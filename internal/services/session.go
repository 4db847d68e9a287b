package services

import (
	"time"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/views"
)

const (
	ViewPopularProducts   = "popular-products"
	ViewPurchaseFrequency = "purchase-frequency"
	ViewMonthlyTrend      = "monthly-trend"
	ViewDailyTrend        = "daily-trend"
	ViewDailyRange        = "daily-range"
	ViewSegments          = "segments"
	ViewTopCustomers      = "top-customers"
	ViewProfit            = "profit"
	ViewCityMap           = "city-map"
)

// ViewNames lists the views in dashboard order.
var ViewNames = []string{
	ViewPopularProducts,
	ViewPurchaseFrequency,
	ViewMonthlyTrend,
	ViewDailyTrend,
	ViewDailyRange,
	ViewProfit,
	ViewSegments,
	ViewTopCustomers,
	ViewCityMap,
}

// ViewTable maps a view to the table it is built from.
var ViewTable = map[string]string{
	ViewPopularProducts:   dataset.TablePopularProducts,
	ViewPurchaseFrequency: dataset.TableFrequency,
	ViewMonthlyTrend:      dataset.TableRetention,
	ViewDailyTrend:        dataset.TableRetention,
	ViewDailyRange:        dataset.TableRetention,
	ViewSegments:          dataset.TableSegments,
	ViewTopCustomers:      dataset.TableRFM,
	ViewProfit:            dataset.TableProfit,
	ViewCityMap:           dataset.TableCities,
}

// Session is one viewer's copy of the tables. Its accessors never mutate the
// tables, so concurrent requests from the same browser are safe.
type Session struct {
	ID     string
	tables *dataset.Tables
}

func newSession(id string, tables *dataset.Tables) *Session {
	return &Session{ID: id, tables: tables}
}

// Err reports the load failure behind a view, if any.
func (s *Session) Err(view string) error {
	return s.tables.Err(ViewTable[view])
}

func (s *Session) PopularProducts(limit int) ([]models.PopularProduct, error) {
	if err := s.Err(ViewPopularProducts); err != nil {
		return nil, err
	}
	return views.Popularity(s.tables.PopularProducts, limit), nil
}

func (s *Session) PurchaseFrequency(limit int) ([]models.RankedFrequency, error) {
	if err := s.Err(ViewPurchaseFrequency); err != nil {
		return nil, err
	}
	return views.Frequency(s.tables.Frequencies, limit), nil
}

func (s *Session) MonthlyTrend() ([]models.MonthlyCount, error) {
	if err := s.Err(ViewMonthlyTrend); err != nil {
		return nil, err
	}
	return views.MonthlyTrend(s.tables.Retention.Records), nil
}

func (s *Session) DailyTrend() ([]models.DailyCount, error) {
	if err := s.Err(ViewDailyTrend); err != nil {
		return nil, err
	}
	return views.DailyTrend(s.tables.Retention.Records), nil
}

// DateBounds is the default range of the date filter.
func (s *Session) DateBounds() (start, end time.Time, ok bool) {
	return views.DateBounds(s.tables.Retention.Records)
}

func (s *Session) DailyRange(start, end time.Time) (models.DailyRange, error) {
	if err := s.Err(ViewDailyRange); err != nil {
		return models.DailyRange{}, err
	}
	return views.DailyRange(s.tables.Retention.Records, start, end), nil
}

func (s *Session) Segments() ([]models.CustomerSegment, error) {
	if err := s.Err(ViewSegments); err != nil {
		return nil, err
	}
	return views.Segments(s.tables.Segments), nil
}

func (s *Session) TopCustomers(limit int) ([]models.CustomerRFM, error) {
	if err := s.Err(ViewTopCustomers); err != nil {
		return nil, err
	}
	return views.TopCustomers(s.tables.RFM, limit), nil
}

func (s *Session) Profit(limit int) ([]models.ProductProfit, error) {
	if err := s.Err(ViewProfit); err != nil {
		return nil, err
	}
	return views.Profitability(s.tables.Profits, limit), nil
}

func (s *Session) CityMap() (models.CityMap, error) {
	if err := s.Err(ViewCityMap); err != nil {
		return models.CityMap{}, err
	}
	return views.CityMap(s.tables.Cities), nil
}

// Bundle holds every view at its default size; views that failed carry their
// error message in Errors instead.
type Bundle struct {
	GeneratedAt       time.Time                `json:"generated_at"`
	PopularProducts   []models.PopularProduct  `json:"popular_products,omitempty"`
	PurchaseFrequency []models.RankedFrequency `json:"purchase_frequency,omitempty"`
	MonthlyTrend      []models.MonthlyCount    `json:"monthly_trend,omitempty"`
	DailyTrend        []models.DailyCount      `json:"daily_trend,omitempty"`
	DailyRange        *models.DailyRange       `json:"daily_range,omitempty"`
	Segments          []models.CustomerSegment `json:"segments,omitempty"`
	TopCustomers      []models.CustomerRFM     `json:"top_customers,omitempty"`
	Profit            []models.ProductProfit   `json:"profit,omitempty"`
	CityMap           *models.CityMap          `json:"city_map,omitempty"`
	Errors            map[string]string        `json:"errors,omitempty"`
}

// Bundle builds every view. A zero start or end falls back to the bounds of
// the retention table.
func (s *Session) Bundle(start, end time.Time) Bundle {
	b := Bundle{GeneratedAt: time.Now(), Errors: make(map[string]string)}
	record := func(view string, err error) bool {
		if err != nil {
			b.Errors[view] = err.Error()
			return false
		}
		return true
	}

	if rows, err := s.PopularProducts(views.DefaultPopularLimit); record(ViewPopularProducts, err) {
		b.PopularProducts = rows
	}
	if rows, err := s.PurchaseFrequency(views.DefaultFrequencyLimit); record(ViewPurchaseFrequency, err) {
		b.PurchaseFrequency = rows
	}
	if rows, err := s.MonthlyTrend(); record(ViewMonthlyTrend, err) {
		b.MonthlyTrend = rows
	}
	if rows, err := s.DailyTrend(); record(ViewDailyTrend, err) {
		b.DailyTrend = rows
	}

	if start.IsZero() || end.IsZero() {
		if minDate, maxDate, ok := s.DateBounds(); ok {
			if start.IsZero() {
				start = minDate
			}
			if end.IsZero() {
				end = maxDate
			}
		}
	}
	if r, err := s.DailyRange(start, end); record(ViewDailyRange, err) {
		b.DailyRange = &r
	}

	if rows, err := s.Segments(); record(ViewSegments, err) {
		b.Segments = rows
	}
	if rows, err := s.TopCustomers(views.DefaultCustomerLimit); record(ViewTopCustomers, err) {
		b.TopCustomers = rows
	}
	if rows, err := s.Profit(views.DefaultProfitLimit); record(ViewProfit, err) {
		b.Profit = rows
	}
	if m, err := s.CityMap(); record(ViewCityMap, err) {
		b.CityMap = &m
	}
	return b
}
