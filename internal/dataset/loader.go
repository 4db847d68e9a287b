package dataset

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/models"
)

const (
	TablePopularProducts = "populer_product"
	TableFrequency       = "freq_buyer"
	TableRetention       = "retensi_pembelian"
	TableSegments        = "customer_segment"
	TableCities          = "cust_city"
	TableRFM             = "customer_rfm"
	TableProfit          = "profit_product"
)

// TableNames lists every table of the data directory in display order.
var TableNames = []string{
	TablePopularProducts,
	TableFrequency,
	TableRetention,
	TableSegments,
	TableCities,
	TableRFM,
	TableProfit,
}

const (
	ColCategory          = "product_category_name"
	ColOrderCount        = "Jumlah Pemesanan"
	ColProductID         = "product_id"
	ColPurchaseFrequency = "Frekuensi Pembelian"
	ColOrderID           = "order_id"
	ColPurchaseTimestamp = "order_purchase_timestamp"
	ColSegment           = "customer_segment"
	ColCustomerUniqueID  = "customer_unique_id"
	ColCity              = "geolocation_city"
	ColLongitude         = "geolocation_lng"
	ColLatitude          = "geolocation_lat"
	ColCityOrders        = "order_count"
	ColRecency           = "Recency"
	ColFrequency         = "Frequency"
	ColMonetary          = "Monetary"
	ColProductCount      = "Jumlah Produk"
	ColTotalProfit       = "Total Profit"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type Loader struct {
	dir    string
	logger *slog.Logger
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, logger: logger}
}

func (l *Loader) Dir() string {
	return l.dir
}

func (l *Loader) LoadPopularProducts(ctx context.Context) ([]models.PopularProduct, error) {
	raw, err := l.readTable(ctx, TablePopularProducts)
	if err != nil {
		return nil, err
	}
	catIdx, err := raw.column(ColCategory)
	if err != nil {
		return nil, err
	}
	ordersIdx, err := raw.column(ColOrderCount)
	if err != nil {
		return nil, err
	}

	rows := make([]models.PopularProduct, 0, len(raw.rows))
	for i, record := range raw.rows {
		orders, err := parseCount(raw.name, ColOrderCount, raw.line(i), raw.cell(record, ordersIdx))
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.PopularProduct{
			Category: raw.cell(record, catIdx),
			Orders:   orders,
		})
	}
	return rows, nil
}

// LoadFrequencies ignores the leading index column the upstream export writes.
func (l *Loader) LoadFrequencies(ctx context.Context) ([]models.ProductFrequency, error) {
	raw, err := l.readTable(ctx, TableFrequency)
	if err != nil {
		return nil, err
	}
	idIdx, err := raw.column(ColProductID)
	if err != nil {
		return nil, err
	}
	catIdx, err := raw.column(ColCategory)
	if err != nil {
		return nil, err
	}
	freqIdx, err := raw.column(ColPurchaseFrequency)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ProductFrequency, 0, len(raw.rows))
	for i, record := range raw.rows {
		freq, err := parseCount(raw.name, ColPurchaseFrequency, raw.line(i), raw.cell(record, freqIdx))
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.ProductFrequency{
			ProductID: raw.cell(record, idIdx),
			Category:  raw.cell(record, catIdx),
			Frequency: freq,
		})
	}
	return rows, nil
}

type RetentionTable struct {
	Records []models.RetentionRecord
	// Dropped counts rows whose timestamp did not parse.
	Dropped int
}

// LoadRetention drops rows with an unparseable purchase timestamp instead of
// failing the table.
func (l *Loader) LoadRetention(ctx context.Context) (RetentionTable, error) {
	raw, err := l.readTable(ctx, TableRetention)
	if err != nil {
		return RetentionTable{}, err
	}
	idIdx, err := raw.column(ColOrderID)
	if err != nil {
		return RetentionTable{}, err
	}
	tsIdx, err := raw.column(ColPurchaseTimestamp)
	if err != nil {
		return RetentionTable{}, err
	}

	table := RetentionTable{Records: make([]models.RetentionRecord, 0, len(raw.rows))}
	for _, record := range raw.rows {
		ts, ok := ParseTimestamp(raw.cell(record, tsIdx))
		if !ok {
			table.Dropped++
			continue
		}
		table.Records = append(table.Records, models.RetentionRecord{
			OrderID:     raw.cell(record, idIdx),
			PurchasedAt: ts,
			Day:         ts.Day(),
			Month:       ts.Month(),
		})
	}

	if table.Dropped > 0 {
		l.logger.Warn("dropped retention rows with unparseable timestamp",
			"table", raw.name,
			"dropped", table.Dropped,
			"kept", len(table.Records),
		)
	}
	return table, nil
}

func ParseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func (l *Loader) LoadSegments(ctx context.Context) ([]models.CustomerSegment, error) {
	raw, err := l.readTable(ctx, TableSegments)
	if err != nil {
		return nil, err
	}
	segIdx, err := raw.column(ColSegment)
	if err != nil {
		return nil, err
	}
	countIdx, err := raw.column(ColCustomerUniqueID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.CustomerSegment, 0, len(raw.rows))
	for i, record := range raw.rows {
		count, err := parseCount(raw.name, ColCustomerUniqueID, raw.line(i), raw.cell(record, countIdx))
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.CustomerSegment{
			Segment:   raw.cell(record, segIdx),
			Customers: count,
		})
	}
	return rows, nil
}

func (l *Loader) LoadCities(ctx context.Context) ([]models.CityOrders, error) {
	raw, err := l.readTable(ctx, TableCities)
	if err != nil {
		return nil, err
	}
	cityIdx, err := raw.column(ColCity)
	if err != nil {
		return nil, err
	}
	lngIdx, err := raw.column(ColLongitude)
	if err != nil {
		return nil, err
	}
	latIdx, err := raw.column(ColLatitude)
	if err != nil {
		return nil, err
	}
	ordersIdx, err := raw.column(ColCityOrders)
	if err != nil {
		return nil, err
	}

	rows := make([]models.CityOrders, 0, len(raw.rows))
	for i, record := range raw.rows {
		line := raw.line(i)
		lng, err := parseFloat(raw.name, ColLongitude, line, raw.cell(record, lngIdx))
		if err != nil {
			return nil, err
		}
		lat, err := parseFloat(raw.name, ColLatitude, line, raw.cell(record, latIdx))
		if err != nil {
			return nil, err
		}
		orders, err := parseCount(raw.name, ColCityOrders, line, raw.cell(record, ordersIdx))
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.CityOrders{
			City:      raw.cell(record, cityIdx),
			Longitude: lng,
			Latitude:  lat,
			Orders:    orders,
		})
	}
	return rows, nil
}

func (l *Loader) LoadRFM(ctx context.Context) ([]models.CustomerRFM, error) {
	raw, err := l.readTable(ctx, TableRFM)
	if err != nil {
		return nil, err
	}
	idIdx, err := raw.column(ColCustomerUniqueID)
	if err != nil {
		return nil, err
	}
	recIdx, err := raw.column(ColRecency)
	if err != nil {
		return nil, err
	}
	freqIdx, err := raw.column(ColFrequency)
	if err != nil {
		return nil, err
	}
	monIdx, err := raw.column(ColMonetary)
	if err != nil {
		return nil, err
	}
	segIdx := -1
	if raw.hasColumn(ColSegment) {
		segIdx, _ = raw.column(ColSegment)
	}

	rows := make([]models.CustomerRFM, 0, len(raw.rows))
	for i, record := range raw.rows {
		line := raw.line(i)
		recency, err := parseCount(raw.name, ColRecency, line, raw.cell(record, recIdx))
		if err != nil {
			return nil, err
		}
		frequency, err := parseCount(raw.name, ColFrequency, line, raw.cell(record, freqIdx))
		if err != nil {
			return nil, err
		}
		monetary, err := parseFloat(raw.name, ColMonetary, line, raw.cell(record, monIdx))
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.CustomerRFM{
			CustomerID: raw.cell(record, idIdx),
			Recency:    recency,
			Frequency:  frequency,
			Monetary:   monetary,
			Segment:    raw.cell(record, segIdx),
		})
	}
	return rows, nil
}

func (l *Loader) LoadProfits(ctx context.Context) ([]models.ProductProfit, error) {
	raw, err := l.readTable(ctx, TableProfit)
	if err != nil {
		return nil, err
	}
	catIdx, err := raw.column(ColCategory)
	if err != nil {
		return nil, err
	}
	countIdx, err := raw.column(ColProductCount)
	if err != nil {
		return nil, err
	}
	profitIdx, err := raw.column(ColTotalProfit)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ProductProfit, 0, len(raw.rows))
	for i, record := range raw.rows {
		line := raw.line(i)
		count, err := parseCount(raw.name, ColProductCount, line, raw.cell(record, countIdx))
		if err != nil {
			return nil, err
		}
		value := raw.cell(record, profitIdx)
		profit, err := decimal.NewFromString(value)
		if err != nil {
			return nil, &MalformedRowError{Table: raw.name, Column: ColTotalProfit, Line: line, Value: value, Err: err}
		}
		rows = append(rows, models.ProductProfit{
			Category:    raw.cell(record, catIdx),
			Products:    count,
			TotalProfit: profit,
		})
	}
	return rows, nil
}
