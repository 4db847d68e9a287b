package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PopularProduct struct {
	Category string `json:"product_category_name"`
	Orders   int    `json:"order_count"`
}

type ProductFrequency struct {
	ProductID string `json:"product_id"`
	Category  string `json:"product_category_name"`
	Frequency int    `json:"purchase_frequency"`
}

// RetentionRecord is one order from the retention table. Day and Month are
// derived from PurchasedAt when the row is loaded.
type RetentionRecord struct {
	OrderID     string     `json:"order_id"`
	PurchasedAt time.Time  `json:"order_purchase_timestamp"`
	Day         int        `json:"order_purchase_day"`
	Month       time.Month `json:"-"`
}

func (r RetentionRecord) MonthName() string {
	return r.Month.String()
}

type CustomerSegment struct {
	Segment   string `json:"customer_segment"`
	Customers int    `json:"customer_count"`
}

type CustomerRFM struct {
	CustomerID string  `json:"customer_unique_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
	Segment    string  `json:"customer_segment,omitempty"`
}

type CityOrders struct {
	City      string  `json:"geolocation_city"`
	Longitude float64 `json:"geolocation_lng"`
	Latitude  float64 `json:"geolocation_lat"`
	Orders    int     `json:"order_count"`
}

// ProductProfit totals may be negative for loss-making categories.
type ProductProfit struct {
	Category    string          `json:"product_category_name"`
	Products    int             `json:"product_count"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}
