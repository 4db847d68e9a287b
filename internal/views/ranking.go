// Package views builds the read-only projections rendered by the dashboard.
// Every builder is a pure function: inputs are never mutated and each call
// recomputes its result.
package views

import (
	"cmp"
	"slices"

	"ecommerce-dashboard/internal/models"
)

const (
	DefaultPopularLimit   = 25
	DefaultFrequencyLimit = 20
	DefaultProfitLimit    = 20
	DefaultCustomerLimit  = 20
)

// TopN returns rows sorted descending by key, truncated to n. Equal keys keep
// their input order. n <= 0 returns every row.
func TopN[T any, K cmp.Ordered](rows []T, key func(T) K, n int) []T {
	return topNFunc(rows, func(a, b T) int { return cmp.Compare(key(b), key(a)) }, n)
}

func topNFunc[T any](rows []T, compare func(a, b T) int, n int) []T {
	result := slices.Clone(rows)
	if result == nil {
		result = []T{}
	}
	slices.SortStableFunc(result, compare)
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

func Popularity(rows []models.PopularProduct, n int) []models.PopularProduct {
	return TopN(rows, func(r models.PopularProduct) int { return r.Orders }, n)
}

// Frequency ranks products by purchase frequency and numbers them from 1.
func Frequency(rows []models.ProductFrequency, n int) []models.RankedFrequency {
	sorted := TopN(rows, func(r models.ProductFrequency) int { return r.Frequency }, n)
	ranked := make([]models.RankedFrequency, len(sorted))
	for i, r := range sorted {
		ranked[i] = models.RankedFrequency{Rank: i + 1, ProductFrequency: r}
	}
	return ranked
}

func Profitability(rows []models.ProductProfit, n int) []models.ProductProfit {
	return topNFunc(rows, func(a, b models.ProductProfit) int {
		return b.TotalProfit.Cmp(a.TotalProfit)
	}, n)
}

func TopCustomers(rows []models.CustomerRFM, n int) []models.CustomerRFM {
	return TopN(rows, func(r models.CustomerRFM) float64 { return r.Monetary }, n)
}

// Segments passes the segment table through in input order.
func Segments(rows []models.CustomerSegment) []models.CustomerSegment {
	result := slices.Clone(rows)
	if result == nil {
		result = []models.CustomerSegment{}
	}
	return result
}
