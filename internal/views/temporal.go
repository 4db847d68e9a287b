package views

import (
	"slices"
	"time"

	"github.com/jinzhu/now"

	"ecommerce-dashboard/internal/models"
)

const DateLayout = "2006-01-02"

// MonthlyTrend counts orders per month name across all years. Rows follow
// calendar order, not the alphabetical order of the names.
func MonthlyTrend(records []models.RetentionRecord) []models.MonthlyCount {
	var counts [13]int
	for _, r := range records {
		counts[r.Month]++
	}

	result := make([]models.MonthlyCount, 0, 12)
	for m := time.January; m <= time.December; m++ {
		if counts[m] == 0 {
			continue
		}
		result = append(result, models.MonthlyCount{
			Month:     int(m),
			MonthName: m.String(),
			Orders:    counts[m],
		})
	}
	return result
}

// DailyTrend counts orders per day-of-month, all months combined.
func DailyTrend(records []models.RetentionRecord) []models.DailyCount {
	var counts [32]int
	for _, r := range records {
		counts[r.Day]++
	}

	result := make([]models.DailyCount, 0, 31)
	for day := 1; day <= 31; day++ {
		if counts[day] == 0 {
			continue
		}
		result = append(result, models.DailyCount{Day: day, Orders: counts[day]})
	}
	return result
}

// calendarDate is the date t was stamped with, read on t's own clock, as
// midnight UTC. Day and Month of a record come from the same clock.
func calendarDate(t time.Time) time.Time {
	y, m, d := now.With(t).BeginningOfDay().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterRange returns the records whose purchase date lies in [start, end],
// both inclusive. start after end yields an empty slice.
func FilterRange(records []models.RetentionRecord, start, end time.Time) []models.RetentionRecord {
	from, to := calendarDate(start), calendarDate(end)

	result := []models.RetentionRecord{}
	if from.After(to) {
		return result
	}
	for _, r := range records {
		day := calendarDate(r.PurchasedAt)
		if day.Before(from) || day.After(to) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// DailyRange counts filtered orders per calendar date, so the same
// day-of-month in different months or years stays distinct.
func DailyRange(records []models.RetentionRecord, start, end time.Time) models.DailyRange {
	filtered := FilterRange(records, start, end)

	counts := make(map[string]int)
	for _, r := range filtered {
		counts[calendarDate(r.PurchasedAt).Format(DateLayout)]++
	}

	series := make([]models.DateCount, 0, len(counts))
	for date, orders := range counts {
		series = append(series, models.DateCount{Date: date, Orders: orders})
	}
	slices.SortFunc(series, func(a, b models.DateCount) int {
		if a.Date < b.Date {
			return -1
		}
		if a.Date > b.Date {
			return 1
		}
		return 0
	})

	return models.DailyRange{
		Start:  start.Format(DateLayout),
		End:    end.Format(DateLayout),
		Total:  len(filtered),
		Series: series,
	}
}

// DateBounds returns the earliest and latest purchase dates, the
// default range of the date filter. ok is false when there are no records.
func DateBounds(records []models.RetentionRecord) (start, end time.Time, ok bool) {
	if len(records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start = calendarDate(records[0].PurchasedAt)
	end = start
	for _, r := range records[1:] {
		day := calendarDate(r.PurchasedAt)
		if day.Before(start) {
			start = day
		}
		if day.After(end) {
			end = day
		}
	}
	return start, end, true
}
