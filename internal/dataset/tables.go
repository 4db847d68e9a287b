package dataset

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ecommerce-dashboard/internal/models"
)

const maxWorkers = 4

// Tables holds one loaded copy of every table. A table that failed to load
// has its error in Errs and an empty row set; the others are unaffected.
type Tables struct {
	PopularProducts []models.PopularProduct
	Frequencies     []models.ProductFrequency
	Retention       RetentionTable
	Segments        []models.CustomerSegment
	Cities          []models.CityOrders
	RFM             []models.CustomerRFM
	Profits         []models.ProductProfit

	Errs     map[string]error
	LoadedAt time.Time
}

func (t *Tables) Err(table string) error {
	if t == nil || t.Errs == nil {
		return nil
	}
	return t.Errs[table]
}

// LoadAll reads every table concurrently. Only cancellation of ctx is
// returned as an error; per-table failures are recorded in Tables.Errs.
func (l *Loader) LoadAll(ctx context.Context) (*Tables, error) {
	tables := &Tables{Errs: make(map[string]error)}
	var mu sync.Mutex

	record := func(table string, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		tables.Errs[table] = err
		mu.Unlock()
		l.logger.Error("failed to load table", "table", table, "error", err)
	}

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	g.Go(func() error {
		rows, err := l.LoadPopularProducts(ctx)
		tables.PopularProducts = rows
		record(TablePopularProducts, err)
		return nil
	})
	g.Go(func() error {
		rows, err := l.LoadFrequencies(ctx)
		tables.Frequencies = rows
		record(TableFrequency, err)
		return nil
	})
	g.Go(func() error {
		retention, err := l.LoadRetention(ctx)
		tables.Retention = retention
		record(TableRetention, err)
		return nil
	})
	g.Go(func() error {
		rows, err := l.LoadSegments(ctx)
		tables.Segments = rows
		record(TableSegments, err)
		return nil
	})
	g.Go(func() error {
		rows, err := l.LoadCities(ctx)
		tables.Cities = rows
		record(TableCities, err)
		return nil
	})
	g.Go(func() error {
		rows, err := l.LoadRFM(ctx)
		tables.RFM = rows
		record(TableRFM, err)
		return nil
	})
	g.Go(func() error {
		rows, err := l.LoadProfits(ctx)
		tables.Profits = rows
		record(TableProfit, err)
		return nil
	})

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables.LoadedAt = time.Now()
	l.logger.Info("tables loaded",
		"dir", l.dir,
		"failed", len(tables.Errs),
		"retention_records", len(tables.Retention.Records),
		"retention_dropped", tables.Retention.Dropped,
	)
	return tables, nil
}

// Clone returns a deep copy so a session can never observe another
// session's rows.
func (t *Tables) Clone() *Tables {
	if t == nil {
		return nil
	}
	errs := make(map[string]error, len(t.Errs))
	for k, v := range t.Errs {
		errs[k] = v
	}
	return &Tables{
		PopularProducts: slices.Clone(t.PopularProducts),
		Frequencies:     slices.Clone(t.Frequencies),
		Retention: RetentionTable{
			Records: slices.Clone(t.Retention.Records),
			Dropped: t.Retention.Dropped,
		},
		Segments: slices.Clone(t.Segments),
		Cities:   slices.Clone(t.Cities),
		RFM:      slices.Clone(t.RFM),
		Profits:  slices.Clone(t.Profits),
		Errs:     errs,
		LoadedAt: t.LoadedAt,
	}
}

// RowCounts reports the loaded row count per table.
func (t *Tables) RowCounts() map[string]int {
	return map[string]int{
		TablePopularProducts: len(t.PopularProducts),
		TableFrequency:       len(t.Frequencies),
		TableRetention:       len(t.Retention.Records),
		TableSegments:        len(t.Segments),
		TableCities:          len(t.Cities),
		TableRFM:             len(t.RFM),
		TableProfit:          len(t.Profits),
	}
}
