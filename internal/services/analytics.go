package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/observability"
)

var ErrNotLoaded = errors.New("tables not loaded")

// Analytics owns the base load of the data directory and hands every session
// its own copy of the tables. The base load happens once; views are always
// recomputed from the session copy.
type Analytics struct {
	loader *dataset.Loader
	logger *slog.Logger

	mu   sync.RWMutex
	base *dataset.Tables

	sessionMu sync.Mutex
	sessions  *lru.Cache
}

func NewAnalytics(loader *dataset.Loader, sessionCacheSize int, logger *slog.Logger) (*Analytics, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sessions, err := lru.New(sessionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	return &Analytics{
		loader:   loader,
		logger:   logger,
		sessions: sessions,
	}, nil
}

// Load reads the data directory on first call; later calls are no-ops. A
// canceled load is not memoized.
func (a *Analytics) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.base != nil {
		return nil
	}
	if a.loader == nil {
		return ErrNotLoaded
	}

	return observability.Trace(ctx, a.logger, "load tables "+a.loader.Dir(), func(ctx context.Context) error {
		tables, err := a.loader.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load tables: %w", err)
		}
		a.base = tables
		return nil
	})
}

// SetTables replaces the base tables and forgets every session copy.
func (a *Analytics) SetTables(tables *dataset.Tables) {
	a.mu.Lock()
	a.base = tables
	a.mu.Unlock()

	a.sessions.Purge()
}

func (a *Analytics) baseTables() (*dataset.Tables, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.base == nil {
		return nil, ErrNotLoaded
	}
	return a.base, nil
}

// Session returns the session's private tables, cloning them from the base
// load on first use. An empty id gets a throwaway copy.
func (a *Analytics) Session(id string) (*Session, error) {
	base, err := a.baseTables()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return newSession("", base.Clone()), nil
	}

	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	if cached, ok := a.sessions.Get(id); ok {
		return cached.(*Session), nil
	}

	session := newSession(id, base.Clone())
	if evicted := a.sessions.Add(id, session); evicted {
		a.logger.Debug("session evicted from cache", "sessions", a.sessions.Len())
	}
	a.logger.Debug("session created", "session_id", id)
	return session, nil
}

func (a *Analytics) SessionCount() int {
	return a.sessions.Len()
}

func (a *Analytics) Stats() map[string]any {
	base, err := a.baseTables()
	if err != nil {
		return map[string]any{
			"loaded":   false,
			"sessions": a.sessions.Len(),
		}
	}

	tableErrors := make(map[string]string, len(base.Errs))
	for table, err := range base.Errs {
		tableErrors[table] = err.Error()
	}

	return map[string]any{
		"loaded":            true,
		"loaded_at":         base.LoadedAt.Format(time.RFC3339),
		"tables":            base.RowCounts(),
		"table_errors":      tableErrors,
		"retention_dropped": base.Retention.Dropped,
		"sessions":          a.sessions.Len(),
	}
}
