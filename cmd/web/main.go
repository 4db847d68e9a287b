package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/handlers"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/server"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/ui/templates"
	"ecommerce-dashboard/internal/views"
)

const (
	renderTimeout  = 10 * time.Second
	dashboardTitle = "E-Commerce Public Dashboard"
)

// dashboardProps sets the date filter to the bounds of the caller's retention
// table.
func dashboardProps(analytics *services.Analytics, dashboard config.DashboardConfig, sessionID string) templates.DashboardProps {
	props := templates.DashboardProps{
		Title:      dashboardTitle,
		ChartWidth: dashboard.ChartWidth,
		MinWidth:   dashboard.MinChartWidth,
		MaxWidth:   dashboard.MaxChartWidth,
		WidthStep:  dashboard.WidthStep,
	}
	for _, view := range services.ViewNames {
		props.Panels = append(props.Panels, templates.Panel{View: view, Title: handlers.ViewTitle(view)})
	}

	session, err := analytics.Session(sessionID)
	if err != nil {
		return props
	}
	if start, end, ok := session.DateBounds(); ok {
		props.MinDate = start.Format(views.DateLayout)
		props.MaxDate = end.Format(views.DateLayout)
		props.StartDate = props.MinDate
		props.EndDate = props.MaxDate
	}
	return props
}

func dashboardHandler(analytics *services.Analytics, dashboard config.DashboardConfig, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		props := dashboardProps(analytics, dashboard, observability.GetSessionID(ctx))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	analytics, err := services.NewAnalytics(dataset.NewLoader(cfg.Data.Dir, logger), cfg.Session.CacheSize, logger)
	if err != nil {
		logger.Error("failed to create analytics service", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.Load(ctx); err != nil {
		logger.Error("failed to load data directory", "dir", cfg.Data.Dir, "error", err)
		os.Exit(1)
	}
	duration := time.Since(start)
	logger.Info("data loaded", "dir", cfg.Data.Dir, "duration", duration, "stats", analytics.Stats())

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, cfg.Dashboard, logger),
	}

	srv := server.NewServer(analytics, cfg.Dashboard, logger, templateHandlers)

	rateLimiter, err := middleware.NewRateLimiter(cfg.Security)
	if err != nil {
		logger.Error("failed to create rate limiter", "error", err)
		os.Exit(1)
	}

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Session(cfg.Session),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "sessions", analytics.SessionCount())
		return nil
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(sigCtx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
