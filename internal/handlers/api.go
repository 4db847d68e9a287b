package handlers

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/views"
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	analytics *services.Analytics
	dashboard config.DashboardConfig
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, dashboard config.DashboardConfig, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		dashboard: dashboard,
		logger:    logger,
	}
}

// ChartResponse is the payload of the chart endpoint.
type ChartResponse struct {
	View   string             `json:"view"`
	Width  int                `json:"width"`
	URL    string             `json:"url"`
	Config charts.ChartConfig `json:"config"`
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

// prepare resolves the caller's session and the query parameters.
func (h *APIHandlers) prepare(w http.ResponseWriter, r *http.Request) (*services.Session, viewQuery, bool) {
	vq, err := parseViewQuery(r, h.dashboard)
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, err.Error()))
		return nil, vq, false
	}

	session, err := h.analytics.Session(observability.GetSessionID(r.Context()))
	if err != nil {
		h.fail(w, r, errors.Wrap(err, errors.CodeServiceUnavail, "dashboard data is not loaded"))
		return nil, vq, false
	}
	return session, vq, true
}

func (h *APIHandlers) writeView(w http.ResponseWriter, r *http.Request, view string, data any, err error) {
	if err != nil {
		h.fail(w, r, errors.FromTable(err, view))
		return
	}
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandlePopularProducts(w http.ResponseWriter, r *http.Request) {
	session, vq, ok := h.prepare(w, r)
	if !ok {
		return
	}
	data, err := session.PopularProducts(limitOr(vq.Limit, views.DefaultPopularLimit))
	h.writeView(w, r, services.ViewPopularProducts, data, err)
}

func (h *APIHandlers) HandlePurchaseFrequency(w http.ResponseWriter, r *http.Request) {
	session, vq, ok := h.prepare(w, r)
	if !ok {
		return
	}
	data, err := session.PurchaseFrequency(limitOr(vq.Limit, views.DefaultFrequencyLimit))
	h.writeView(w, r, services.ViewPurchaseFrequency, data, err)
}

func (h *APIHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.prepare(w, r)
	if !ok {
		return
	}
	data, err := session.MonthlyTrend()
	h.writeView(w, r, services.ViewMonthlyTrend, data, err)
}

func (h *APIHandlers) HandleDailyTrend(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.prepare(w, r)
	if !ok {
		return
	}
	data, err := session.DailyTrend()
	h.writeView(w, r, services.ViewDailyTrend, data, err)
}

func (h *APIHandlers) HandleDailyRange(w http.ResponseWriter, r *http.Request) {
	session, vq, ok := h.prepare(w, r)
	if !ok {
		return
	}
	start, end := dateRange(session, vq.Start, vq.End)
	data, err := session.DailyRange(start, end)
	h.writeView(w, r, services.ViewDailyRange, data, err)
}

func (h *APIHandlers) HandleSegments(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.prepare(w, r)
	if !ok {
		return
	}
	data, err := session.Segments()
	h.writeView(w, r, services.ViewSegments, data, err)
}

func (h *APIHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	session, vq, ok := h.prepare(w, r)
	if !ok {
		return
	}
	data, err := session.TopCustomers(limitOr(vq.Limit, views.DefaultCustomerLimit))
	h.writeView(w, r, services.ViewTopCustomers, data, err)
}

func (h *APIHandlers) HandleProfit(w http.ResponseWriter, r *http.Request) {
	session, vq, ok := h.prepare(w, r)
	if !ok {
		return
	}
	data, err := session.Profit(limitOr(vq.Limit, views.DefaultProfitLimit))
	h.writeView(w, r, services.ViewProfit, data, err)
}

func (h *APIHandlers) HandleCityMap(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.prepare(w, r)
	if !ok {
		return
	}
	data, err := session.CityMap()
	h.writeView(w, r, services.ViewCityMap, data, err)
}

func (h *APIHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	view := r.PathValue("view")
	if !slices.Contains(services.ViewNames, view) {
		h.fail(w, r, errors.NotFound(fmt.Sprintf("unknown view %q", view)))
		return
	}

	session, vq, ok := h.prepare(w, r)
	if !ok {
		return
	}

	cfg, err := chartConfig(session, view, vq)
	if stderrors.Is(err, errNoChart) {
		h.fail(w, r, errors.NotFound(fmt.Sprintf("view %q is not drawn as a chart", view)))
		return
	}
	if err != nil {
		h.fail(w, r, errors.FromTable(err, view))
		return
	}

	url, err := charts.URL(cfg, vq.Width)
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "failed to build chart"))
		return
	}

	errors.WriteSuccessWithHeaders(w, ChartResponse{
		View:   view,
		Width:  vq.Width,
		URL:    url,
		Config: cfg,
	}, cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
