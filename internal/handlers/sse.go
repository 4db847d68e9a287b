package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/views"
)

const maxTableRows = 50

var viewTemplate = template.Must(template.New("view").Parse(`
<div id="{{.ID}}" class="view-content">
{{if .ChartURL}}<img class="chart" src="{{.ChartURL}}" width="{{.Width}}" alt="{{.Title}}">{{end}}
{{if .Caption}}<p class="view-caption">{{.Caption}}</p>{{end}}
<table class="modern-table">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</div>`))

var errorTemplate = template.Must(template.New("viewError").Parse(`
<div id="{{.ID}}" class="view-content view-error" role="alert">
<strong>{{.Title}} is unavailable</strong>
<p>{{.Message}}</p>
</div>`))

// Titles shown on the dashboard for each view.
var viewTitles = map[string]string{
	services.ViewPopularProducts:   "Most popular product categories",
	services.ViewPurchaseFrequency: "Product purchase frequency",
	services.ViewMonthlyTrend:      "Monthly order trend",
	services.ViewDailyTrend:        "Orders by day of month",
	services.ViewDailyRange:        "Daily orders in the selected range",
	services.ViewSegments:          "Customer segments",
	services.ViewTopCustomers:      "Top customers by monetary value",
	services.ViewProfit:            "Most profitable product categories",
	services.ViewCityMap:           "Orders by city",
}

// ViewTitle is the heading shown above a view.
func ViewTitle(view string) string {
	return viewTitles[view]
}

// Signals are the client state the dashboard sends with every SSE request.
type Signals struct {
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	ChartWidth int    `json:"chartWidth"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	dashboard config.DashboardConfig
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, dashboard config.DashboardConfig, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		dashboard: dashboard,
		logger:    logger,
	}
}

type viewFragment struct {
	ID       string
	Title    string
	ChartURL string
	Width    int
	Caption  string
	Headers  []string
	Rows     [][]string
}

type errorFragment struct {
	ID      string
	Title   string
	Message string
}

// ContentID is the element id a view's fragment replaces.
func ContentID(view string) string {
	return view + "-content"
}

// SignalKey is the camelCase signal name that carries a view's data.
func SignalKey(view string) string {
	parts := strings.Split(view, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "") + "Data"
}

func (h *SSEHandlers) readQuery(r *http.Request) (viewQuery, error) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return viewQuery{}, fmt.Errorf("read signals: %w", err)
	}

	var (
		vq  viewQuery
		err error
	)
	if vq.Start, err = parseDate("startDate", signals.StartDate); err != nil {
		return vq, err
	}
	if vq.End, err = parseDate("endDate", signals.EndDate); err != nil {
		return vq, err
	}
	vq.Width = h.dashboard.ChartWidth
	if signals.ChartWidth != 0 {
		if err := h.dashboard.ValidateWidth(signals.ChartWidth); err != nil {
			return vq, err
		}
		vq.Width = signals.ChartWidth
	}
	return vq, nil
}

// viewData computes a view at its dashboard size.
func viewData(s *services.Session, view string, vq viewQuery) (any, error) {
	switch view {
	case services.ViewPopularProducts:
		return s.PopularProducts(views.DefaultPopularLimit)
	case services.ViewPurchaseFrequency:
		return s.PurchaseFrequency(views.DefaultFrequencyLimit)
	case services.ViewMonthlyTrend:
		return s.MonthlyTrend()
	case services.ViewDailyTrend:
		return s.DailyTrend()
	case services.ViewDailyRange:
		start, end := dateRange(s, vq.Start, vq.End)
		return s.DailyRange(start, end)
	case services.ViewSegments:
		return s.Segments()
	case services.ViewTopCustomers:
		return s.TopCustomers(views.DefaultCustomerLimit)
	case services.ViewProfit:
		return s.Profit(views.DefaultProfitLimit)
	case services.ViewCityMap:
		return s.CityMap()
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}
}

// tableOf lays a view out as table headers and rows.
func tableOf(data any) (headers []string, rows [][]string, caption string) {
	itoa := strconv.Itoa
	switch d := data.(type) {
	case []models.PopularProduct:
		headers = []string{"Category", "Orders"}
		for _, p := range d {
			rows = append(rows, []string{p.Category, itoa(p.Orders)})
		}
	case []models.RankedFrequency:
		headers = []string{"#", "Product", "Category", "Purchases"}
		for _, p := range d {
			rows = append(rows, []string{itoa(p.Rank), p.ProductID, p.Category, itoa(p.Frequency)})
		}
	case []models.MonthlyCount:
		headers = []string{"Month", "Orders"}
		for _, m := range d {
			rows = append(rows, []string{m.MonthName, itoa(m.Orders)})
		}
	case []models.DailyCount:
		headers = []string{"Day", "Orders"}
		for _, c := range d {
			rows = append(rows, []string{itoa(c.Day), itoa(c.Orders)})
		}
	case models.DailyRange:
		headers = []string{"Date", "Orders"}
		for _, c := range d.Series {
			rows = append(rows, []string{c.Date, itoa(c.Orders)})
		}
		caption = fmt.Sprintf("%d orders from %s to %s", d.Total, d.Start, d.End)
	case []models.CustomerSegment:
		headers = []string{"Segment", "Customers"}
		for _, s := range d {
			rows = append(rows, []string{s.Segment, itoa(s.Customers)})
		}
	case []models.CustomerRFM:
		headers = []string{"Customer", "Recency", "Frequency", "Monetary", "Segment"}
		for _, c := range d {
			rows = append(rows, []string{c.CustomerID, itoa(c.Recency), itoa(c.Frequency), strconv.FormatFloat(c.Monetary, 'f', 2, 64), c.Segment})
		}
	case []models.ProductProfit:
		headers = []string{"Category", "Products", "Total profit"}
		for _, p := range d {
			rows = append(rows, []string{p.Category, itoa(p.Products), p.TotalProfit.StringFixed(2)})
		}
	case models.CityMap:
		headers = []string{"City", "Orders", "Latitude", "Longitude", "Radius (m)"}
		for _, p := range d.Points {
			rows = append(rows, []string{
				p.City,
				itoa(p.Orders),
				strconv.FormatFloat(p.Latitude, 'f', 4, 64),
				strconv.FormatFloat(p.Longitude, 'f', 4, 64),
				itoa(p.Radius),
			})
		}
		caption = fmt.Sprintf("%d cities with more than %d orders", len(d.Points), views.MinCityOrders)
	}
	if len(rows) > maxTableRows {
		rows = rows[:maxTableRows]
	}
	return headers, rows, caption
}

func (h *SSEHandlers) renderView(view string, data any, chartURL string, width int) (string, error) {
	headers, rows, caption := tableOf(data)
	frag := viewFragment{
		ID:       ContentID(view),
		Title:    viewTitles[view],
		ChartURL: chartURL,
		Width:    width,
		Caption:  caption,
		Headers:  headers,
		Rows:     rows,
	}

	var buf strings.Builder
	err := viewTemplate.Execute(&buf, frag)
	return buf.String(), err
}

func (h *SSEHandlers) renderError(view string, err error) string {
	message := err.Error()
	if appErr := errors.FromTable(err, view); appErr.Code != errors.CodeInternal {
		message = appErr.Message
		if appErr.Details != "" {
			message += ": " + appErr.Details
		}
	}

	var buf strings.Builder
	if execErr := errorTemplate.Execute(&buf, errorFragment{
		ID:      ContentID(view),
		Title:   viewTitles[view],
		Message: message,
	}); execErr != nil {
		h.logger.Error("render error fragment", "view", view, "error", execErr)
	}
	return buf.String()
}

// patchView renders one view and patches its fragment. The returned signal
// value is nil when the view failed.
func (h *SSEHandlers) patchView(r *http.Request, sse *datastar.ServerSentEventGenerator, session *services.Session, view string, vq viewQuery) any {
	ctx := r.Context()
	logger := h.logger.With("view", view)

	data, err := viewData(session, view, vq)
	if err != nil {
		h.patchError(ctx, sse, err, view)
		return nil
	}

	var chartURL string
	if cfg, err := chartConfig(session, view, vq); err == nil {
		if chartURL, err = charts.URL(cfg, vq.Width); err != nil {
			logger.ErrorContext(ctx, "build chart url", "error", err)
		}
	}

	html, err := h.renderView(view, data, chartURL, vq.Width)
	if err != nil {
		logger.ErrorContext(ctx, "render view", "error", err)
		return nil
	}
	if err := sse.PatchElements(html); err != nil {
		logger.ErrorContext(ctx, "patch view", "error", err)
	}
	return data
}

// patchError swaps each view's fragment for its error state.
func (h *SSEHandlers) patchError(ctx context.Context, sse *datastar.ServerSentEventGenerator, err error, viewNames ...string) {
	for _, view := range viewNames {
		h.logger.WarnContext(ctx, "view unavailable", "view", view, "error", err)
		if patchErr := sse.PatchElements(h.renderError(view, err)); patchErr != nil {
			h.logger.ErrorContext(ctx, "patch error fragment", "view", view, "error", patchErr)
		}
	}
}

func (h *SSEHandlers) session(r *http.Request) (*services.Session, error) {
	return h.analytics.Session(observability.GetSessionID(r.Context()))
}

// HandleView streams a single view, chosen by the {view} path segment.
func (h *SSEHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	view := r.PathValue("view")
	if !slices.Contains(services.ViewNames, view) {
		http.NotFound(w, r)
		return
	}

	sse := datastar.NewSSE(w, r)

	vq, err := h.readQuery(r)
	if err != nil {
		h.patchError(r.Context(), sse, err, view)
		return
	}

	session, err := h.session(r)
	if err != nil {
		h.patchError(r.Context(), sse, err, view)
		return
	}

	if data := h.patchView(r, sse, session, view, vq); data != nil {
		if err := sse.MarshalAndPatchSignals(map[string]any{SignalKey(view): data}); err != nil {
			h.logger.Error("patch signals", "view", view, "error", err)
		}
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll streams every view. A failing view patches its own error
// fragment and the rest still render.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	vq, err := h.readQuery(r)
	if err != nil {
		h.patchError(r.Context(), sse, err, services.ViewNames...)
		return
	}

	session, err := h.session(r)
	if err != nil {
		h.patchError(r.Context(), sse, err, services.ViewNames...)
		return
	}

	signals := make(map[string]any, len(services.ViewNames))
	for _, view := range services.ViewNames {
		if data := h.patchView(r, sse, session, view, vq); data != nil {
			signals[SignalKey(view)] = data
		}
	}

	if start, end := dateRange(session, vq.Start, vq.End); !start.IsZero() && !end.IsZero() {
		signals["startDate"] = start.Format(views.DateLayout)
		signals["endDate"] = end.Format(views.DateLayout)
	}

	if err := sse.MarshalAndPatchSignals(signals); err != nil {
		h.logger.Error("patch all signals", "error", err)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
