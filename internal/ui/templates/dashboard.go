//go:generate templ generate

// Package templates renders the dashboard page. Views are filled in by the
// Datastar SSE endpoints once the page loads.
package templates

import "encoding/json"

type Panel struct {
	View  string
	Title string
}

type DashboardProps struct {
	Title string

	// Date filter bounds and initial values, YYYY-MM-DD. Empty when the
	// retention table could not be loaded.
	MinDate   string
	MaxDate   string
	StartDate string
	EndDate   string

	ChartWidth int
	MinWidth   int
	MaxWidth   int
	WidthStep  int

	Panels []Panel
}

func (p DashboardProps) signals() (string, error) {
	b, err := json.Marshal(map[string]any{
		"startDate":  p.StartDate,
		"endDate":    p.EndDate,
		"chartWidth": p.ChartWidth,
	})
	return string(b), err
}
