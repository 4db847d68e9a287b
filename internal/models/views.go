package models

type RankedFrequency struct {
	Rank int `json:"rank"`
	ProductFrequency
}

type MonthlyCount struct {
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Orders    int    `json:"orders"`
}

type DailyCount struct {
	Day    int `json:"day"`
	Orders int `json:"orders"`
}

type DateCount struct {
	Date   string `json:"date"`
	Orders int    `json:"orders"`
}

// RGBA channels in 0..255, in the order the map layer consumes them.
type RGBA [4]uint8

type CityPoint struct {
	CityOrders
	Radius    int  `json:"radius"`
	FillColor RGBA `json:"fill_color"`
}

type MapViewState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
	Pitch     int     `json:"pitch"`
}

type CityMap struct {
	Points    []CityPoint  `json:"points"`
	ViewState MapViewState `json:"view_state"`
}

type DailyRange struct {
	Start  string      `json:"start"`
	End    string      `json:"end"`
	Total  int         `json:"total"`
	Series []DateCount `json:"series"`
}
