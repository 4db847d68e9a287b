package views

import "ecommerce-dashboard/internal/models"

const (
	MinCityOrders = 10
	RadiusScale   = 500
	redBase       = 255
	redStep       = 5
	mapZoom       = 4
)

const (
	fillGreen uint8 = 100
	fillBlue  uint8 = 150
	fillAlpha uint8 = 160
)

// Radius scales linearly with the order count.
func Radius(orders int) int {
	return orders * RadiusScale
}

// FillColor gets redder for small counts; the red channel saturates at 0
// instead of wrapping for busy cities.
func FillColor(orders int) models.RGBA {
	red := redBase - orders*redStep
	if red < 0 {
		red = 0
	}
	if red > redBase {
		red = redBase
	}
	return models.RGBA{uint8(red), fillGreen, fillBlue, fillAlpha}
}

// CityPoints keeps cities with more than MinCityOrders orders, in input
// order, and derives their map encoding.
func CityPoints(rows []models.CityOrders) []models.CityPoint {
	points := []models.CityPoint{}
	for _, r := range rows {
		if r.Orders <= MinCityOrders {
			continue
		}
		points = append(points, models.CityPoint{
			CityOrders: r,
			Radius:     Radius(r.Orders),
			FillColor:  FillColor(r.Orders),
		})
	}
	return points
}

// ViewState centres the map on the mean position of the points.
func ViewState(points []models.CityPoint) models.MapViewState {
	state := models.MapViewState{Zoom: mapZoom}
	if len(points) == 0 {
		return state
	}
	var lat, lng float64
	for _, p := range points {
		lat += p.Latitude
		lng += p.Longitude
	}
	state.Latitude = lat / float64(len(points))
	state.Longitude = lng / float64(len(points))
	return state
}

func CityMap(rows []models.CityOrders) models.CityMap {
	points := CityPoints(rows)
	return models.CityMap{Points: points, ViewState: ViewState(points)}
}
