// Package trip estimates travel distance and time for a motorcycle trip
// along a straight-line route.
package trip

import (
	"errors"
	"fmt"
	"math"

	"rainroute.motoclima.co/internal/geo"
)

// Average motorcycle speeds in km/h. The bounds match the range riders can
// pick from in the route planner.
const (
	DefaultSpeedKmh = 25.0
	MinSpeedKmh     = 15.0
	MaxSpeedKmh     = 40.0
)

var ErrInvalidSpeed = errors.New("speed must be a positive number of km/h")

// Summary is the trip overview rendered next to the map.
type Summary struct {
	Route      geo.Route        `json:"route"`
	DistanceKm float64          `json:"distance_km"`
	Minutes    float64          `json:"minutes"`
	SpeedKmh   float64          `json:"speed_kmh"`
	Center     geo.Coordinate   `json:"center"`
	Path       []geo.Coordinate `json:"path"`
}

// EstimateMinutes returns the travel time in minutes for distanceKm at an
// average speed of speedKmh.
func EstimateMinutes(distanceKm, speedKmh float64) (float64, error) {
	if math.IsNaN(speedKmh) || math.IsInf(speedKmh, 0) || speedKmh <= 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidSpeed, speedKmh)
	}
	if math.IsNaN(distanceKm) || distanceKm < 0 {
		return 0, fmt.Errorf("distance must be non-negative, got %v", distanceKm)
	}
	return distanceKm / speedKmh * 60, nil
}

// ClampSpeed keeps speed within [MinSpeedKmh, MaxSpeedKmh]. Zero and
// non-finite values fall back to DefaultSpeedKmh.
func ClampSpeed(speedKmh float64) float64 {
	if speedKmh == 0 || math.IsNaN(speedKmh) || math.IsInf(speedKmh, 0) {
		return DefaultSpeedKmh
	}
	return math.Max(MinSpeedKmh, math.Min(MaxSpeedKmh, speedKmh))
}

// Plan computes the trip summary for route at speedKmh.
func Plan(route geo.Route, speedKmh float64) (Summary, error) {
	distance, err := geo.Distance(route.Origin, route.Destination)
	if err != nil {
		return Summary{}, err
	}

	minutes, err := EstimateMinutes(distance, speedKmh)
	if err != nil {
		return Summary{}, err
	}

	center, err := geo.Midpoint(route.Origin, route.Destination)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Route:      route,
		DistanceKm: distance,
		Minutes:    minutes,
		SpeedKmh:   speedKmh,
		Center:     center,
		Path:       []geo.Coordinate{route.Origin, route.Destination},
	}, nil
}
