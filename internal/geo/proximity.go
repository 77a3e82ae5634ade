package geo

import (
	"fmt"
	"math"
)

// The two tolerances are deliberately distinct: a single point is checked
// against 1 km, station sets are aggregated with 2 km.
const (
	DefaultPointToleranceKm   = 1.0
	DefaultStationToleranceKm = 2.0
)

// slackNoiseKm is the floating-point noise floor for the slack. Slack below
// one micrometer is reported as exactly zero so that points lying on the
// great circle between the endpoints pass a zero tolerance.
const slackNoiseKm = 1e-9

// CheckProximity tests whether point lies within toleranceKm of the straight
// route using the triangle-inequality slack
//
//	slack = |d(point, origin) + d(point, destination) − d(origin, destination)|
//
// The test bounds the sum of the distances to the two endpoints, so the
// accepted region is an ellipse with the endpoints as foci. For short routes
// the ellipse is wide relative to the segment and a point can pass while
// being well outside a physical corridor. This is a known approximation.
//
// A zero-length route needs no special handling: slack becomes twice the
// distance to the single endpoint.
func CheckProximity(point Coordinate, route Route, toleranceKm float64) (ProximityResult, error) {
	if math.IsNaN(toleranceKm) || toleranceKm < 0 {
		return ProximityResult{}, fmt.Errorf("%w: %v km", ErrInvalidTolerance, toleranceKm)
	}
	if err := point.Validate(); err != nil {
		return ProximityResult{}, err
	}
	if err := route.Validate(); err != nil {
		return ProximityResult{}, err
	}

	dOrigin := haversineKm(point, route.Origin)
	dDest := haversineKm(point, route.Destination)
	dRoute := haversineKm(route.Origin, route.Destination)

	slack := math.Abs(dOrigin + dDest - dRoute)
	if slack < slackNoiseKm {
		slack = 0
	}

	return ProximityResult{
		Near:        slack <= toleranceKm,
		ToleranceKm: toleranceKm,
		SlackKm:     slack,
	}, nil
}

// IsNear reports whether point lies within toleranceKm of route.
func IsNear(point Coordinate, route Route, toleranceKm float64) (bool, error) {
	res, err := CheckProximity(point, route, toleranceKm)
	if err != nil {
		return false, err
	}
	return res.Near, nil
}

// FilterNearStations returns the stations near route, in input order. The
// input slice is not modified. A station with an invalid coordinate fails
// the whole call with an error naming its index.
func FilterNearStations(stations []Station, route Route, toleranceKm float64) ([]Station, error) {
	near := make([]Station, 0, len(stations))
	for i, st := range stations {
		ok, err := IsNear(st.Coordinate, route, toleranceKm)
		if err != nil {
			return nil, fmt.Errorf("station %d: %w", i, err)
		}
		if ok {
			near = append(near, st)
		}
	}
	return near, nil
}
