package geo

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOutOfRangeCoordinate is returned when a latitude or longitude falls
	// outside the WGS84 domain. Coordinates are never clamped.
	ErrOutOfRangeCoordinate = errors.New("coordinate out of range")

	// ErrInvalidTolerance is returned for negative or NaN tolerances.
	ErrInvalidTolerance = errors.New("invalid tolerance")
)

// Coordinate is a (latitude, longitude) pair in decimal degrees, WGS84.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CoordinateError describes the offending coordinate. It unwraps to
// ErrOutOfRangeCoordinate.
type CoordinateError struct {
	Lat float64
	Lon float64
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("coordinate (%g, %g) out of range: latitude must be within [-90, 90] and longitude within [-180, 180]", e.Lat, e.Lon)
}

func (e *CoordinateError) Unwrap() error {
	return ErrOutOfRangeCoordinate
}

// NewCoordinate returns a validated Coordinate.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate reports whether the coordinate lies inside the WGS84 domain.
// Unlike transit feeds, (0, 0) is accepted: it is a real place.
func (c Coordinate) Validate() error {
	if !IsValidLatLon(c.Lat, c.Lon) {
		return &CoordinateError{Lat: c.Lat, Lon: c.Lon}
	}
	return nil
}

// IsValidLatLon returns true if latitude is within [-90, 90] and longitude
// within [-180, 180]. NaN and infinities are rejected.
func IsValidLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Route is a single straight segment between two endpoints. Road geometry
// is not modelled.
type Route struct {
	Origin      Coordinate `json:"origin"`
	Destination Coordinate `json:"destination"`
}

// Validate checks both endpoints.
func (r Route) Validate() error {
	if err := r.Origin.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	return nil
}

// Station is an observation point reported by the upstream portal. The
// attribute bag holds the raw record fields; their schema is not fixed.
type Station struct {
	Coordinate
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ProximityResult is the outcome of a single proximity check.
type ProximityResult struct {
	Near        bool    `json:"near"`
	ToleranceKm float64 `json:"tolerance_km"`
	SlackKm     float64 `json:"slack_km"`
}
