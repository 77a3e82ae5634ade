package geo

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the Earth's volumetric mean radius in kilometers.
//
// Reference: NASA Planetary Fact Sheet – Earth
// https://nssdc.gsfc.nasa.gov/planetary/factsheet/earthfact.html
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between a and b.
//
// s2.LatLng.Distance evaluates the Haversine formula
//
//	a = sin²(Δlat/2) + cos(lat1)·cos(lat2)·sin²(Δlon/2)
//	c = 2·atan2(√a, √(1−a))
//
// and returns c as an angle, so the result is R·c with R = EarthRadiusKm.
// Either coordinate outside the WGS84 domain yields ErrOutOfRangeCoordinate.
func Distance(a, b Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return haversineKm(a, b), nil
}

// haversineKm assumes both coordinates are already validated.
func haversineKm(a, b Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Midpoint returns the point halfway between a and b along the great
// circle joining them.
func Midpoint(a, b Coordinate) (Coordinate, error) {
	if err := a.Validate(); err != nil {
		return Coordinate{}, err
	}
	if err := b.Validate(); err != nil {
		return Coordinate{}, err
	}
	pa := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	pb := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	if pa.Dot(pb.Vector) < -1+1e-15 {
		return Coordinate{}, fmt.Errorf("midpoint of antipodal coordinates is undefined")
	}
	ll := s2.LatLngFromPoint(s2.Interpolate(0.5, pa, pb))
	return Coordinate{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}, nil
}
