package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// StationCellLevel is the S2 level used to group stations on the map.
// Level 12 cells are roughly 2 km across.
const StationCellLevel = 12

// CellID returns a stable S2 cell identifier for c at the given level.
func CellID(c Coordinate, level int) string {
	ll := s2.LatLngFromDegrees(c.Lat, c.Lon)
	cellID := s2.CellIDFromLatLng(ll).Parent(level)
	return fmt.Sprintf("s2_%d", uint64(cellID))
}

// BoundingBox defines the corners of a lat/lon box
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains checks whether the given coordinate is within the bounding box
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// ComputeBoundingBox computes the bounding box of the given coordinates,
// ignoring any that are out of range.
func ComputeBoundingBox(coords []Coordinate) (BoundingBox, error) {
	if len(coords) == 0 {
		return BoundingBox{}, fmt.Errorf("no coordinates to compute bounding box")
	}

	minLat := math.MaxFloat64
	maxLat := -math.MaxFloat64
	minLon := math.MaxFloat64
	maxLon := -math.MaxFloat64

	for _, c := range coords {
		if !IsValidLatLon(c.Lat, c.Lon) {
			continue
		}
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
		minLon = math.Min(minLon, c.Lon)
		maxLon = math.Max(maxLon, c.Lon)
	}

	if minLat == math.MaxFloat64 {
		return BoundingBox{}, fmt.Errorf("no valid latitude/longitude found")
	}

	return BoundingBox{
		MinLat: minLat,
		MaxLat: maxLat,
		MinLon: minLon,
		MaxLon: maxLon,
	}, nil
}

// Coordinates extracts the coordinate of every station.
func Coordinates(stations []Station) []Coordinate {
	coords := make([]Coordinate, len(stations))
	for i, st := range stations {
		coords[i] = st.Coordinate
	}
	return coords
}
