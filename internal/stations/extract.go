// Package stations turns open data records into geo.Station values and
// assesses them against a route.
package stations

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"rainroute.motoclima.co/internal/ckan"
	"rainroute.motoclima.co/internal/geo"
)

// Fields names the record columns holding the coordinate.
type Fields struct {
	Lat string
	Lon string
}

// fallbackFields are tried, in order, after the configured pair.
var fallbackFields = []Fields{
	{Lat: "latitud", Lon: "longitud"},
	{Lat: "lat", Lon: "lon"},
	{Lat: "latitude", Lon: "longitude"},
}

// Skipped counts records that could not become stations.
type Skipped struct {
	MissingCoordinates int `json:"missing_coordinates"`
	OutOfRange         int `json:"out_of_range"`
}

func (s Skipped) Total() int {
	return s.MissingCoordinates + s.OutOfRange
}

// FromRecords extracts a station from every record that carries a usable
// coordinate. Records are kept in input order; the rest are counted in
// Skipped and never fail the call.
func FromRecords(records []ckan.Record, fields Fields) ([]geo.Station, Skipped) {
	candidates := make([]Fields, 0, len(fallbackFields)+1)
	if fields.Lat != "" && fields.Lon != "" {
		candidates = append(candidates, fields)
	}
	candidates = append(candidates, fallbackFields...)

	var skipped Skipped
	stations := make([]geo.Station, 0, len(records))
	for _, rec := range records {
		c, ok := coordinateOf(rec, candidates)
		if !ok {
			skipped.MissingCoordinates++
			continue
		}
		if c.Validate() != nil {
			skipped.OutOfRange++
			continue
		}
		stations = append(stations, geo.Station{
			Coordinate: c,
			Attributes: map[string]any(rec),
		})
	}
	return stations, skipped
}

func coordinateOf(rec ckan.Record, candidates []Fields) (geo.Coordinate, bool) {
	for _, f := range candidates {
		latRaw, ok := lookup(rec, f.Lat)
		if !ok {
			continue
		}
		lonRaw, ok := lookup(rec, f.Lon)
		if !ok {
			continue
		}
		lat, ok := toFloat(latRaw)
		if !ok {
			continue
		}
		lon, ok := toFloat(lonRaw)
		if !ok {
			continue
		}
		return geo.Coordinate{Lat: lat, Lon: lon}, true
	}
	return geo.Coordinate{}, false
}

// lookup finds key in rec, falling back to a case-insensitive match.
func lookup(rec ckan.Record, key string) (any, bool) {
	if v, ok := rec[key]; ok && v != nil {
		return v, true
	}
	for k, v := range rec {
		if v != nil && strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		// Decimal commas are common in the portal's CSV-backed resources.
		if !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
