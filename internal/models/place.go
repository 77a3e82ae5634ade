package models

import "rainroute.motoclima.co/internal/geo"

// Place is a named location riders can pick as an origin or destination.
type Place struct {
	Name string  `json:"name" yaml:"name" validate:"required"`
	Lat  float64 `json:"lat" yaml:"lat" validate:"latitude"`
	Lon  float64 `json:"lon" yaml:"lon" validate:"longitude"`
}

// NewPlace creates a new Place.
func NewPlace(name string, lat, lon float64) *Place {
	return &Place{
		Name: name,
		Lat:  lat,
		Lon:  lon,
	}
}

// Coordinate returns the place location as a geo.Coordinate.
func (p Place) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// DefaultOrigin is the Modelia neighbourhood.
var DefaultOrigin = Place{Name: "modelia", Lat: 4.6892, Lon: -74.1063}

// DefaultDestination sits south of downtown Bogotá.
var DefaultDestination = Place{Name: "destino", Lat: 4.6097, Lon: -74.0817}

// BogotaPlaces returns the common Bogotá locations offered by default.
func BogotaPlaces() []Place {
	return []Place{
		{Name: "centro", Lat: 4.5981, Lon: -74.0758},
		{Name: "norte", Lat: 4.7110, Lon: -74.0721},
		{Name: "sur", Lat: 4.5300, Lon: -74.1500},
		{Name: "modelia", Lat: 4.6892, Lon: -74.1063},
		{Name: "usaquen", Lat: 4.7022, Lon: -74.0307},
		{Name: "kennedy", Lat: 4.6316, Lon: -74.1469},
		{Name: "chapinero", Lat: 4.6533, Lon: -74.0653},
		{Name: "suba", Lat: 4.7475, Lon: -74.0814},
		{Name: "engativa", Lat: 4.7023, Lon: -74.1107},
		{Name: "fontibon", Lat: 4.6844, Lon: -74.1431},
	}
}

// FindPlace looks a place up by name.
func FindPlace(places []Place, name string) (Place, bool) {
	for _, p := range places {
		if p.Name == name {
			return p, true
		}
	}
	return Place{}, false
}
