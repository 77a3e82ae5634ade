package config

import (
	"sync"
	"time"

	"rainroute.motoclima.co/internal/geo"
	"rainroute.motoclima.co/internal/models"
	"rainroute.motoclima.co/internal/trip"
)

// RainResourceID is the CKAN datastore resource holding daily rainfall
// records published by the Bogotá alert system.
const RainResourceID = "0f8e12d2-2115-49e2-9a05-1cfb55d26283"

const DefaultCKANBaseURL = "https://datosabiertos.bogota.gov.co/api/3/action"

// CKANSettings configures the open data portal client.
type CKANSettings struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	RainResourceID string `yaml:"rain_resource_id" validate:"required"`
	CatalogQuery   string `yaml:"catalog_query"`
	UserAgent      string `yaml:"user_agent" validate:"required"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
	MaxRetries     int    `yaml:"max_retries" validate:"gte=0,lte=10"`
	RecordLimit    int    `yaml:"record_limit" validate:"gt=0,lte=32000"`
}

// RouteSettings holds the planner defaults.
type RouteSettings struct {
	Origin             models.Place `yaml:"origin"`
	Destination        models.Place `yaml:"destination"`
	SpeedKmh           float64      `yaml:"speed_kmh" validate:"gte=15,lte=40"`
	PointToleranceKm   float64      `yaml:"point_tolerance_km" validate:"gte=0"`
	StationToleranceKm float64      `yaml:"station_tolerance_km" validate:"gte=0"`
}

// StationSettings tells the station source where coordinates live in the
// raw records and how long fetched pages stay fresh.
type StationSettings struct {
	LatField          string `yaml:"lat_field"`
	LonField          string `yaml:"lon_field"`
	RainTTLSeconds    int    `yaml:"rain_ttl_seconds" validate:"gt=0"`
	CatalogTTLSeconds int    `yaml:"catalog_ttl_seconds" validate:"gt=0"`
}

type CORSSettings struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Settings is the document read from --config-file or --config-url.
type Settings struct {
	CKAN     CKANSettings    `yaml:"ckan"`
	Route    RouteSettings   `yaml:"route"`
	Stations StationSettings `yaml:"stations"`
	Places   []models.Place  `yaml:"places" validate:"dive"`
	CORS     CORSSettings    `yaml:"cors"`
}

// DefaultSettings returns the settings used when no configuration source is
// given. Loaded documents are decoded on top of these values.
func DefaultSettings() Settings {
	return Settings{
		CKAN: CKANSettings{
			BaseURL:        DefaultCKANBaseURL,
			RainResourceID: RainResourceID,
			CatalogQuery:   "Catalogo Estaciones Hidrometeorológicas",
			UserAgent:      "BogotaRainPredictor/1.0",
			TimeoutSeconds: 10,
			MaxRetries:     2,
			RecordLimit:    100,
		},
		Route: RouteSettings{
			Origin:             models.DefaultOrigin,
			Destination:        models.DefaultDestination,
			SpeedKmh:           trip.DefaultSpeedKmh,
			PointToleranceKm:   geo.DefaultPointToleranceKm,
			StationToleranceKm: geo.DefaultStationToleranceKm,
		},
		Stations: StationSettings{
			LatField:          "latitud",
			LonField:          "longitud",
			RainTTLSeconds:    300,
			CatalogTTLSeconds: 3600,
		},
		Places: models.BogotaPlaces(),
		CORS: CORSSettings{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Timeout returns the upstream request timeout.
func (s CKANSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DefaultRoute returns the configured origin/destination pair.
func (s RouteSettings) DefaultRoute() geo.Route {
	return geo.Route{
		Origin:      s.Origin.Coordinate(),
		Destination: s.Destination.Coordinate(),
	}
}

// Config holds all the configuration settings for our application.
type Config struct {
	Port     int
	Env      string
	CacheDir string
	Mu       sync.RWMutex
	Settings Settings
}

// NewConfig creates a new instance of a Config struct.
func NewConfig(port int, env string, cacheDir string, settings Settings) *Config {
	return &Config{
		Port:     port,
		Env:      env,
		CacheDir: cacheDir,
		Settings: settings,
	}
}

// UpdateConfig safely replaces the settings.
func (cfg *Config) UpdateConfig(newSettings Settings) {
	cfg.Mu.Lock()
	defer cfg.Mu.Unlock()
	cfg.Settings = newSettings
}

// GetSettings returns a copy of the current settings. The Places slice is
// copied as well so callers cannot race with UpdateConfig.
func (cfg *Config) GetSettings() Settings {
	cfg.Mu.RLock()
	defer cfg.Mu.RUnlock()
	s := cfg.Settings
	s.Places = append([]models.Place(nil), cfg.Settings.Places...)
	s.CORS.AllowedOrigins = append([]string(nil), cfg.Settings.CORS.AllowedOrigins...)
	return s
}
