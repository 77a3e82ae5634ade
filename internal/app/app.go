package app

import (
	"log/slog"
	"net/http"
	"time"

	"rainroute.motoclima.co/internal/ckan"
	"rainroute.motoclima.co/internal/config"
	"rainroute.motoclima.co/internal/stations"
)

// Application wires the configuration, the open data client and the
// station analyzer behind the HTTP API.
type Application struct {
	ConfigService *config.ConfigService
	CKAN          *ckan.Client
	Stations      *stations.Source
	Analyzer      *stations.Analyzer
	Logger        *slog.Logger
	Version       string
}

// New creates and wires all dependencies for the Application. The CKAN
// endpoint and cache lifetimes are taken from the settings at startup.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, version string) *Application {
	settings := cfg.GetSettings()

	ckanClient := ckan.NewClient(settings.CKAN.BaseURL, client, settings.CKAN.UserAgent, settings.CKAN.MaxRetries)
	source := stations.NewSource(
		ckanClient,
		cfg.CacheDir,
		time.Duration(settings.Stations.RainTTLSeconds)*time.Second,
		time.Duration(settings.Stations.CatalogTTLSeconds)*time.Second,
		logger,
	)

	return &Application{
		ConfigService: config.NewConfigService(logger, client, cfg),
		CKAN:          ckanClient,
		Stations:      source,
		Analyzer:      stations.NewAnalyzer(source, cfg, logger),
		Logger:        logger,
		Version:       version,
	}
}
