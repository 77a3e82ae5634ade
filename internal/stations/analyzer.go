package stations

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"rainroute.motoclima.co/internal/ckan"
	"rainroute.motoclima.co/internal/config"
	"rainroute.motoclima.co/internal/geo"
	"rainroute.motoclima.co/internal/metrics"
)

// RecommendationGo is the only recommendation issued: no rain-intensity
// model exists to ever advise against riding.
const RecommendationGo = "GO"

// Assessment summarizes the stations near a route.
type Assessment struct {
	ActiveRain       bool             `json:"active_rain"`
	NearStations     []geo.Station    `json:"near_stations"`
	AverageIntensity float64          `json:"average_intensity"`
	Recommendation   string           `json:"recommendation"`
	ToleranceKm      float64          `json:"tolerance_km"`
	Source           string           `json:"source"`
	FetchedAt        time.Time        `json:"fetched_at"`
	RecordCount      int              `json:"record_count"`
	Columns          []string         `json:"columns"`
	Skipped          Skipped          `json:"skipped"`
	Bounds           *geo.BoundingBox `json:"bounds,omitempty"`
	Cells            map[string]int   `json:"cells,omitempty"`
}

// Analyzer assesses routes against the configured rainfall resource.
type Analyzer struct {
	source *Source
	config *config.Config
	logger *slog.Logger
}

func NewAnalyzer(source *Source, cfg *config.Config, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		source: source,
		config: cfg,
		logger: logger,
	}
}

// Analyze fetches the latest rainfall page and keeps the stations within
// toleranceKm of route. limit <= 0 uses the configured record limit.
func (a *Analyzer) Analyze(ctx context.Context, route geo.Route, toleranceKm float64, limit int) (Assessment, error) {
	if math.IsNaN(toleranceKm) || toleranceKm < 0 {
		return Assessment{}, fmt.Errorf("%w: %v km", geo.ErrInvalidTolerance, toleranceKm)
	}
	if err := route.Validate(); err != nil {
		return Assessment{}, err
	}

	settings := a.config.GetSettings()
	if limit <= 0 {
		limit = settings.CKAN.RecordLimit
	}
	resourceID := settings.CKAN.RainResourceID

	page, err := a.source.Records(ctx, ckan.DatastoreQuery{ResourceID: resourceID, Limit: limit})
	if err != nil {
		return Assessment{}, err
	}

	fields := Fields{Lat: settings.Stations.LatField, Lon: settings.Stations.LonField}
	all, skipped := FromRecords(page.Result.Records, fields)
	metrics.RecordStationExtraction(resourceID, len(page.Result.Records), len(all), skipped.Total())
	if skipped.Total() > 0 {
		a.logger.Debug("Skipped records without usable coordinates",
			"resource_id", resourceID,
			"missing", skipped.MissingCoordinates,
			"out_of_range", skipped.OutOfRange)
	}

	near, err := geo.FilterNearStations(all, route, toleranceKm)
	if err != nil {
		return Assessment{}, err
	}
	metrics.NearStationsCount.WithLabelValues(resourceID).Set(float64(len(near)))

	assessment := Assessment{
		ActiveRain:       false,
		NearStations:     near,
		AverageIntensity: 0,
		Recommendation:   RecommendationGo,
		ToleranceKm:      toleranceKm,
		Source:           page.Origin,
		FetchedAt:        page.FetchedAt,
		RecordCount:      len(page.Result.Records),
		Columns:          page.Result.Columns(),
		Skipped:          skipped,
	}

	if len(near) > 0 {
		box, err := geo.ComputeBoundingBox(geo.Coordinates(near))
		if err == nil {
			assessment.Bounds = &box
		}
		assessment.Cells = make(map[string]int)
		for _, st := range near {
			assessment.Cells[geo.CellID(st.Coordinate, geo.StationCellLevel)]++
		}
	}

	return assessment, nil
}

// Datasets exposes the catalog search of the underlying source.
func (a *Analyzer) Datasets(ctx context.Context, query string, rows int) (ckan.SearchResult, error) {
	if query == "" {
		query = a.config.GetSettings().CKAN.CatalogQuery
	}
	return a.source.Datasets(ctx, query, rows)
}
