package app

import (
	"errors"
	"net/http"
	"time"

	"rainroute.motoclima.co/internal/ckan"
	"rainroute.motoclima.co/internal/geo"
	"rainroute.motoclima.co/internal/metrics"
	"rainroute.motoclima.co/internal/models"
	"rainroute.motoclima.co/internal/trip"
	"rainroute.motoclima.co/internal/utils"
)

var errMissingPoint = errors.New("query parameters lat and lon are required")

var nowFunc = time.Now

// HealthStatus is the body of GET /v1/healthcheck. The service is ready
// when at least one place is configured.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Places      int    `json:"places"`
	Upstream    string `json:"upstream"`
	Ready       bool   `json:"ready"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	cfg := app.ConfigService.Config
	settings := cfg.GetSettings()
	ready := len(settings.Places) > 0

	status := HealthStatus{
		Status:      "available",
		Environment: cfg.Env,
		Version:     app.Version,
		Places:      len(settings.Places),
		Upstream:    settings.CKAN.BaseURL,
		Ready:       ready,
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusInternalServerError
	}
	app.writeJSON(w, code, status)
}

type placesResponse struct {
	Places             []models.Place `json:"places"`
	DefaultOrigin      models.Place   `json:"default_origin"`
	DefaultDestination models.Place   `json:"default_destination"`
	DefaultSpeedKmh    float64        `json:"default_speed_kmh"`
}

func (app *Application) placesHandler(w http.ResponseWriter, r *http.Request) {
	settings := app.ConfigService.Config.GetSettings()
	app.writeJSON(w, http.StatusOK, placesResponse{
		Places:             settings.Places,
		DefaultOrigin:      settings.Route.Origin,
		DefaultDestination: settings.Route.Destination,
		DefaultSpeedKmh:    settings.Route.SpeedKmh,
	})
}

type routeResponse struct {
	trip.Summary
	GeneratedAt string `json:"generated_at"`
}

// routeHandler plans a straight-line trip. speed is clamped to the
// supported range.
func (app *Application) routeHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "route"
	settings := app.ConfigService.Config.GetSettings()
	q := r.URL.Query()

	route, err := routeParams(q, settings.Route.DefaultRoute())
	if err != nil {
		metrics.RecordRouteRequest(endpoint, err)
		app.handleError(w, endpoint, err)
		return
	}
	speed, err := floatParam(q, "speed", settings.Route.SpeedKmh)
	if err != nil {
		metrics.RecordRouteRequest(endpoint, err)
		app.handleError(w, endpoint, err)
		return
	}

	summary, err := trip.Plan(route, trip.ClampSpeed(speed))
	metrics.RecordRouteRequest(endpoint, err)
	if err != nil {
		app.handleError(w, endpoint, err)
		return
	}
	metrics.RouteDistanceKm.Observe(summary.DistanceKm)

	app.writeJSON(w, http.StatusOK, routeResponse{
		Summary:     summary,
		GeneratedAt: nowFunc().Format(utils.DisplayTimeLayout),
	})
}

type proximityResponse struct {
	Point geo.Coordinate `json:"point"`
	Route geo.Route      `json:"route"`
	geo.ProximityResult
}

func (app *Application) proximityHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "proximity"
	settings := app.ConfigService.Config.GetSettings()
	q := r.URL.Query()

	if q.Get("lat") == "" || q.Get("lon") == "" {
		metrics.RecordRouteRequest(endpoint, errMissingPoint)
		app.errorResponse(w, http.StatusBadRequest, errMissingPoint.Error())
		return
	}

	var (
		point geo.Coordinate
		err   error
	)
	point.Lat, err = floatParam(q, "lat", 0)
	if err == nil {
		point.Lon, err = floatParam(q, "lon", 0)
	}
	var route geo.Route
	if err == nil {
		route, err = routeParams(q, settings.Route.DefaultRoute())
	}
	var tolerance float64
	if err == nil {
		tolerance, err = floatParam(q, "tolerance", settings.Route.PointToleranceKm)
	}
	if err != nil {
		metrics.RecordRouteRequest(endpoint, err)
		app.handleError(w, endpoint, err)
		return
	}

	result, err := geo.CheckProximity(point, route, tolerance)
	metrics.RecordRouteRequest(endpoint, err)
	if err != nil {
		app.handleError(w, endpoint, err)
		return
	}

	app.writeJSON(w, http.StatusOK, proximityResponse{
		Point:           point,
		Route:           route,
		ProximityResult: result,
	})
}

func (app *Application) stationsHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "stations"
	settings := app.ConfigService.Config.GetSettings()
	q := r.URL.Query()

	route, err := routeParams(q, settings.Route.DefaultRoute())
	var tolerance float64
	if err == nil {
		tolerance, err = floatParam(q, "tolerance", settings.Route.StationToleranceKm)
	}
	var limit int
	if err == nil {
		limit, err = intParam(q, "limit", 0)
	}
	if err != nil {
		metrics.RecordRouteRequest(endpoint, err)
		app.handleError(w, endpoint, err)
		return
	}

	assessment, err := app.Analyzer.Analyze(r.Context(), route, tolerance, limit)
	metrics.RecordRouteRequest(endpoint, err)
	if err != nil {
		app.handleError(w, endpoint, err)
		return
	}

	app.writeJSON(w, http.StatusOK, envelope{
		"route":      route,
		"assessment": assessment,
	})
}

func (app *Application) datasetsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := intParam(q, "rows", 10)
	if err != nil {
		app.handleError(w, "datasets", err)
		return
	}

	result, err := app.Analyzer.Datasets(r.Context(), q.Get("q"), rows)
	if err != nil {
		app.Logger.Warn("Dataset search failed", "query", q.Get("q"), "error", err)
		app.errorResponse(w, http.StatusBadGateway, "dataset search failed: "+err.Error())
		return
	}

	datasets := make([]ckan.Dataset, len(result.Results))
	copy(datasets, result.Results)
	for i := range datasets {
		datasets[i].MetadataModified = utils.FormatTimestamp(datasets[i].MetadataModified)
	}
	result.Results = datasets

	app.writeJSON(w, http.StatusOK, result)
}
