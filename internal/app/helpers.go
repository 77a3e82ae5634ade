package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"rainroute.motoclima.co/internal/geo"
	"rainroute.motoclima.co/internal/report"
	"rainroute.motoclima.co/internal/stations"
	"rainroute.motoclima.co/internal/trip"
	"rainroute.motoclima.co/internal/utils"
)

// paramError is a query parameter that is present but not a number.
type paramError struct {
	Name  string
	Value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("query parameter %q must be a number, got %q", e.Name, e.Value)
}

// floatParam returns the named query parameter, or def when it is absent.
func floatParam(q url.Values, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, &paramError{Name: name, Value: raw}
	}
	return v, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &paramError{Name: name, Value: raw}
	}
	return v, nil
}

// routeParams reads origin_lat, origin_lon, dest_lat and dest_lon. Each
// missing value falls back to the matching endpoint of def.
func routeParams(q url.Values, def geo.Route) (geo.Route, error) {
	var (
		r   geo.Route
		err error
	)
	if r.Origin.Lat, err = floatParam(q, "origin_lat", def.Origin.Lat); err != nil {
		return geo.Route{}, err
	}
	if r.Origin.Lon, err = floatParam(q, "origin_lon", def.Origin.Lon); err != nil {
		return geo.Route{}, err
	}
	if r.Destination.Lat, err = floatParam(q, "dest_lat", def.Destination.Lat); err != nil {
		return geo.Route{}, err
	}
	if r.Destination.Lon, err = floatParam(q, "dest_lon", def.Destination.Lon); err != nil {
		return geo.Route{}, err
	}
	return r, nil
}

type envelope map[string]any

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		app.serverErrorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
	w.Write([]byte("\n"))
}

func (app *Application) errorResponse(w http.ResponseWriter, status int, message string) {
	app.writeJSON(w, status, envelope{"error": message})
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, err error) {
	app.Logger.Error("Failed to handle request", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"error":"the server encountered a problem and could not process your request"}` + "\n"))
}

// handleError maps domain errors to HTTP statuses.
func (app *Application) handleError(w http.ResponseWriter, endpoint string, err error) {
	var pErr *paramError
	switch {
	case errors.As(err, &pErr):
		app.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, geo.ErrOutOfRangeCoordinate),
		errors.Is(err, geo.ErrInvalidTolerance),
		errors.Is(err, trip.ErrInvalidSpeed):
		app.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled):
		app.Logger.Info("Request cancelled by client", "endpoint", endpoint)
		app.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
	case errors.Is(err, stations.ErrUnavailable):
		app.Logger.Warn("Upstream unavailable", "endpoint", endpoint, "error", err)
		app.errorResponse(w, http.StatusBadGateway, "open data portal is unavailable and no snapshot exists")
	default:
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("endpoint", endpoint),
			Level: sentry.LevelError,
		})
		app.serverErrorResponse(w, err)
	}
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, http.StatusNotFound, "the requested resource could not be found")
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, http.StatusMethodNotAllowed, fmt.Sprintf("the %s method is not supported for this resource", r.Method))
}
