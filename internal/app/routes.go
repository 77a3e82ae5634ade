package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"rainroute.motoclima.co/internal/middleware"
)

// Routes registers the API and wraps it with Sentry, security headers and
// CORS. ctx bounds the metrics cache refresher.
//
//	GET /v1/healthcheck
//	GET /metrics
//	GET /v1/places
//	GET /v1/route
//	GET /v1/route/proximity
//	GET /v1/route/stations
//	GET /v1/datasets
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second))

	router.HandlerFunc(http.MethodGet, "/v1/places", app.placesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/route", app.routeHandler)
	router.HandlerFunc(http.MethodGet, "/v1/route/proximity", app.proximityHandler)
	router.HandlerFunc(http.MethodGet, "/v1/route/stations", app.stationsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/datasets", app.datasetsHandler)

	origins := app.ConfigService.Config.GetSettings().CORS.AllowedOrigins
	handler := middleware.CORS(origins, router)
	handler = middleware.SecurityHeaders(handler)
	return middleware.SentryMiddleware(handler)
}
