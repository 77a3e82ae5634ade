package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CkanApiStatus API Status (up/down) per CKAN action
	CkanApiStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ckan_api_status",
			Help: "Status of the open data CKAN API (0 = not working, 1 = working)",
		},
		[]string{"action"},
	)
)

var (
	RecordsFetched = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ckan_records_fetched",
		Help: "Number of records returned by the last datastore_search call",
	}, []string{"resource_id"})

	StationsWithCoordinates = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stations_with_coordinates",
		Help: "Number of records with a usable latitude/longitude",
	}, []string{"resource_id"})

	StationsSkipped = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stations_skipped",
		Help: "Number of records dropped because their coordinate was missing or out of range",
	}, []string{"resource_id"})

	SourceFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "station_source_fallback_total",
		Help: "Number of times station records were served from the on-disk snapshot",
	}, []string{"resource_id"})
)

var (
	RouteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_requests_total",
		Help: "Route planner requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	RouteDistanceKm = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_distance_km",
		Help:    "Straight-line distance of planned routes in kilometers",
		Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 50},
	})

	NearStationsCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "near_stations_count",
		Help: "Number of stations found near the last analyzed route",
	}, []string{"resource_id"})
)

var (
	OutgoingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_outgoing_request_duration_seconds",
		Help:    "Latency of outgoing HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"url", "method", "status"})
)
