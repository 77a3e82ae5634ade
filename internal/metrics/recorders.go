package metrics

// SetApiStatus records whether the last call to a CKAN action succeeded.
func SetApiStatus(action string, ok bool) {
	CkanApiStatus.WithLabelValues(action).Set(boolToFloat(ok))
}

// RecordStationExtraction exposes how many records of a datastore page were
// usable as stations.
func RecordStationExtraction(resourceID string, records, kept, skipped int) {
	RecordsFetched.WithLabelValues(resourceID).Set(float64(records))
	StationsWithCoordinates.WithLabelValues(resourceID).Set(float64(kept))
	StationsSkipped.WithLabelValues(resourceID).Set(float64(skipped))
}

// RecordRouteRequest counts a request to one of the route endpoints.
func RecordRouteRequest(endpoint string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RouteRequests.WithLabelValues(endpoint, outcome).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
