package app

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"rainroute.motoclima.co/internal/metrics"
)

// latencyTrackingRoundTripper records the duration of every outgoing
// request in metrics.OutgoingLatency.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	// Query strings carry SQL and filters; keep the label set bounded.
	safeURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	metrics.OutgoingLatency.WithLabelValues(safeURL, req.Method, status).Observe(duration)

	return resp, err
}

// NewPooledClient returns the instrumented HTTP client shared by the CKAN
// client and the remote config loader. timeout bounds each request
// end to end.
func NewPooledClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: &latencyTrackingRoundTripper{next: transport},
		Timeout:   timeout,
	}
}
