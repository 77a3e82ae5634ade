package stations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"rainroute.motoclima.co/internal/ckan"
)

var errUpstream = errors.New("upstream down")

// fakeFetcher returns canned CKAN results and counts calls.
type fakeFetcher struct {
	mu        sync.Mutex
	result    ckan.DatastoreResult
	search    ckan.SearchResult
	err       error
	calls     int
	lastQuery ckan.DatastoreQuery
}

func (f *fakeFetcher) DatastoreSearch(ctx context.Context, q ckan.DatastoreQuery) (ckan.DatastoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastQuery = q
	if err := ctx.Err(); err != nil {
		return ckan.DatastoreResult{}, err
	}
	if f.err != nil {
		return ckan.DatastoreResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeFetcher) PackageSearch(_ context.Context, _ string, _ int) (ckan.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return ckan.SearchResult{}, f.err
	}
	return f.search, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterValue(metric *prometheus.CounterVec, labels ...string) float64 {
	pb := &dto.Metric{}
	if err := metric.WithLabelValues(labels...).Write(pb); err != nil {
		return -1
	}
	return pb.GetCounter().GetValue()
}

func gaugeValue(metric *prometheus.GaugeVec, labels ...string) float64 {
	pb := &dto.Metric{}
	if err := metric.WithLabelValues(labels...).Write(pb); err != nil {
		return -1
	}
	return pb.GetGauge().GetValue()
}
