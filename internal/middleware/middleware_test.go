package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCachedPromHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_cached_scrapes_total",
		Help: "Counter used by the cached handler test",
	})
	registry.MustRegister(counter)
	counter.Inc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewCachedPromHandler(ctx, registry, time.Hour)
	if h.BuiltAt().IsZero() {
		t.Fatal("expected the cache to be primed")
	}

	counter.Inc()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "test_cached_scrapes_total 1") {
		t.Errorf("expected cached value 1, got:\n%s", rr.Body.String())
	}

	h.rebuild()
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "test_cached_scrapes_total 2") {
		t.Errorf("expected refreshed value 2, got:\n%s", rr.Body.String())
	}
}

func TestCachedPromHandlerKeepsLastGoodBody(t *testing.T) {
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_cached_gauge", Help: "Gauge used by the cached handler test"})
	registry.MustRegister(gauge)
	gauge.Set(7)

	failing := false
	gatherer := prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		if failing {
			return nil, errors.New("gather failed")
		}
		return registry.Gather()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewCachedPromHandler(ctx, gatherer, time.Hour)
	builtAt := h.BuiltAt()

	failing = true
	h.rebuild()
	if !h.BuiltAt().Equal(builtAt) {
		t.Error("expected a failed gathering to keep the previous build time")
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "test_cached_gauge 7") {
		t.Errorf("expected the last good exposition, got:\n%s", rr.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	SecurityHeaders(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/places", nil))

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected wrapped handler status, got %d", rr.Code)
	}
	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"Cache-Control":                "no-store",
		"Cross-Origin-Resource-Policy": "cross-origin",
		"X-Frame-Options":              "DENY",
	}
	for k, v := range want {
		if got := rr.Header().Get(k); got != v {
			t.Errorf("header %s = %q, want %q", k, got, v)
		}
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"wildcard", nil, "https://mapa.example.com", "*"},
		{"listed origin", []string{"https://mapa.example.com"}, "https://mapa.example.com", "https://mapa.example.com"},
		{"unlisted origin", []string{"https://mapa.example.com"}, "https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/route", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			CORS(tt.allowed, next).ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSentryMiddlewarePassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rr := httptest.NewRecorder()
	SentryMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", rr.Code)
	}
}
