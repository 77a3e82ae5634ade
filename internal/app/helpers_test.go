package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"rainroute.motoclima.co/internal/config"
)

const fakeDatastoreBody = `{"success": true, "result": {
	"resource_id": "rain",
	"fields": [{"id": "estacion", "type": "text"}, {"id": "latitud", "type": "numeric"}, {"id": "longitud", "type": "numeric"}],
	"records": [
		{"estacion": "Modelia", "latitud": 4.6892, "longitud": -74.1063},
		{"estacion": "Suba", "latitud": 4.7475, "longitud": -74.0814},
		{"estacion": "Destino", "latitud": 4.6097, "longitud": -74.0817},
		{"estacion": "Sin coordenadas"}
	],
	"total": 4
}}`

const fakeSearchBody = `{"success": true, "result": {"count": 1, "results": [
	{"id": "1", "name": "precipitacion-diaria-sab", "title": "Precipitación diaria SAB", "metadata_modified": "2025-05-02T10:15:00.000000", "resources": []}
]}}`

// fakeCKAN serves the two actions the API needs.
func fakeCKAN() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/datastore_search":
			w.Write([]byte(fakeDatastoreBody))
		case "/package_search":
			w.Write([]byte(fakeSearchBody))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success": false, "error": {"message": "Not found", "__type": "Not Found Error"}}`))
		}
	})
}

func failingCKAN() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
}

func newTestApplication(t *testing.T, upstream http.Handler) *Application {
	t.Helper()

	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	settings := config.DefaultSettings()
	settings.CKAN.BaseURL = ts.URL
	settings.CKAN.RainResourceID = "rain"
	settings.CKAN.MaxRetries = 0

	cfg := config.NewConfig(4000, "testing", t.TempDir(), settings)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(cfg, logger, ts.Client(), "test-version")
}

// serve sends a GET for target through the full middleware chain.
func serve(t *testing.T, app *Application, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	app.Routes(ctx).ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
