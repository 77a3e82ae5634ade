package config

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const validSettings = `
ckan:
  base_url: https://ckan.example.com/api/3/action
  rain_resource_id: rain-123
  record_limit: 50
route:
  speed_kmh: 30
  destination:
    name: chapinero
    lat: 4.6533
    lon: -74.0653
stations:
  lat_field: lat
  lon_field: lon
places:
  - name: suba
    lat: 4.7475
    lon: -74.0814
`

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}
	return path
}

func TestParseSettings(t *testing.T) {
	t.Run("ValidYAML", func(t *testing.T) {
		settings, err := ParseSettings([]byte(validSettings))
		if err != nil {
			t.Fatalf("ParseSettings failed: %v", err)
		}

		if settings.CKAN.BaseURL != "https://ckan.example.com/api/3/action" {
			t.Errorf("Unexpected base URL %q", settings.CKAN.BaseURL)
		}
		if settings.CKAN.RecordLimit != 50 {
			t.Errorf("Expected record limit 50, got %d", settings.CKAN.RecordLimit)
		}
		// Fields missing from the document keep their defaults.
		if settings.CKAN.UserAgent != "BogotaRainPredictor/1.0" {
			t.Errorf("Expected default user agent, got %q", settings.CKAN.UserAgent)
		}
		if settings.Route.Origin.Name != "modelia" {
			t.Errorf("Expected default origin, got %+v", settings.Route.Origin)
		}
		if settings.Route.Destination.Name != "chapinero" {
			t.Errorf("Expected chapinero destination, got %+v", settings.Route.Destination)
		}
		if settings.Route.PointToleranceKm != 1.0 || settings.Route.StationToleranceKm != 2.0 {
			t.Errorf("Expected default tolerances, got %v and %v", settings.Route.PointToleranceKm, settings.Route.StationToleranceKm)
		}
		if len(settings.Places) != 1 || settings.Places[0].Name != "suba" {
			t.Errorf("Expected places to be replaced, got %+v", settings.Places)
		}
	})

	t.Run("JSONIsAccepted", func(t *testing.T) {
		settings, err := ParseSettings([]byte(`{"ckan": {"record_limit": 10}}`))
		if err != nil {
			t.Fatalf("ParseSettings failed: %v", err)
		}
		if settings.CKAN.RecordLimit != 10 {
			t.Errorf("Expected record limit 10, got %d", settings.CKAN.RecordLimit)
		}
	})

	invalid := []struct {
		name    string
		content string
	}{
		{"InvalidYAML", "ckan: [this is not: valid"},
		{"InvalidURL", "ckan:\n  base_url: not a url\n"},
		{"SpeedOutOfRange", "route:\n  speed_kmh: 90\n"},
		{"NegativeTolerance", "route:\n  station_tolerance_km: -1\n"},
		{"PlaceOutOfRange", "places:\n  - name: nowhere\n    lat: 120\n    lon: 0\n"},
		{"PlaceWithoutName", "places:\n  - lat: 4.6\n    lon: -74.1\n"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSettings([]byte(tt.content)); err == nil {
				t.Errorf("Expected error, got none")
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		settings, err := loadConfigFromFile(writeTempFile(t, validSettings))
		if err != nil {
			t.Fatalf("loadConfigFromFile failed: %v", err)
		}
		if settings.Route.SpeedKmh != 30 {
			t.Errorf("Expected speed 30, got %v", settings.Route.SpeedKmh)
		}
	})

	t.Run("InvalidContent", func(t *testing.T) {
		_, err := loadConfigFromFile(writeTempFile(t, "{ this is not valid }: ["))
		if err == nil {
			t.Errorf("Expected error with invalid content, got none")
		}
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		_, err := loadConfigFromFile("non-existent-file.yaml")
		if err == nil {
			t.Errorf("Expected error for non-existent file, got none")
		}
	})
}

func TestLoadConfigFromURL(t *testing.T) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	ctx := context.Background()

	t.Run("ValidResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "user" || pass != "pass" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/yaml")
			w.Write([]byte(validSettings))
		}))
		defer ts.Close()

		settings, err := loadConfigFromURL(ctx, client, ts.URL, "user", "pass", 0)
		if err != nil {
			t.Fatalf("loadConfigFromURL failed: %v", err)
		}
		if settings.CKAN.RainResourceID != "rain-123" {
			t.Errorf("Expected resource rain-123, got %q", settings.CKAN.RainResourceID)
		}
	})

	t.Run("ErrorResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer ts.Close()

		_, err := loadConfigFromURL(ctx, client, ts.URL, "", "", 0)
		if err == nil || !strings.Contains(err.Error(), "403") {
			t.Errorf("Expected status error with 403 response, got %v", err)
		}
	})

	t.Run("ServerErrorRetried", func(t *testing.T) {
		retryBaseDelay = time.Millisecond
		var hits atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(validSettings))
		}))
		defer ts.Close()

		if _, err := loadConfigFromURL(ctx, client, ts.URL, "", "", 2); err != nil {
			t.Fatalf("Expected retry to succeed, got %v", err)
		}
		if hits.Load() != 2 {
			t.Errorf("Expected 2 requests, got %d", hits.Load())
		}
	})

	t.Run("InvalidSettingsResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ckan:\n  base_url: nope\n"))
		}))
		defer ts.Close()

		_, err := loadConfigFromURL(ctx, client, ts.URL, "", "", 0)
		if err == nil {
			t.Errorf("Expected error for invalid settings response, got none")
		}
	})

	t.Run("InvalidURL", func(t *testing.T) {
		_, err := loadConfigFromURL(ctx, client, "://invalid-url", "", "", 0)
		if err == nil || !strings.Contains(err.Error(), "failed to create request") {
			t.Errorf("Expected request creation error, got: %v", err)
		}
	})
}

func TestValidateConfigFlags(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		configURL   string
		extraArgs   []string
		expectError bool
	}{
		{"No config uses defaults", "", "", nil, false},
		{"Valid local config", "config.yaml", "", nil, false},
		{"Valid remote config", "", "http://example.com/config.yaml", nil, false},
		{"Both config file and URL", "config.yaml", "http://example.com/config.yaml", nil, true},
		{"Config file with extra args", "config.yaml", "", []string{"extraArg"}, true},
		{"Config URL with extra args", "", "http://example.com/config.yaml", []string{"extraArg"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(tt.name, flag.ContinueOnError)
			var output bytes.Buffer
			flag.CommandLine.SetOutput(&output)

			configFile := flag.String("config-file", "", "Path to config file")
			configURL := flag.String("config-url", "", "URL to config")

			args := []string{"cmd"}
			if tt.configFile != "" {
				args = append(args, "--config-file="+tt.configFile)
			}
			if tt.configURL != "" {
				args = append(args, "--config-url="+tt.configURL)
			}
			args = append(args, tt.extraArgs...)

			os.Args = args
			flag.CommandLine.Parse(args[1:])

			err := ValidateConfigFlags(configFile, configURL)

			if (err != nil) != tt.expectError {
				t.Errorf("Expected error: %v, got: %v", tt.expectError, err)
			}
			if err != nil && !strings.Contains(err.Error(), "only one of --config-file or --config-url") {
				t.Errorf("Unexpected error message: %v", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CKAN_BASE_URL", "https://mirror.example.com/api/3/action")
	settings := DefaultSettings()
	ApplyEnv(&settings)
	if settings.CKAN.BaseURL != "https://mirror.example.com/api/3/action" {
		t.Errorf("Expected env override, got %q", settings.CKAN.BaseURL)
	}
}

func TestRefreshConfig(t *testing.T) {
	cfg := NewConfig(4000, "testing", t.TempDir(), DefaultSettings())

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var serverHitCount atomic.Int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHitCount.Add(1)

		user, pass, hasAuth := r.BasicAuth()
		if hasAuth && (user != "testuser" || pass != "testpass") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		fmt.Fprint(w, "ckan:\n  rain_resource_id: refreshed-resource\n")
	}))
	defer mockServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refreshConfig(ctx, client, mockServer.URL, "testuser", "testpass", cfg, testLogger, 20*time.Millisecond, 0)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cfg.GetSettings().CKAN.RainResourceID == "refreshed-resource" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if serverHitCount.Load() == 0 {
		t.Fatal("Mock server was never called")
	}
	if got := cfg.GetSettings().CKAN.RainResourceID; got != "refreshed-resource" {
		t.Errorf("Config not updated with refreshed settings, resource is %q", got)
	}
}
