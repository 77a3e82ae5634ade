package trip

import (
	"errors"
	"math"
	"testing"

	"rainroute.motoclima.co/internal/geo"
)

func TestEstimateMinutes(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		speedKmh   float64
		want       float64
		wantErr    bool
	}{
		{"default speed", 25, DefaultSpeedKmh, 60, false},
		{"zero distance", 0, 30, 0, false},
		{"slow traffic", 10, 15, 40, false},
		{"zero speed", 10, 0, 0, true},
		{"negative speed", 10, -5, 0, true},
		{"NaN speed", 10, math.NaN(), 0, true},
		{"negative distance", -1, 25, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateMinutes(tt.distanceKm, tt.speedKmh)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimateMinutes(%v, %v) = %v, want %v", tt.distanceKm, tt.speedKmh, got, tt.want)
			}
		})
	}

	if _, err := EstimateMinutes(1, 0); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("expected ErrInvalidSpeed, got %v", err)
	}
}

func TestClampSpeed(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, DefaultSpeedKmh},
		{math.NaN(), DefaultSpeedKmh},
		{5, MinSpeedKmh},
		{25, 25},
		{80, MaxSpeedKmh},
	}
	for _, tt := range tests {
		if got := ClampSpeed(tt.in); got != tt.want {
			t.Errorf("ClampSpeed(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlan(t *testing.T) {
	route := geo.Route{
		Origin:      geo.Coordinate{Lat: 4.6892, Lon: -74.1063},
		Destination: geo.Coordinate{Lat: 4.6097, Lon: -74.0817},
	}

	summary, err := Plan(route, DefaultSpeedKmh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(summary.DistanceKm-9.3) > 0.5 {
		t.Errorf("expected distance of about 9.3 km, got %v", summary.DistanceKm)
	}
	wantMinutes := summary.DistanceKm / DefaultSpeedKmh * 60
	if math.Abs(summary.Minutes-wantMinutes) > 1e-9 {
		t.Errorf("expected %v minutes, got %v", wantMinutes, summary.Minutes)
	}
	if len(summary.Path) != 2 || summary.Path[0] != route.Origin || summary.Path[1] != route.Destination {
		t.Errorf("unexpected path %v", summary.Path)
	}
	if summary.Center.Lat > route.Origin.Lat || summary.Center.Lat < route.Destination.Lat {
		t.Errorf("center %v is not between the endpoints", summary.Center)
	}
}

func TestPlanOutOfRange(t *testing.T) {
	route := geo.Route{
		Origin:      geo.Coordinate{Lat: 91, Lon: 0},
		Destination: geo.Coordinate{Lat: 0, Lon: 0},
	}
	if _, err := Plan(route, DefaultSpeedKmh); !errors.Is(err, geo.ErrOutOfRangeCoordinate) {
		t.Fatalf("expected ErrOutOfRangeCoordinate, got %v", err)
	}
}
