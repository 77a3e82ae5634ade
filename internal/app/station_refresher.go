package app

import (
	"context"
	"errors"
	"time"

	"rainroute.motoclima.co/internal/report"
	"rainroute.motoclima.co/internal/stations"
)

// StartStationRefresh analyzes the default route every interval so the
// station metrics, the in-memory cache and the on-disk snapshot stay warm
// between requests. It returns when ctx is done.
func (app *Application) StartStationRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.refreshStations(ctx)
	for {
		select {
		case <-ctx.Done():
			app.Logger.Info("Stopping station refresh routine")
			return
		case <-ticker.C:
			app.refreshStations(ctx)
		}
	}
}

func (app *Application) refreshStations(ctx context.Context) {
	settings := app.ConfigService.Config.GetSettings()
	route := settings.Route.DefaultRoute()

	assessment, err := app.Analyzer.Analyze(ctx, route, settings.Route.StationToleranceKm, 0)
	if err != nil {
		app.Logger.Error("Failed to refresh stations", "resource_id", settings.CKAN.RainResourceID, "error", err)
		// The source already reported the upstream failure.
		if !errors.Is(err, stations.ErrUnavailable) && !errors.Is(err, context.Canceled) {
			report.ReportUpstreamError(err, settings.CKAN.RainResourceID, map[string]interface{}{
				"ckan_base_url": settings.CKAN.BaseURL,
			})
		}
		return
	}

	app.Logger.Info("Refreshed stations",
		"resource_id", settings.CKAN.RainResourceID,
		"source", assessment.Source,
		"records", assessment.RecordCount,
		"near", len(assessment.NearStations))
}
