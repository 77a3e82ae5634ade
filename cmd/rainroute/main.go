package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"rainroute.motoclima.co/internal/app"
	"rainroute.motoclima.co/internal/config"
	"rainroute.motoclima.co/internal/report"
	"rainroute.motoclima.co/internal/utils"
)

const version = "1.0.0"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var (
		port       = flag.Int("port", 4000, "API server port")
		env        = flag.String("env", "development", "Environment (development|staging|production)")
		configFile = flag.String("config-file", "", "Path to a local YAML settings file")
		configURL  = flag.String("config-url", "", "URL to a remote YAML settings file")
		cacheDir   = flag.String("cache-dir", "cache", "Directory for upstream snapshots")
	)
	flag.Parse()

	if err := config.ValidateConfigFlags(configFile, configURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	configAuthUser := os.Getenv("CONFIG_AUTH_USER")
	configAuthPass := os.Getenv("CONFIG_AUTH_PASS")

	report.SetupSentry(*env, version)
	defer report.FlushSentry()
	report.ConfigureScope(*env, version)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap := config.DefaultSettings()
	client := app.NewPooledClient(bootstrap.CKAN.Timeout())

	var (
		settings config.Settings
		err      error
	)
	switch {
	case *configFile != "":
		settings, err = config.LoadConfigFromFile(*configFile)
	case *configURL != "":
		settings, err = config.LoadConfigFromURL(ctx, client, *configURL, configAuthUser, configAuthPass, bootstrap.CKAN.MaxRetries)
	default:
		logger.Info("No configuration source given, using built-in settings")
		settings = config.LoadDefaults()
	}
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		report.FlushSentry()
		os.Exit(1)
	}

	if err := utils.CreateCacheDirectory(*cacheDir); err != nil {
		logger.Error("Failed to create cache directory", "cache_dir", *cacheDir, "error", err)
		os.Exit(1)
	}

	cfg := config.NewConfig(*port, *env, *cacheDir, settings)
	client.Timeout = settings.CKAN.Timeout()

	application := app.New(cfg, logger, client, version)

	go application.StartStationRefresh(ctx, time.Duration(settings.Stations.RainTTLSeconds)*time.Second)

	if *configURL != "" {
		go application.ConfigService.RefreshConfig(ctx, *configURL, configAuthUser, configAuthPass, time.Minute)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "upstream", settings.CKAN.BaseURL)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			report.ReportError(err, sentry.LevelFatal)
			report.FlushSentry()
			logger.Error("Server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}
	}
}
