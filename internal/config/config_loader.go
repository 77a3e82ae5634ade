package config

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	"rainroute.motoclima.co/internal/report"
	"rainroute.motoclima.co/internal/utils"
)

var validate = validator.New()

// ValidateConfigFlags ensures that at most one configuration source is
// specified: a config file "--config-file" or a remote config URL
// "--config-url". With neither, the built-in defaults are used.
func ValidateConfigFlags(configFile, configURL *string) error {
	if (*configFile != "" && *configURL != "") || (*configFile != "" && len(flag.Args()) > 0) || (*configURL != "" && len(flag.Args()) > 0) {
		return fmt.Errorf("only one of --config-file or --config-url can be specified")
	}
	return nil
}

// ParseSettings decodes a YAML (or JSON) settings document on top of
// DefaultSettings and validates the result.
func ParseSettings(data []byte) (Settings, error) {
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := validate.Struct(settings); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// ApplyEnv overrides settings from the environment.
func ApplyEnv(settings *Settings) {
	if baseURL := os.Getenv("CKAN_BASE_URL"); baseURL != "" {
		settings.CKAN.BaseURL = baseURL
	}
}

// refreshConfig periodically fetches the settings document from a remote
// URL and swaps it into cfg.
//
// Errors during fetch or parse are logged and reported to Sentry, but the loop continues,
// ensuring resiliency in the presence of transient issues.
//
// The routine stops gracefully when the context is canceled.
func refreshConfig(ctx context.Context, client *http.Client, configURL, configAuthUser, configAuthPass string, cfg *Config, logger *slog.Logger, interval time.Duration, maxRetries int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping config refresh routine")
			return
		case <-ticker.C:
			settings, err := loadConfigFromURL(ctx, client, configURL, configAuthUser, configAuthPass, maxRetries)
			if err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Tags:  utils.MakeMap("config_url", configURL),
					Level: sentry.LevelError,
				})
				logger.Error("Failed to refresh remote config", "error", err)
				continue
			}
			ApplyEnv(&settings)
			cfg.UpdateConfig(settings)
			logger.Info("Successfully refreshed configuration")
		}
	}
}

// loadConfigFromFile reads a settings document from disk.
//
// This function is used when the application is configured to load its
// settings from a static file using the --config-file flag.
func loadConfigFromFile(filePath string) (Settings, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to read config file: %w", err)
	}

	settings, err := ParseSettings(data)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}

	return settings, nil
}

// loadConfigFromURL fetches a settings document from a remote HTTP(S)
// endpoint, using the provided client and optional basic authentication.
func loadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) (Settings, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to create request: %w", err)
	}

	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to fetch remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("remote config returned status: %d", resp.StatusCode)
		report.ReportErrorWithSentryOptions(statusErr, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, statusErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to read remote config: %w", err)
	}

	settings, err := ParseSettings(data)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}

	return settings, nil
}
