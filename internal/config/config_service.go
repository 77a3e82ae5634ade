package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"rainroute.motoclima.co/internal/report"
	"rainroute.motoclima.co/internal/utils"
)

// ConfigService holds dependencies and provides config operations.
type ConfigService struct {
	Logger *slog.Logger
	Client *http.Client
	Config *Config
}

// NewConfigService creates a new ConfigService instance with the provided logger and HTTP client.
func NewConfigService(logger *slog.Logger, client *http.Client, config *Config) *ConfigService {
	return &ConfigService{
		Logger: logger,
		Client: client,
		Config: config,
	}
}

// RefreshConfig blocks, reloading the remote settings every interval until
// ctx is cancelled.
func (cs *ConfigService) RefreshConfig(ctx context.Context, url, authUser, authPass string, interval time.Duration) {
	maxRetries := cs.Config.GetSettings().CKAN.MaxRetries
	refreshConfig(ctx, cs.Client, url, authUser, authPass, cs.Config, cs.Logger, interval, maxRetries)
}

// LoadConfigFromFile loads settings from a file.
func LoadConfigFromFile(filePath string) (Settings, error) {
	settings, err := loadConfigFromFile(filePath)
	if err != nil {
		err := fmt.Errorf("failed to load config from file %s: %w", filePath, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}
	ApplyEnv(&settings)
	return settings, nil
}

// LoadConfigFromURL loads settings from a remote URL.
func LoadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) (Settings, error) {
	settings, err := loadConfigFromURL(ctx, client, url, authUser, authPass, maxRetries)
	if err != nil {
		err := fmt.Errorf("failed to load config from URL %s: %w", url, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}
	ApplyEnv(&settings)
	return settings, nil
}

// LoadDefaults returns the built-in settings with environment overrides.
func LoadDefaults() Settings {
	settings := DefaultSettings()
	ApplyEnv(&settings)
	return settings
}
