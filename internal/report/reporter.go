package report

import (
	"errors"
	"os"
	"runtime"

	"github.com/getsentry/sentry-go"
)

// Tagger is implemented by errors that know how they should be grouped in
// Sentry, for example an upstream API error carrying its action and status.
type Tagger interface {
	SentryTags() map[string]string
}

// SentryReportOptions provides optional data for reporting.
type SentryReportOptions struct {
	ExtraContext map[string]interface{}
	Tags         map[string]string
	Level        sentry.Level
	// Fingerprint overrides Sentry's default grouping when set.
	Fingerprint []string
}

// ConfigureScope sets the process-wide tags attached to every event.
func ConfigureScope(env, version string) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(map[string]string{
			"service":     "rainroute",
			"env":         env,
			"app_version": version,
			"go_version":  runtime.Version(),
		})
		scope.SetContext("host_info", map[string]interface{}{
			"hostname": hostname,
			"goarch":   runtime.GOARCH,
		})
	})
}

// ReportError reports err at the given level, LevelError when omitted.
func ReportError(err error, levels ...sentry.Level) {
	opts := SentryReportOptions{Level: sentry.LevelError}
	if len(levels) > 0 {
		opts.Level = levels[0]
	}
	ReportErrorWithSentryOptions(err, opts)
}

// ReportErrorWithSentryOptions reports err with extra tags, context, level
// and grouping. Tags exposed by a Tagger anywhere in the error chain are
// added first so explicit options win.
func ReportErrorWithSentryOptions(err error, opts SentryReportOptions) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		var tagged Tagger
		if errors.As(err, &tagged) {
			scope.SetTags(tagged.SentryTags())
		}
		scope.SetTags(opts.Tags)
		if opts.ExtraContext != nil {
			scope.SetContext("extra", opts.ExtraContext)
		}
		if opts.Level != "" {
			scope.SetLevel(opts.Level)
		}
		if len(opts.Fingerprint) > 0 {
			scope.SetFingerprint(opts.Fingerprint)
		}
		sentry.CaptureException(err)
	})
}

// ReportUpstreamError reports a failed fetch of an open-data resource as a
// warning, grouped per resource so a flapping portal yields one issue.
func ReportUpstreamError(err error, resourceID string, extra map[string]interface{}) {
	ReportErrorWithSentryOptions(err, SentryReportOptions{
		Tags:         map[string]string{"resource_id": resourceID},
		ExtraContext: extra,
		Level:        sentry.LevelWarning,
		Fingerprint:  []string{"upstream", resourceID},
	})
}
