package report

import (
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// SetupSentry initializes the Sentry client from SENTRY_DSN. An empty DSN
// leaves the client disabled, so events are dropped silently.
func SetupSentry(env, release string) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("SENTRY_DSN"),
		Environment:      env,
		Release:          release,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	sentry.CaptureMessage("Rainroute started")
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
