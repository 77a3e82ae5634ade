// Command sabprobe checks connectivity with the Bogotá open data portal and
// the rainfall datastore resource.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"rainroute.motoclima.co/internal/app"
	"rainroute.motoclima.co/internal/ckan"
	"rainroute.motoclima.co/internal/config"
)

func main() {
	_ = godotenv.Load()

	settings := config.LoadDefaults()

	var (
		baseURL    = flag.String("base-url", settings.CKAN.BaseURL, "CKAN action API root")
		resourceID = flag.String("resource-id", settings.CKAN.RainResourceID, "Rainfall datastore resource")
		timeout    = flag.Duration("timeout", 60*time.Second, "Overall probe timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := ckan.NewClient(*baseURL, app.NewPooledClient(settings.CKAN.Timeout()), settings.CKAN.UserAgent, 0)
	passed, total := runChecks(ctx, client, *resourceID, os.Stdout)
	if passed != total {
		os.Exit(1)
	}
}
