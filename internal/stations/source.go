package stations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/getsentry/sentry-go"
	gocache "github.com/patrickmn/go-cache"
	"rainroute.motoclima.co/internal/ckan"
	"rainroute.motoclima.co/internal/config"
	"rainroute.motoclima.co/internal/metrics"
	"rainroute.motoclima.co/internal/report"
	"rainroute.motoclima.co/internal/utils"
)

// Where a page of records came from.
const (
	OriginLive     = "live"
	OriginCache    = "cache"
	OriginSnapshot = "snapshot"
)

// ErrUnavailable is returned when upstream failed and no snapshot exists.
var ErrUnavailable = errors.New("station records unavailable")

// errBackingOff marks a call skipped because the resource is backing off.
var errBackingOff = errors.New("upstream is backing off")

// Fetcher is the part of the CKAN client the source needs.
type Fetcher interface {
	DatastoreSearch(ctx context.Context, q ckan.DatastoreQuery) (ckan.DatastoreResult, error)
	PackageSearch(ctx context.Context, query string, rows int) (ckan.SearchResult, error)
}

// Page is one datastore page together with its provenance.
type Page struct {
	Result    ckan.DatastoreResult `json:"result"`
	Origin    string               `json:"-"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// Source serves datastore pages from memory, upstream or the last snapshot
// on disk, in that order of preference.
type Source struct {
	client     Fetcher
	cache      *gocache.Cache
	backoff    *config.BackoffStore
	cacheDir   string
	rainTTL    time.Duration
	catalogTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewSource creates a Source. Snapshots are written under cacheDir; an
// empty cacheDir disables them.
func NewSource(client Fetcher, cacheDir string, rainTTL, catalogTTL time.Duration, logger *slog.Logger) *Source {
	return &Source{
		client:     client,
		cache:      gocache.New(rainTTL, 2*catalogTTL),
		backoff:    config.NewBackoffStore(),
		cacheDir:   cacheDir,
		rainTTL:    rainTTL,
		catalogTTL: catalogTTL,
		logger:     logger,
		now:        time.Now,
	}
}

func pageKey(q ckan.DatastoreQuery) string {
	filters, _ := json.Marshal(q.Filters)
	return "datastore:" + q.ResourceID + ":" + strconv.Itoa(q.Limit) + ":" + strconv.Itoa(q.Offset) + ":" + string(filters)
}

// Records returns the page selected by q.
func (s *Source) Records(ctx context.Context, q ckan.DatastoreQuery) (Page, error) {
	key := pageKey(q)
	if cached, ok := s.cache.Get(key); ok {
		page := cached.(Page)
		page.Origin = OriginCache
		return page, nil
	}

	var fetchErr error
	if s.backoff.ShouldWait(q.ResourceID, s.now()) {
		fetchErr = errBackingOff
	} else {
		result, err := s.client.DatastoreSearch(ctx, q)
		if err == nil {
			s.backoff.ResetBackoff(q.ResourceID)
			page := Page{Result: result, Origin: OriginLive, FetchedAt: s.now().UTC()}
			s.cache.Set(key, page, s.rainTTL)
			if err := s.writeSnapshot(q, page); err != nil {
				s.logger.Warn("Failed to write station snapshot", "resource_id", q.ResourceID, "error", err)
			}
			return page, nil
		}
		if ctx.Err() != nil {
			// Cancelled by the caller: no backoff, no report.
			return Page{}, err
		}
		fetchErr = err
		s.backoff.UpdateBackoff(q.ResourceID, s.now())
		report.ReportUpstreamError(err, q.ResourceID, nil)
		s.logger.Warn("Failed to fetch station records", "resource_id", q.ResourceID, "error", err)
	}

	page, err := s.readSnapshot(q)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v (snapshot: %v)", ErrUnavailable, fetchErr, err)
	}
	metrics.SourceFallbacks.WithLabelValues(q.ResourceID).Inc()
	s.logger.Info("Serving station records from snapshot", "resource_id", q.ResourceID, "fetched_at", page.FetchedAt)
	return page, nil
}

// Datasets searches the catalog. Results are cached for the catalog TTL.
func (s *Source) Datasets(ctx context.Context, query string, rows int) (ckan.SearchResult, error) {
	key := "catalog:" + query + ":" + strconv.Itoa(rows)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(ckan.SearchResult), nil
	}
	result, err := s.client.PackageSearch(ctx, query, rows)
	if err != nil {
		return ckan.SearchResult{}, err
	}
	s.cache.Set(key, result, s.catalogTTL)
	return result, nil
}

// snapshotName is unique per page, so a fallback never serves a page
// fetched with a different limit, offset or filters.
func snapshotName(q ckan.DatastoreQuery) string {
	return fmt.Sprintf("snapshot_%s_%016x", q.ResourceID, xxhash.Sum64String(pageKey(q)))
}

func (s *Source) writeSnapshot(q ckan.DatastoreQuery, page Page) error {
	if s.cacheDir == "" {
		return nil
	}
	if err := utils.CreateCacheDirectory(s.cacheDir); err != nil {
		return err
	}
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := filepath.Join(s.cacheDir, snapshotName(q)+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:         utils.MakeMap("resource_id", q.ResourceID),
			ExtraContext: map[string]interface{}{"snapshot_path": path},
			Level:        sentry.LevelError,
		})
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *Source) readSnapshot(q ckan.DatastoreQuery) (Page, error) {
	if s.cacheDir == "" {
		return Page{}, fmt.Errorf("snapshots disabled")
	}
	path, err := utils.GetLastCachedFile(s.cacheDir, snapshotName(q))
	if err != nil {
		return Page{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:         utils.MakeMap("resource_id", q.ResourceID),
			ExtraContext: map[string]interface{}{"snapshot_path": path},
			Level:        sentry.LevelError,
		})
		return Page{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	page.Origin = OriginSnapshot
	return page, nil
}
