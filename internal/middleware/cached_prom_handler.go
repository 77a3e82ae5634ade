package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

var textFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

// CachedPromHandler serves a text exposition of the gatherer that is
// rebuilt at most once per ttl, so concurrent scrapes share one gathering.
type CachedPromHandler struct {
	mu       sync.RWMutex
	body     []byte
	builtAt  time.Time
	ttl      time.Duration
	gatherer prometheus.Gatherer
	live     http.Handler
}

// NewCachedPromHandler primes the cache and keeps it fresh until ctx is done.
func NewCachedPromHandler(ctx context.Context, gatherer prometheus.Gatherer, ttl time.Duration) *CachedPromHandler {
	c := &CachedPromHandler{
		ttl:      ttl,
		gatherer: gatherer,
		live:     promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
	c.rebuild()

	go c.refreshLoop(ctx)
	return c
}

func (c *CachedPromHandler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.rebuild()
		}
	}
}

// rebuild gathers a fresh exposition. A failed gathering keeps the last
// good body.
func (c *CachedPromHandler) rebuild() {
	families, err := c.gatherer.Gather()
	if err != nil {
		return
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, textFormat)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}

	c.mu.Lock()
	c.body = buf.Bytes()
	c.builtAt = time.Now()
	c.mu.Unlock()
}

// BuiltAt returns when the cached exposition was gathered.
func (c *CachedPromHandler) BuiltAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builtAt
}

func (c *CachedPromHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	body := c.body
	c.mu.RUnlock()

	if len(body) == 0 {
		c.live.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", string(textFormat))
	_, _ = w.Write(body)
}
