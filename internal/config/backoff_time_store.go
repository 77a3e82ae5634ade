package config

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	baseBackoff   = 1 * time.Second
	maxBackoff    = 2 * time.Minute
	backoffFactor = 2.0
	jitterFactor  = 0.5
)

type backoffEntry struct {
	failures    int
	nextRetryAt time.Time
}

// BackoffStore tracks, per upstream key (a CKAN resource id), how many
// consecutive fetches failed and when the next one is allowed.
type BackoffStore struct {
	mu      sync.RWMutex
	entries map[string]backoffEntry
}

func NewBackoffStore() *BackoffStore {
	return &BackoffStore{entries: make(map[string]backoffEntry)}
}

func (s *BackoffStore) NextRetryAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.nextRetryAt, true
}

// Failures returns the number of consecutive failures recorded for key.
func (s *BackoffStore) Failures(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key].failures
}

// ShouldWait reports whether key is still backing off at now.
func (s *BackoffStore) ShouldWait(key string, now time.Time) bool {
	next, ok := s.NextRetryAt(key)
	return ok && now.Before(next)
}

// UpdateBackoff records a failure observed at now and pushes the next
// allowed attempt out by a jittered exponential delay.
func (s *BackoffStore) UpdateBackoff(key string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key]
	e.failures++
	e.nextRetryAt = now.Add(withJitter(backoffDelay(e.failures))).UTC()
	s.entries[key] = e
}

func (s *BackoffStore) ResetBackoff(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// backoffDelay is the un-jittered delay after n consecutive failures.
func backoffDelay(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	d := float64(baseBackoff) * math.Pow(backoffFactor, float64(failures-1))
	if d >= float64(maxBackoff) {
		return maxBackoff
	}
	return time.Duration(d)
}

func withJitter(d time.Duration) time.Duration {
	d += time.Duration(rand.Float64() * float64(d) * jitterFactor)
	return min(d, maxBackoff)
}
