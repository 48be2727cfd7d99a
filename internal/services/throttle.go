package services

import (
	"sync"
	"time"
)

// keyedThrottle enforces a minimum interval between refreshes per key, so
// polling one charge point never suppresses another.
type keyedThrottle struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func newKeyedThrottle(interval time.Duration) *keyedThrottle {
	return &keyedThrottle{
		interval: interval,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether a refresh for key may run now and, if so, records
// the attempt. An attempt counts against the window whether or not the
// refresh succeeds; a failed one is retried on the next poll cycle.
func (t *keyedThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[key] = now
	return true
}
