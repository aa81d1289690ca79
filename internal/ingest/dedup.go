package ingest

import (
	"sync"
	"time"
)

const defaultMaxTracked = 50_000

// DedupCache remembers recently seen transaction signatures so provider
// redelivery of a batch cannot double-alert. Entries expire after the
// window; the cache is additionally size-bounded so a flood of unique
// signatures cannot grow it without limit.
type DedupCache struct {
	mu         sync.Mutex
	seen       map[string]time.Time
	window     time.Duration
	maxTracked int
	now        func() time.Time
}

func NewDedupCache(window time.Duration) *DedupCache {
	return &DedupCache{
		seen:       make(map[string]time.Time),
		window:     window,
		maxTracked: defaultMaxTracked,
		now:        time.Now,
	}
}

// Seen marks the signature as observed and reports whether it had
// already been observed inside the window.
func (c *DedupCache) Seen(signature string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.seen[signature]; ok && now.Sub(at) < c.window {
		return true
	}

	if len(c.seen) >= c.maxTracked {
		c.pruneLocked(now)
	}
	c.seen[signature] = now
	return false
}

// Len reports the number of tracked signatures.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *DedupCache) pruneLocked(now time.Time) {
	for sig, at := range c.seen {
		if now.Sub(at) >= c.window {
			delete(c.seen, sig)
		}
	}
	// Still full means everything is inside the window; drop arbitrary
	// entries rather than grow. Worst case is one duplicate alert
	// suppressed by the registry claim anyway.
	if len(c.seen) >= c.maxTracked {
		for sig := range c.seen {
			delete(c.seen, sig)
			if len(c.seen) < c.maxTracked/2 {
				break
			}
		}
	}
}
