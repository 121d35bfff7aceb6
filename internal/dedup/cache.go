// Package dedup suppresses re-capture of recently seen content.
package dedup

import (
	"sync"
	"time"
)

const (
	// retention is how long an entry stays in the cache before it is
	// pruned opportunistically on the next check.
	retention = time.Hour
	// cooldown is the window during which identical content is treated
	// as a duplicate. It absorbs re-copies of the same clipboard snippet
	// across polling ticks without suppressing legitimate re-use later.
	cooldown = 5 * time.Minute
)

// Cache is a time-windowed membership structure over recently captured
// content. Safe for concurrent use; the lock is held only across the
// in-memory map mutation.
type Cache struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewCache() *Cache {
	return &Cache{lastSeen: make(map[string]time.Time)}
}

// ShouldCapture reports whether content should be persisted now.
// Entries older than one hour are pruned first. Content seen within the
// cooldown window is a duplicate and its last-seen instant is NOT refreshed,
// so a steady stream of re-copies still ages out of the window eventually.
// On true the content is recorded as seen at now.
func (c *Cache) ShouldCapture(content string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, seen := range c.lastSeen {
		if now.Sub(seen) > retention {
			delete(c.lastSeen, k)
		}
	}

	if seen, ok := c.lastSeen[content]; ok && now.Sub(seen) < cooldown {
		return false
	}

	c.lastSeen[content] = now
	return true
}

// Len returns the number of tracked entries. Used by tests and status output.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lastSeen)
}
