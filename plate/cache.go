package plate

import (
	"time"
)

// DefaultCooldown is the minimum time between accepted emissions of the same
// plate text
const DefaultCooldown = 2 * time.Second

// DedupCache remembers when each plate text was last accepted so repeated
// readings of the same plate within the cooldown can be suppressed.  Entries
// older than the cooldown are evicted on access
type DedupCache struct {
	cooldown time.Duration
	seen     map[string]time.Time
}

// NewDedupCache returns an empty cache with the given cooldown
func NewDedupCache(cooldown time.Duration) *DedupCache {
	return &DedupCache{
		cooldown: cooldown,
		seen:     make(map[string]time.Time),
	}
}

// Cooldown returns the configured cooldown
func (c *DedupCache) Cooldown() time.Duration {
	return c.cooldown
}

// Allow reports whether text may be emitted at now.  A text accepted less
// than the cooldown ago is suppressed and its entry left untouched, otherwise
// the entry is set to now
func (c *DedupCache) Allow(text string, now time.Time) bool {

	c.evict(now)

	if last, ok := c.seen[text]; ok && now.Sub(last) < c.cooldown {
		return false
	}

	c.seen[text] = now
	return true
}

// Len returns the number of entries held
func (c *DedupCache) Len() int {
	return len(c.seen)
}

// Reset clears all entries
func (c *DedupCache) Reset() {
	c.seen = make(map[string]time.Time)
}

// evict removes entries that are no longer within the cooldown
func (c *DedupCache) evict(now time.Time) {
	for text, last := range c.seen {
		if now.Sub(last) >= c.cooldown {
			delete(c.seen, text)
		}
	}
}
