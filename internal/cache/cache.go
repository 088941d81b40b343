package cache

import (
	"strings"
	"sync"
	"time"

	"enhancer-backend/pkg/logger"
)

// Cache memoizes completed rewrites keyed by (action, normalized input).
// Last write wins; when the item count exceeds the limit the oldest entries
// are evicted first, and items past their TTL read as misses.
type Cache struct {
	mu       sync.Mutex
	items    map[string]item
	maxItems int
	ttl      time.Duration
	now      func() time.Time
}

type item struct {
	value     string
	createdAt time.Time
}

func New(maxItems int, ttl time.Duration) *Cache {
	return &Cache{
		items:    make(map[string]item),
		maxItems: maxItems,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Key derives the deterministic lookup key for an action and its input
// text. Input is normalized so equivalent texts share a slot.
func Key(action, input string) string {
	return action + "\x00" + normalize(input)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Get returns the cached value for (action, input), or "" and false on a
// miss or TTL expiry.
func (c *Cache) Get(action, input string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(action, input)
	it, ok := c.items[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(it.createdAt) > c.ttl {
		delete(c.items, key)
		return "", false
	}
	return it.value, true
}

// Set stores a completed result. Oldest-first eviction keeps the count at
// the limit.
func (c *Cache) Set(action, input, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(action, input)
	c.items[key] = item{value: value, createdAt: c.now()}

	for len(c.items) > c.maxItems {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for k, it := range c.items {
		if oldestKey == "" || it.createdAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = it.createdAt
		}
	}
	if oldestKey != "" {
		logger.Debugf("cache: evicting oldest entry (created %s)", oldestAt.Format(time.RFC3339))
		delete(c.items, oldestKey)
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
}
