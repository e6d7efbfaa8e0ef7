package openmeteo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
	"github.com/couchcryptid/wildfire-data-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

const cacheHourLayout = "2006-01-02T15"

// CachedProvider wraps a WindProvider with an in-memory LRU cache keyed on
// the UTC forecast hour and coordinates rounded to 0.01°. Entries from past
// hours are never served and age out of the LRU.
type CachedProvider struct {
	inner   domain.WindProvider
	cache   *lruCache
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// CacheOption configures a CachedProvider.
type CacheOption func(*CachedProvider)

// WithCacheClock sets the clock that decides the current forecast hour. It
// should match the clock of the wrapped client.
func WithCacheClock(clock clockwork.Clock) CacheOption {
	return func(c *CachedProvider) { c.clock = clock }
}

// NewCachedProvider creates a cache decorator around a wind provider.
func NewCachedProvider(inner domain.WindProvider, maxEntries int, metrics *observability.Metrics, opts ...CacheOption) *CachedProvider {
	c := &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedProvider) CurrentWind(ctx context.Context, lat, lon float64) (domain.Wind, error) {
	key := cacheKey(c.clock.Now(), lat, lon)
	if wind, ok := c.cache.get(key); ok {
		c.metrics.WindCache.WithLabelValues("hit").Inc()
		return wind, nil
	}
	c.metrics.WindCache.WithLabelValues("miss").Inc()

	wind, err := c.inner.CurrentWind(ctx, lat, lon)
	if err != nil {
		return wind, err
	}
	c.cache.put(key, wind)
	return wind, nil
}

func cacheKey(now time.Time, lat, lon float64) string {
	return fmt.Sprintf("%s|%.2f,%.2f", now.UTC().Format(cacheHourLayout), lat, lon)
}

// lruCache is a simple thread-safe LRU cache for wind samples.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Wind
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Wind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Wind{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Wind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
