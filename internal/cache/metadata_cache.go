package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/giantswarm/log-enricher/internal/metadata"
)

// DefaultTTL is the default time-to-live of a cached record.
const DefaultTTL = 900 * time.Second

// DefaultMaxEntries is the default capacity of the cache.
const DefaultMaxEntries = 1000

// Eviction reasons reported to MetricsCallback.
const (
	EvictionExpired = "expired"
	EvictionLRU     = "lru"
	EvictionPurge   = "purge"
)

var (
	// ErrNilValue is returned by Put for a nil record.
	ErrNilValue = errors.New("cannot cache nil metadata")

	// ErrEmptyKey is returned by Put for an empty source key.
	ErrEmptyKey = errors.New("cannot cache metadata under an empty key")
)

// MetricsCallback is an interface for recording cache metrics.
// This allows the cache to report metrics without depending on the instrumentation package.
type MetricsCallback interface {
	// OnCacheHit is called when a cache hit occurs.
	OnCacheHit()
	// OnCacheMiss is called when a cache miss occurs.
	OnCacheMiss()
	// OnCacheEviction is called when an entry is evicted with the reason.
	// Reasons: "expired", "lru", "purge"
	OnCacheEviction(reason string)
	// OnCacheSizeChange is called when the cache size changes.
	OnCacheSizeChange(size int)
}

// Config holds configuration options for the metadata cache.
type Config struct {
	// TTL is the time-to-live for cached entries. Defaults to DefaultTTL.
	TTL time.Duration
	// MaxEntries is the maximum number of entries before LRU eviction.
	// Defaults to DefaultMaxEntries.
	MaxEntries int
	// Metrics is an optional callback for recording cache metrics.
	Metrics MetricsCallback
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type entry struct {
	value     *metadata.Resolved
	expiresAt time.Time
}

// MetadataCache is a thread-safe LRU cache of resolved metadata keyed by log
// source. Get and Put on the same key are linearizable.
type MetadataCache struct {
	mu          sync.Mutex
	lru         *simplelru.LRU[string, entry]
	ttl         time.Duration
	maxSize     int
	now         func() time.Time
	evictReason string
	evicted     []string

	// Metrics callback (optional)
	metrics MetricsCallback
}

// New creates a metadata cache with the given configuration.
func New(config Config) (*MetadataCache, error) {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	if config.MaxEntries < 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", config.MaxEntries)
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	c := &MetadataCache{
		ttl:         config.TTL,
		maxSize:     config.MaxEntries,
		now:         config.Now,
		metrics:     config.Metrics,
		evictReason: EvictionLRU,
	}

	lru, err := simplelru.NewLRU[string, entry](config.MaxEntries, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU: %w", err)
	}
	c.lru = lru

	return c, nil
}

// onEvict runs under mu, from inside simplelru.
func (c *MetadataCache) onEvict(_ string, _ entry) {
	c.evicted = append(c.evicted, c.evictReason)
}

// Get retrieves the record for key if present and not expired.
//
// A hit also marks the entry as most recently used.
func (c *MetadataCache) Get(key string) (*metadata.Resolved, bool) {
	c.mu.Lock()
	e, ok := c.lru.Get(key)
	if ok && !c.now().Before(e.expiresAt) {
		c.removeLocked(key, EvictionExpired)
		ok = false
	}
	evicted, size := c.drainLocked()
	c.mu.Unlock()

	c.report(evicted, size, false)
	if !ok {
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	return e.value, true
}

// Put stores value under key with a fresh TTL, replacing any previous
// record. If the cache is at capacity, the least recently used entry is
// evicted.
func (c *MetadataCache) Put(key string, value *metadata.Resolved) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		return ErrNilValue
	}

	c.mu.Lock()
	c.lru.Add(key, entry{value: value, expiresAt: c.now().Add(c.ttl)})
	evicted, size := c.drainLocked()
	c.mu.Unlock()

	c.report(evicted, size, true)
	return nil
}

// Remove drops key from the cache. It reports whether the key was present.
func (c *MetadataCache) Remove(key string) bool {
	c.mu.Lock()
	present := c.removeLocked(key, EvictionPurge)
	evicted, size := c.drainLocked()
	c.mu.Unlock()

	c.report(evicted, size, false)
	return present
}

// Purge removes every entry.
func (c *MetadataCache) Purge() {
	c.mu.Lock()
	c.evictReason = EvictionPurge
	c.lru.Purge()
	c.evictReason = EvictionLRU
	evicted, size := c.drainLocked()
	c.mu.Unlock()

	c.report(evicted, size, false)
}

// Len returns the current number of entries, expired ones included until
// they are accessed.
func (c *MetadataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// MaxSize returns the maximum number of entries allowed in the cache.
func (c *MetadataCache) MaxSize() int {
	return c.maxSize
}

// TTL returns the configured time-to-live.
func (c *MetadataCache) TTL() time.Duration {
	return c.ttl
}

// Stats holds cache statistics for monitoring.
type Stats struct {
	Size    int
	MaxSize int
}

// Stats returns current cache statistics.
func (c *MetadataCache) Stats() Stats {
	return Stats{
		Size:    c.Len(),
		MaxSize: c.maxSize,
	}
}

// removeLocked must be called with mu held.
func (c *MetadataCache) removeLocked(key, reason string) bool {
	c.evictReason = reason
	present := c.lru.Remove(key)
	c.evictReason = EvictionLRU
	return present
}

// drainLocked returns the evictions recorded since the last call and the
// current size. Must be called with mu held.
func (c *MetadataCache) drainLocked() ([]string, int) {
	evicted := c.evicted
	c.evicted = nil
	return evicted, c.lru.Len()
}

// report forwards evictions and, when the size may have changed, the new
// size to the metrics callback. Called outside the lock.
func (c *MetadataCache) report(evicted []string, size int, added bool) {
	if c.metrics == nil {
		return
	}
	for _, reason := range evicted {
		c.metrics.OnCacheEviction(reason)
	}
	if added || len(evicted) > 0 {
		c.metrics.OnCacheSizeChange(size)
	}
}

// recordHit records a cache hit metric.
func (c *MetadataCache) recordHit() {
	if c.metrics != nil {
		c.metrics.OnCacheHit()
	}
}

// recordMiss records a cache miss metric.
func (c *MetadataCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.OnCacheMiss()
	}
}
