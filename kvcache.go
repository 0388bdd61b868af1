// Package kvcache provides an in-process key/value cache with TTL expiry,
// size-bounded LRU eviction and live statistics.
//
// Example usage:
//
//	c := kvcache.New(kvcache.Config{MaxEntries: 500})
//	defer c.Destroy()
//
//	c.Set("greeting", "hello")
//	if v, ok := c.Get("greeting"); ok {
//	    fmt.Println(v)
//	}
//
// Every entry carries a TTL. Expired entries are dropped lazily on Get and
// periodically by a background sweep. After each Set the cache evicts least
// recently used entries until it is back under MaxEntries and MaxMemory.
package kvcache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/kvcache/internal/eviction"
	"github.com/discochess/kvcache/internal/maintenance"
	"github.com/discochess/kvcache/internal/sizer"
	"github.com/discochess/kvcache/internal/stats"
	"github.com/discochess/kvcache/internal/store"
	"github.com/discochess/kvcache/internal/store/lrustore"
)

// Cache is a TTL and capacity bounded key/value cache.
// A Cache is safe for concurrent use by multiple goroutines. All operations,
// including the background sweeps, are serialized by a single lock.
type Cache struct {
	cfg       Config
	limits    eviction.Limits
	sizer     sizer.Sizer
	collector stats.Collector
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	store     store.Store
	hits      int64
	misses    int64
	evictions int64
	hitRate   float64

	scheduler   *maintenance.Scheduler
	destroyOnce sync.Once
}

// New creates a Cache and starts its cleanup and stats timers.
// Unset Config fields use the package defaults; New never fails.
func New(cfg Config, opts ...Option) *Cache {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}

	cfg = cfg.withDefaults()
	c := &Cache{
		cfg:       cfg,
		limits:    eviction.Limits{MaxEntries: cfg.MaxEntries, MaxMemory: cfg.MaxMemory},
		sizer:     o.sizer,
		collector: o.stats,
		logger:    o.logger,
		now:       o.clock,
		store:     lrustore.New(),
	}

	c.scheduler = maintenance.New(c.logger.Named("maintenance"),
		maintenance.Task{Name: "cleanup", Interval: cfg.CheckInterval, Run: c.cleanupTick},
		maintenance.Task{Name: "stats", Interval: cfg.StatsInterval, Run: c.statsTick},
	)
	c.scheduler.Start()

	c.logger.Debug("cache initialized",
		zap.Int("maxEntries", cfg.MaxEntries),
		zap.Int64("maxMemory", cfg.MaxMemory),
		zap.Duration("defaultTTL", cfg.DefaultTTL),
		zap.Duration("checkInterval", cfg.CheckInterval),
		zap.Duration("statsInterval", cfg.StatsInterval),
	)

	return c
}

// Config returns the effective configuration, defaults applied.
func (c *Cache) Config() Config {
	return c.cfg
}

// Set stores value under key with the configured default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.cfg.DefaultTTL)
}

// SetWithTTL stores value under key, replacing any existing entry.
// A ttl of zero or less stores an entry that is already expired.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	size, err := sizer.Estimate(c.sizer, key, value)
	if err != nil {
		c.logger.Debug("size estimate failed, using fallback",
			zap.String("key", key),
			zap.Int64("size", size),
			zap.Error(err),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.store.Put(&store.Entry{
		Key:            key,
		Value:          value,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
		Size:           size,
	})
	c.collector.IncCounter(stats.MetricSets, 1)
	c.collector.ObserveHistogram(stats.MetricEntrySize, float64(size))

	eviction.EnforceCapacity(c.store, c.limits, c.onEvict)
}

// Get returns the value stored under key. The second result is false if the
// key is absent or expired; an expired entry is removed by the lookup.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.store.Peek(key)
	if ok && e.Expired(now) {
		c.store.Remove(key)
		c.onEvict(e, eviction.Expired)
		ok = false
	}
	if !ok {
		c.misses++
		c.collector.IncCounter(stats.MetricMisses, 1)
		return nil, false
	}

	c.store.Get(key)
	e.LastAccessedAt = now
	c.hits++
	c.collector.IncCounter(stats.MetricHits, 1)
	return e.Value, true
}

// Delete removes key and reports whether it was present.
// Deletions are not counted as evictions.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.store.Remove(key); !ok {
		return false
	}
	c.collector.IncCounter(stats.MetricDeletes, 1)
	return true
}

// Clear removes every entry. Hit, miss and eviction counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Purge()
	c.collector.IncCounter(stats.MetricClears, 1)
}

// Stats returns a snapshot computed from the live store.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// ResetStats zeroes the hit, miss and eviction counters.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits, c.misses, c.evictions = 0, 0, 0
	c.hitRate = 0
}

// Destroy stops the background timers and drops every entry.
// It returns after both timers have stopped, including when called
// concurrently. Calling Destroy again is a no-op.
func (c *Cache) Destroy() {
	c.destroyOnce.Do(c.destroy)
}

func (c *Cache) destroy() {
	// Stop outside the lock so an in-flight tick can finish.
	c.scheduler.Stop()

	c.mu.Lock()
	c.store.Purge()
	c.mu.Unlock()

	c.logger.Debug("cache destroyed")
}

// cleanupTick runs the TTL pass then the capacity pass.
func (c *Cache) cleanupTick(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked()
}

func (c *Cache) sweepLocked() (expired, evicted int) {
	expired = eviction.ExpireStale(c.store, c.now(), c.onEvict)
	evicted = eviction.EnforceCapacity(c.store, c.limits, c.onEvict)
	if expired > 0 || evicted > 0 {
		c.logger.Debug("cleanup pass",
			zap.Int("expired", expired),
			zap.Int("evicted", evicted),
			zap.Int("entries", c.store.Len()),
		)
	}
	return expired, evicted
}

// statsTick refreshes the derived hit rate and publishes gauges.
func (c *Cache) statsTick(ctx context.Context) {
	c.mu.Lock()
	s := c.snapshotLocked()
	c.mu.Unlock()

	c.collector.SetGauge(stats.MetricEntries, float64(s.EntryCount))
	c.collector.SetGauge(stats.MetricSizeBytes, float64(s.TotalSizeEstimate))
	c.collector.SetGauge(stats.MetricHitRate, s.HitRate)
}

// onEvict counts an entry removed by policy. Caller holds c.mu.
func (c *Cache) onEvict(e *store.Entry, reason eviction.Reason) {
	c.evictions++
	switch reason {
	case eviction.Expired:
		c.collector.IncCounter(stats.MetricExpirations, 1)
	case eviction.Capacity:
		c.collector.IncCounter(stats.MetricCapacityEvictions, 1)
	}
}

func (c *Cache) snapshotLocked() Stats {
	c.hitRate = hitRate(c.hits, c.misses)
	return Stats{
		HitCount:          c.hits,
		MissCount:         c.misses,
		HitRate:           c.hitRate,
		EntryCount:        c.store.Len(),
		TotalSizeEstimate: c.store.Size(),
		EvictionCount:     c.evictions,
	}
}
