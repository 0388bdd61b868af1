// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Operation counters.
	MetricSets    = "kvcache_sets_total"
	MetricHits    = "kvcache_hits_total"
	MetricMisses  = "kvcache_misses_total"
	MetricDeletes = "kvcache_deletes_total"
	MetricClears  = "kvcache_clears_total"

	// Eviction counters, split by cause.
	MetricExpirations       = "kvcache_expirations_total"
	MetricCapacityEvictions = "kvcache_capacity_evictions_total"

	// Gauges refreshed by the stats timer.
	MetricEntries   = "kvcache_entries"
	MetricSizeBytes = "kvcache_size_bytes"
	MetricHitRate   = "kvcache_hit_rate"

	// Size estimate of each stored entry.
	MetricEntrySize = "kvcache_entry_size_bytes"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value float64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
