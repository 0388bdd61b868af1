// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/kvcache/internal/stats"
)

// help holds descriptions for the metrics the cache emits.
// Unknown names use the name itself as help text.
var help = map[string]string{
	stats.MetricSets:              "Number of values written to the cache.",
	stats.MetricHits:              "Number of lookups that found a live entry.",
	stats.MetricMisses:            "Number of lookups that found no live entry.",
	stats.MetricDeletes:           "Number of entries removed by explicit delete.",
	stats.MetricClears:            "Number of full cache clears.",
	stats.MetricExpirations:       "Number of entries removed because their TTL elapsed.",
	stats.MetricCapacityEvictions: "Number of entries evicted to satisfy entry or memory limits.",
	stats.MetricEntries:           "Current number of entries.",
	stats.MetricSizeBytes:         "Current estimated size of all entries in bytes.",
	stats.MetricHitRate:           "Ratio of hits to lookups since the last reset.",
	stats.MetricEntrySize:         "Estimated size of stored entries in bytes.",
}

// entrySizeBuckets spans 64B to 4MiB.
var entrySizeBuckets = prometheus.ExponentialBuckets(64, 4, 9)

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are created and registered on first use.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: helpFor(name)})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value float64) {
	gauge := getOrCreate(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: helpFor(name)})
	})
	gauge.Set(value)
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, c.histograms, name, func() prometheus.Histogram {
		buckets := prometheus.DefBuckets
		if name == stats.MetricEntrySize {
			buckets = entrySizeBuckets
		}
		return prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: helpFor(name), Buckets: buckets})
	})
	histogram.Observe(value)
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// getOrCreate returns the metric cached under name, registering a new one if needed.
// If the registry already holds a metric of the same name, that metric is reused.
func getOrCreate[M prometheus.Collector](c *Collector, cache map[string]M, name string, create func() M) M {
	c.mu.RLock()
	m, ok := cache[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok = cache[name]; ok {
		return m
	}

	m = create()
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Otherwise keep the unregistered metric; it still records values.
	}
	cache[name] = m
	return m
}
