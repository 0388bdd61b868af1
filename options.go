package kvcache

import (
	"time"

	"go.uber.org/zap"

	"github.com/discochess/kvcache/internal/sizer"
	"github.com/discochess/kvcache/internal/sizer/jsonsizer"
	"github.com/discochess/kvcache/internal/stats"
)

// Default configuration values.
const (
	DefaultMaxEntries    = 1000
	DefaultMaxMemory     = 50_000_000
	DefaultTTL           = time.Hour
	DefaultCheckInterval = 60 * time.Second
	DefaultStatsInterval = 30 * time.Second
)

// Config holds the cache limits and maintenance cadence.
// Zero or negative fields are replaced with the defaults above.
type Config struct {
	// MaxEntries caps the number of entries.
	MaxEntries int

	// MaxMemory caps the summed size estimate of all entries, in bytes.
	MaxMemory int64

	// DefaultTTL applies to Set calls that do not give a TTL.
	DefaultTTL time.Duration

	// CheckInterval is the period of the expiry and capacity sweep.
	CheckInterval time.Duration

	// StatsInterval is the period of the stats refresh.
	StatsInterval time.Duration
}

// withDefaults returns a copy of c with unset fields filled in.
func (c Config) withDefaults() Config {
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.MaxMemory <= 0 {
		c.MaxMemory = DefaultMaxMemory
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultCheckInterval
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = DefaultStatsInterval
	}
	return c
}

// Option configures a Cache.
type Option interface {
	apply(*options)
}

// options holds the non-limit dependencies of a Cache.
type options struct {
	sizer  sizer.Sizer
	stats  stats.Collector
	logger *zap.Logger
	clock  func() time.Time
}

// defaultOptions returns the default dependencies.
func defaultOptions() options {
	return options{
		sizer:  jsonsizer.New(),
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
		clock:  time.Now,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithSizer sets the size estimation strategy.
// If not set, values are measured by their JSON encoding.
func WithSizer(s sizer.Sizer) Option {
	return optionFunc(func(o *options) {
		if s != nil {
			o.sizer = s
		}
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithClock sets the time source used for TTLs and access times.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		if now != nil {
			o.clock = now
		}
	})
}
