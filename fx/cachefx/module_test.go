package cachefx

import (
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/discochess/kvcache"
	"github.com/discochess/kvcache/internal/stats"
)

// countingCollector counts counter increments.
type countingCollector struct {
	stats.Noop
	sets int64
}

func (c *countingCollector) IncCounter(name string, delta int64) {
	if name == stats.MetricSets {
		c.sets += delta
	}
}

func TestModule_ProvidesCache(t *testing.T) {
	var c *kvcache.Cache

	app := fxtest.New(t,
		fx.Supply(kvcache.Config{MaxEntries: 3, CheckInterval: time.Hour, StatsInterval: time.Hour}),
		fx.Supply(zap.NewNop()),
		Module,
		fx.Populate(&c),
	)
	app.RequireStart()

	if got := c.Config().MaxEntries; got != 3 {
		t.Errorf("Config().MaxEntries = %d, want 3", got)
	}

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Error("Get() should find the value")
	}

	app.RequireStop()

	if n := c.Stats().EntryCount; n != 0 {
		t.Errorf("EntryCount = %d after stop, want 0", n)
	}
}

func TestModule_UsesProvidedCollector(t *testing.T) {
	collector := &countingCollector{}
	var c *kvcache.Cache

	app := fxtest.New(t,
		fx.Supply(kvcache.Config{CheckInterval: time.Hour, StatsInterval: time.Hour}),
		fx.Supply(zap.NewNop()),
		fx.Provide(func() stats.Collector { return collector }),
		Module,
		fx.Populate(&c),
	)
	app.RequireStart()
	defer app.RequireStop()

	c.Set("a", 1)
	c.Set("b", 2)

	if collector.sets != 2 {
		t.Errorf("sets = %d, want 2", collector.sets)
	}
}
