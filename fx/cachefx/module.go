// Package cachefx provides an fx module for a kvcache.Cache.
package cachefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/kvcache"
	"github.com/discochess/kvcache/internal/stats"
	"github.com/discochess/kvcache/internal/stats/logger"
)

// Module provides a *kvcache.Cache that is destroyed when the app stops.
// Requires a kvcache.Config and a *zap.Logger to be provided. A
// stats.Collector is optional; without one, metrics are logged at debug level.
var Module = fx.Module("kvcache",
	fx.Provide(newCache),
)

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    kvcache.Config
	Logger    *zap.Logger
	Collector stats.Collector `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache.
type Result struct {
	fx.Out

	Cache *kvcache.Cache
}

func newCache(p Params) Result {
	collector := p.Collector
	if collector == nil {
		collector = logger.New(p.Logger.Named("kvcache.stats"))
	}

	c := kvcache.New(p.Config,
		kvcache.WithStats(collector),
		kvcache.WithLogger(p.Logger.Named("kvcache")),
	)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.Destroy()
			return nil
		},
	})

	return Result{Cache: c}
}
