package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/discochess/kvcache"
	"github.com/discochess/kvcache/fx/cachefx"
	"github.com/discochess/kvcache/internal/config"
	"github.com/discochess/kvcache/internal/mcpserver"
	"github.com/discochess/kvcache/internal/metricsserver"
	"github.com/discochess/kvcache/internal/stats"
	statsprom "github.com/discochess/kvcache/internal/stats/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cache to MCP clients on stdio",
	Long: `Start the cache and serve it over the Model Context Protocol on stdin/stdout.

Tools: store_data, retrieve_data, clear_cache, get_cache_stats.
Resources: cache://stats.

The server stops on SIGINT, SIGTERM or when stdin closes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// lifecycleTimeout bounds app start and stop.
const lifecycleTimeout = 10 * time.Second

var (
	metricsAddr string
	serveLoader = config.NewLoader()
)

func init() {
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the /metrics and /stats HTTP endpoints (disabled if empty)")
	if err := serveLoader.RegisterFlags(serveCmd.Flags()); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveLoader.Load(config.Path(configPath))
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache *kvcache.Cache
	app := fx.New(serveOptions(cfg, log, &cache)...)

	startCtx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("starting: %w", err)
	}

	serveErr := mcpserver.New(cache, version, log).Serve(ctx, os.Stdin, os.Stdout)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}

	return serveErr
}

// serveOptions assembles the fx graph for the serve command.
func serveOptions(cfg kvcache.Config, log *zap.Logger, cache **kvcache.Cache) []fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg),
		fx.Supply(log),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		cachefx.Module,
		fx.Populate(cache),
	}

	if metricsAddr == "" {
		return opts
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return append(opts,
		fx.Provide(func() stats.Collector { return statsprom.New(reg) }),
		fx.Invoke(func(lc fx.Lifecycle, c *kvcache.Cache) {
			srv := metricsserver.New(metricsAddr, reg, c, log.Named("metrics"))
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error { return srv.Start() },
				OnStop:  srv.Stop,
			})
		}),
	)
}
