package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags.
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "kvcache",
	Short: "In-memory key/value cache with TTL and LRU eviction",
	Long: `kvcache is an in-process key/value cache with time-to-live expiry,
size-bounded LRU eviction and live statistics, served to MCP clients on stdio.

Configuration is read from a JSON file ($CONFIG_PATH or ./config.json),
then MAX_ENTRIES, MAX_MEMORY, DEFAULT_TTL, CHECK_INTERVAL and STATS_INTERVAL
environment variables, then command-line flags.

Examples:
  # Serve on stdio
  kvcache serve

  # Serve with Prometheus metrics on :9090
  kvcache serve --metrics-addr :9090

  # Benchmark a read-heavy workload
  kvcache bench --ops 100000 --read-ratio 0.9`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds a logger that writes to stderr; stdout carries protocol frames.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
