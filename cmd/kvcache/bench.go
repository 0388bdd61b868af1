package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/kvcache"
	"github.com/discochess/kvcache/benchmark/analysis"
	"github.com/discochess/kvcache/benchmark/simulation"
	"github.com/discochess/kvcache/internal/config"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a synthetic workload against an in-process cache",
	Long: `Drive the cache with a synthetic mix of reads and writes and report
throughput, hit rate, evictions and per-operation latency.

Cache limits come from the usual config sources, so a run can be compared
against a production configuration.

Examples:
  # Read-heavy workload over 10k keys with Zipf skew
  kvcache bench --ops 200000 --keys 10000 --read-ratio 0.9 --skew 1.1

  # Memory-bound run
  kvcache bench --max-memory 1000000 --value-size 4096`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

var (
	benchLoader = config.NewLoader()
	workload    simulation.Workload
)

func init() {
	f := benchCmd.Flags()
	f.IntVar(&workload.Ops, "ops", 100000, "number of operations")
	f.IntVar(&workload.Keys, "keys", 5000, "size of the key space")
	f.IntVar(&workload.ValueSize, "value-size", 256, "bytes per stored value")
	f.Float64Var(&workload.ReadRatio, "read-ratio", 0.8, "fraction of operations that are reads")
	f.Float64Var(&workload.Skew, "skew", 1.1, "Zipf exponent for key popularity (<= 1 for uniform)")
	f.DurationVar(&workload.TTL, "ttl", 0, "TTL for writes (0 uses the configured default)")
	f.Int64Var(&workload.Seed, "seed", 1, "random seed")
	if err := benchLoader.RegisterFlags(f); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := benchLoader.Load(config.Path(configPath))
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	c := kvcache.New(cfg, kvcache.WithLogger(log.Named("kvcache")))
	defer c.Destroy()

	res, err := simulation.Run(c, workload)
	if err != nil {
		return fmt.Errorf("running workload: %w", err)
	}

	printBenchReport(cmd.OutOrStdout(), c.Config(), res)
	return nil
}

func printBenchReport(w io.Writer, cfg kvcache.Config, res *simulation.Result) {
	fmt.Fprintf(w, "Config:      maxEntries=%d maxMemory=%d defaultTTL=%s\n", cfg.MaxEntries, cfg.MaxMemory, cfg.DefaultTTL)
	fmt.Fprintf(w, "Operations:  %d reads, %d writes in %s\n", res.Reads, res.Writes, res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Throughput:  %.0f ops/s\n", analysis.Throughput(res.Reads+res.Writes, res.Elapsed.Seconds()))
	fmt.Fprintf(w, "Hit rate:    %.2f%%\n", res.HitRate()*100)
	fmt.Fprintf(w, "Entries:     %d (%s estimated)\n", res.Stats.EntryCount, formatBytes(res.Stats.TotalSizeEstimate))
	fmt.Fprintf(w, "Evictions:   %d\n", res.Stats.EvictionCount)
	printLatency(w, "Get", analysis.Describe(res.ReadLatencies))
	printLatency(w, "Set", analysis.Describe(res.WriteLatencies))
}

func printLatency(w io.Writer, op string, d *analysis.DescriptiveStats) {
	if d.N == 0 {
		return
	}
	fmt.Fprintf(w, "%s latency: mean=%.2fµs sd=%.2fµs p50=%.2fµs p90=%.2fµs p99=%.2fµs max=%.2fµs\n",
		op, d.Mean, d.StdDev, d.P50, d.P90, d.P99, d.Max)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
