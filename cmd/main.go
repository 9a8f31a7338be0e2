package main

import (
	"fmt"
	"os"
	"time"

	"github.com/restartfu/grid-bench/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "grid-bench",
		Short: "Hardware telemetry and CPU hashing benchmark node",
		Long: `grid-bench reports the host's CPU, memory, disks and motherboard, and
measures hashing throughput on one thread and on every logical thread.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"Path to a TOML config file")
	flags.BoolVar(&opts.debug, "debug", false,
		"Human-readable debug logging")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newSpecsCmd(opts))

	return root
}

func (o *globalOptions) newLogger() (*zap.Logger, error) {
	if o.debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// benchmarkFlags override the benchmark section of the loaded config when
// set on the command line.
type benchmarkFlags struct {
	hashCount int
	threads   int
	algorithm string
	timeout   time.Duration
	dbPath    string
}

func (b *benchmarkFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&b.hashCount, "hash-count", 0,
		"Digests computed by each worker")
	flags.IntVar(&b.threads, "threads", 0,
		"Workers in the multi-threaded run (0 = logical threads)")
	flags.StringVar(&b.algorithm, "algorithm", "",
		"Digest algorithm: sha256, sha256-std, blake2b")
	flags.DurationVar(&b.timeout, "benchmark-timeout", 0,
		"Abandon the cycle between runs after this long (0 = never)")
	flags.StringVar(&b.dbPath, "db-path", "",
		"SQLite file for benchmark history")
}

func (b *benchmarkFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("hash-count") {
		cfg.Benchmark.HashCount = b.hashCount
	}
	if flags.Changed("threads") {
		cfg.Benchmark.Threads = b.threads
	}
	if flags.Changed("algorithm") {
		cfg.Benchmark.Algorithm = b.algorithm
	}
	if flags.Changed("benchmark-timeout") {
		cfg.Benchmark.Timeout = b.timeout
	}
	if flags.Changed("db-path") {
		cfg.DBPath = b.dbPath
	}
}

func (o *globalOptions) loadConfig(overrides ...func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(o.configPath, os.Getenv)
	if err != nil {
		return config.Config{}, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
