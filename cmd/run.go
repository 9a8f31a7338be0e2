package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	specsadapter "github.com/restartfu/grid-bench/internal/adapters/specs"
	"github.com/restartfu/grid-bench/internal/app"
	"github.com/restartfu/grid-bench/internal/config"
	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/restartfu/grid-bench/internal/lock"
	"github.com/restartfu/grid-bench/internal/report"
	"github.com/restartfu/grid-bench/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		benchOpts  benchmarkFlags
		outputJSON bool
		noHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one benchmark cycle and print the results",
		Long: `Run the single-threaded test, then the multi-threaded test with one
worker per logical thread, and print elapsed time and throughput for both.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(func(cfg *config.Config) {
				benchOpts.apply(cmd, cfg)
			})
			if err != nil {
				return err
			}
			logger, err := opts.newLogger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			result, err := runOnce(ctx, logger, cfg, !noHistory)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outputJSON {
				err = report.GenerateJSON(out, result)
			} else {
				err = report.Generate(out, result)
			}
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}
			if result.State != domain.RunStateCompleted {
				return fmt.Errorf("benchmark %s: %s", result.State, result.Error)
			}
			return nil
		},
	}

	benchOpts.register(cmd)
	flags := cmd.Flags()
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of a table")
	flags.BoolVar(&noHistory, "no-history", false,
		"Do not record the run in the history database")

	return cmd
}

func runOnce(ctx context.Context, logger *zap.Logger, cfg config.Config, keepHistory bool) (domain.BenchmarkReport, error) {
	instance, err := lock.Acquire(cfg.LockPath)
	if err != nil {
		return domain.BenchmarkReport{}, err
	}
	defer instance.Release() //nolint:errcheck

	var service *app.Service
	runner := newRunner(ctx, logger, cfg)
	reader := specsadapter.NewReader(cfg.SampleInterval)
	if keepHistory {
		history, err := store.Open(cfg.DBPath)
		if err != nil {
			return domain.BenchmarkReport{}, err
		}
		defer history.Close()
		service = app.NewService(ctx, reader, reader, runner, history, logger.Named("app"))
	} else {
		service = app.NewService(ctx, reader, reader, runner, nil, logger.Named("app"))
	}

	if err := attachNotifier(ctx, logger, service, reader, cfg.WebhookURL); err != nil {
		return domain.BenchmarkReport{}, err
	}

	reports := make(chan domain.BenchmarkReport, 1)
	if _, err := service.StartBenchmark(func(r domain.BenchmarkReport) {
		reports <- r
	}); err != nil {
		return domain.BenchmarkReport{}, err
	}
	// Cancellation is observed by the runner between runs, so the report
	// always arrives.
	return <-reports, nil
}
