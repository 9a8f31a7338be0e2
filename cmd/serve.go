package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	httpadapter "github.com/restartfu/grid-bench/internal/adapters/http"
	specsadapter "github.com/restartfu/grid-bench/internal/adapters/specs"
	"github.com/restartfu/grid-bench/internal/app"
	"github.com/restartfu/grid-bench/internal/bench"
	"github.com/restartfu/grid-bench/internal/config"
	"github.com/restartfu/grid-bench/internal/lock"
	"github.com/restartfu/grid-bench/internal/observability"
	"github.com/restartfu/grid-bench/internal/specs"
	"github.com/restartfu/grid-bench/internal/store"
	"github.com/restartfu/grid-bench/internal/webhook"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		addr      string
		benchOpts benchmarkFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve telemetry and benchmarks over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(func(cfg *config.Config) {
				if cmd.Flags().Changed("addr") {
					cfg.Addr = addr
				}
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

			return serve(cmd.Context(), logger, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080",
		"HTTP listen address")
	benchOpts.register(cmd)

	return cmd
}

func serve(ctx context.Context, logger *zap.Logger, cfg config.Config) error {
	flushSentry, sentryEnabled, err := observability.InitSentry(cfg.SentryConfig())
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	defer flushSentry()

	instance, err := lock.Acquire(cfg.LockPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := instance.Release(); err != nil {
			logger.Warn("release instance lock", zap.String("path", instance.Path()), zap.Error(err))
		}
	}()

	history, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer history.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observability.InitBenchmarkMetrics(registry)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runner := newRunner(ctx, logger, cfg)
	reader := specsadapter.NewReader(cfg.SampleInterval)
	service := app.NewService(ctx, reader, reader, runner, history, logger.Named("app"))
	if err := attachNotifier(ctx, logger, service, reader, cfg.WebhookURL); err != nil {
		return err
	}
	httpServer := httpadapter.NewServer(service, logger.Named("http"), registry, cfg.HistoryLimit)

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: echo.HeaderXRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Request().Header.Set(echo.HeaderXRequestID, id)
		},
	}))
	if sentryEnabled {
		echoServer.Use(sentryecho.New(sentryecho.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	echoServer.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","request_id":"${header:X-Request-ID}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"latency":"${latency_human}","bytes_out":${bytes_out},"error":"${error}"}` + "\n",
	}))
	echoServer.Use(middleware.Recover())
	echoServer.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				observability.CaptureError(err, map[string]string{
					"component": "http",
					"route":     c.Path(),
				}, map[string]interface{}{
					"method": c.Request().Method,
					"uri":    c.Request().RequestURI,
				})
			}
			return err
		}
	})
	httpServer.Register(echoServer)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           echoServer,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("grid-bench http server listening",
		zap.String("addr", cfg.Addr),
		zap.String("db", cfg.DBPath),
		zap.Int("threads", runner.Config().Threads))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	// A run in flight only notices cancellation between its two runs.
	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := runner.Wait(waitCtx); err != nil {
		logger.Warn("benchmark still running at exit", zap.Error(err))
	}
	return nil
}

func attachNotifier(ctx context.Context, logger *zap.Logger, service *app.Service, reader *specsadapter.Reader, webhookURL string) error {
	if webhookURL == "" {
		return nil
	}
	host, err := reader.ReadSpecs(ctx)
	if err != nil {
		logger.Warn("read specs for webhook", zap.Error(err))
	}
	notifier, err := webhook.NewNotifier(webhookURL, host, nil)
	if err != nil {
		return err
	}
	service.SetNotifier(notifier)
	return nil
}

func newRunner(ctx context.Context, logger *zap.Logger, cfg config.Config) *bench.Runner {
	benchCfg := cfg.BenchConfig()
	if benchCfg.Threads == 0 {
		benchCfg.Threads = specs.LogicalThreads(ctx)
	}
	return bench.NewRunner(benchCfg, bench.WithLogger(logger.Named("bench")))
}
