package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/restartfu/grid-bench/internal/observability"
	"github.com/restartfu/grid-bench/internal/ports"
	"go.uber.org/zap"
)

var ErrHistoryUnavailable = errors.New("benchmark history is not configured")

type Service struct {
	specsReader   ports.SpecsReader
	metricsReader ports.MetricsReader
	runner        ports.BenchmarkRunner
	store         ports.ReportStore
	notifier      ports.ReportNotifier
	logger        *zap.Logger

	// runCtx outlives the request that starts a benchmark.
	runCtx context.Context

	// gaugeMu orders the running gauge updates of StartBenchmark and record,
	// whose callback can fire before StartBenchmark returns.
	gaugeMu  sync.Mutex
	recorded string
}

// NewService wires the readers, the benchmark runner and the optional report
// store. Benchmarks started through the service are bound to runCtx.
func NewService(runCtx context.Context, specsReader ports.SpecsReader, metricsReader ports.MetricsReader, runner ports.BenchmarkRunner, store ports.ReportStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		specsReader:   specsReader,
		metricsReader: metricsReader,
		runner:        runner,
		store:         store,
		logger:        logger,
		runCtx:        runCtx,
	}
}

// SetNotifier sends every finished report to notifier. Call it before the
// first benchmark starts.
func (s *Service) SetNotifier(notifier ports.ReportNotifier) {
	s.notifier = notifier
}

func (s *Service) Health() domain.Health {
	return domain.Health{
		Status: "ok",
		Time:   time.Now().UTC(),
	}
}

func (s *Service) Specs(ctx context.Context) (domain.Specs, error) {
	return s.specsReader.ReadSpecs(ctx)
}

func (s *Service) Metrics(ctx context.Context) (domain.Metrics, error) {
	return s.metricsReader.ReadMetrics(ctx)
}

// StartBenchmark starts a benchmark in the background. onComplete runs after
// the report has been recorded and may be nil. A rejected start leaves the
// running gauge alone.
func (s *Service) StartBenchmark(onComplete func(domain.BenchmarkReport)) (string, error) {
	id, err := s.runner.StartBenchmark(s.runCtx, func(report domain.BenchmarkReport) {
		s.record(report)
		if onComplete != nil {
			onComplete(report)
		}
	})
	if err != nil {
		return "", err
	}

	s.gaugeMu.Lock()
	if s.recorded != id {
		observability.BenchmarkRunningGauge.Set(1)
	}
	s.gaugeMu.Unlock()
	return id, nil
}

func (s *Service) record(report domain.BenchmarkReport) {
	s.gaugeMu.Lock()
	s.recorded = report.ID
	observability.ObserveReport(report)
	s.gaugeMu.Unlock()

	if report.State == domain.RunStateFailed {
		observability.CaptureError(errors.New(report.Error), map[string]string{
			"component": "bench",
			"operation": "start_benchmark",
		}, map[string]interface{}{
			"run":       report.ID,
			"algorithm": report.Algorithm,
			"hashCount": report.HashCount,
			"threads":   report.Threads,
		})
	}
	// The run context may already be cancelled; the report is still saved.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.store != nil {
		if err := s.store.SaveReport(ctx, report); err != nil {
			s.logger.Error("save benchmark report", zap.String("run", report.ID), zap.Error(err))
			observability.CaptureError(err, map[string]string{
				"component": "store",
				"operation": "save_report",
			}, nil)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report); err != nil {
			s.logger.Warn("notify benchmark report", zap.String("run", report.ID), zap.Error(err))
			observability.CaptureError(err, map[string]string{
				"component": "webhook",
				"operation": "notify",
			}, nil)
		}
	}
}

func (s *Service) BenchmarkStatus() domain.BenchmarkStatus {
	return s.runner.Status()
}

func (s *Service) LatestBenchmark() (domain.BenchmarkResult, domain.BenchmarkResult, bool) {
	return s.runner.Latest()
}

func (s *Service) BenchmarkHistory(ctx context.Context, limit int) ([]domain.BenchmarkReport, error) {
	if s.store == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.store.ListReports(ctx, limit)
}
