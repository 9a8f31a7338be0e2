package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/restartfu/grid-bench/internal/domain"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner measures hashing throughput of a single worker and of a cohort of
// one worker per logical thread.
type Runner struct {
	config  Config
	factory WorkerFactory
	logger  *zap.Logger

	running atomic.Bool

	mu        sync.RWMutex
	state     domain.RunState
	active    string
	last      *domain.BenchmarkReport
	completed *domain.BenchmarkReport
	done      chan struct{}
}

type Option func(*Runner)

// WithWorkerFactory replaces the hash workers built from the config.
func WithWorkerFactory(factory WorkerFactory) Option {
	return func(r *Runner) {
		r.factory = factory
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRunner(config Config, opts ...Option) *Runner {
	r := &Runner{
		config: config.clone(),
		logger: zap.NewNop(),
		state:  domain.RunStateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Config() Config {
	return r.config.clone()
}

// RunTest runs workers concurrently, each computing the configured number of
// hashes, and blocks until every one of them has returned.
func (r *Runner) RunTest(ctx context.Context, workers int) (domain.BenchmarkResult, error) {
	return r.runTest(ctx, r.config, workers)
}

func (r *Runner) runTest(ctx context.Context, cfg Config, workers int) (domain.BenchmarkResult, error) {
	if workers < 1 {
		return domain.BenchmarkResult{}, fmt.Errorf("%w: worker count must be at least 1, got %d", ErrInvalidConfiguration, workers)
	}
	if err := cfg.Validate(); err != nil {
		return domain.BenchmarkResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.BenchmarkResult{}, err
	}

	factory := r.factory
	if factory == nil {
		factory = HashWorkerFactory(cfg.Algorithm, cfg.Payload)
	}
	cohort := make([]Worker, workers)
	for i := range cohort {
		worker, err := factory(i)
		if err != nil {
			return domain.BenchmarkResult{}, &WorkerFailure{Worker: i, Err: err}
		}
		cohort[i] = worker
	}

	var group errgroup.Group
	start := time.Now()
	for i, worker := range cohort {
		group.Go(func() error {
			return runWorker(i, worker, cfg.HashCount)
		})
	}
	err := group.Wait()
	elapsed := time.Since(start)
	if err != nil {
		return domain.BenchmarkResult{}, err
	}
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}

	total := int64(cfg.HashCount) * int64(workers)
	return domain.BenchmarkResult{
		Workers:         workers,
		HashCount:       cfg.HashCount,
		Elapsed:         elapsed,
		TotalOperations: total,
		Throughput:      float64(total) / elapsed.Seconds(),
	}, nil
}

func runWorker(index int, worker Worker, count int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &WorkerFailure{Worker: index, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	if err := worker.Run(count); err != nil {
		return &WorkerFailure{Worker: index, Err: err}
	}
	return nil
}

// StartBenchmark runs the single-threaded and then the multi-threaded test
// on a separate goroutine and returns the id of the new run immediately.
// onComplete, if set, is called exactly once when the run ends, whatever its
// outcome. Status, Latest and the running flag are already updated when it is
// called, so onComplete may start the next cycle. ctx is only consulted
// between runs.
func (r *Runner) StartBenchmark(ctx context.Context, onComplete func(domain.BenchmarkReport)) (string, error) {
	if !r.running.CompareAndSwap(false, true) {
		return "", ErrAlreadyRunning
	}

	cfg := r.config.clone()
	report := domain.BenchmarkReport{
		ID:        uuid.NewString(),
		Algorithm: cfg.Algorithm,
		HashCount: cfg.HashCount,
		Threads:   cfg.Threads,
		State:     domain.RunStateRunning,
		StartedAt: time.Now().UTC(),
	}
	done := make(chan struct{})

	r.mu.Lock()
	r.state = domain.RunStateRunning
	r.active = report.ID
	r.done = done
	r.mu.Unlock()

	go r.drive(ctx, cfg, report, done, onComplete)
	return report.ID, nil
}

func (r *Runner) drive(ctx context.Context, cfg Config, report domain.BenchmarkReport, done chan struct{}, onComplete func(domain.BenchmarkReport)) {
	defer close(done)
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logger := r.logger.With(zap.String("run", report.ID))
	logger.Info("benchmark started",
		zap.String("algorithm", cfg.Algorithm),
		zap.Int("hashCount", cfg.HashCount),
		zap.Int("threads", cfg.Threads))

	single, multi, err := r.runPair(ctx, cfg)
	report.FinishedAt = time.Now().UTC()
	switch {
	case err == nil:
		report.State = domain.RunStateCompleted
		report.Single = &single
		report.Multi = &multi
		logger.Info("benchmark completed",
			zap.Duration("singleElapsed", single.Elapsed),
			zap.Float64("singleThroughput", single.Throughput),
			zap.Duration("multiElapsed", multi.Elapsed),
			zap.Float64("multiThroughput", multi.Throughput))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		report.State = domain.RunStateCancelled
		report.Error = err.Error()
		logger.Warn("benchmark cancelled", zap.Error(err))
	default:
		report.State = domain.RunStateFailed
		report.Error = err.Error()
		logger.Error("benchmark failed", zap.Error(err))
	}

	r.mu.Lock()
	r.state = report.State
	r.active = ""
	r.last = cloneReport(&report)
	if report.State == domain.RunStateCompleted {
		r.completed = cloneReport(&report)
	}
	r.mu.Unlock()
	r.running.Store(false)

	if onComplete != nil {
		onComplete(*cloneReport(&report))
	}
}

func (r *Runner) runPair(ctx context.Context, cfg Config) (domain.BenchmarkResult, domain.BenchmarkResult, error) {
	single, err := r.runTest(ctx, cfg, 1)
	if err != nil {
		return domain.BenchmarkResult{}, domain.BenchmarkResult{}, fmt.Errorf("single-threaded run: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.BenchmarkResult{}, domain.BenchmarkResult{}, err
	}
	multi, err := r.runTest(ctx, cfg, cfg.Threads)
	if err != nil {
		return domain.BenchmarkResult{}, domain.BenchmarkResult{}, fmt.Errorf("multi-threaded run: %w", err)
	}
	return single, multi, nil
}

func (r *Runner) Status() domain.BenchmarkStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.BenchmarkStatus{
		State:  r.state,
		Last:   cloneReport(r.last),
		Active: r.active,
	}
}

// Latest returns the results of the last run that completed successfully.
func (r *Runner) Latest() (domain.BenchmarkResult, domain.BenchmarkResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.completed == nil {
		return domain.BenchmarkResult{}, domain.BenchmarkResult{}, false
	}
	return *r.completed.Single, *r.completed.Multi, true
}

// Wait blocks until the run in flight, if any, has finished and its
// callback has returned.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func cloneReport(report *domain.BenchmarkReport) *domain.BenchmarkReport {
	if report == nil {
		return nil
	}
	clone := *report
	if report.Single != nil {
		single := *report.Single
		clone.Single = &single
	}
	if report.Multi != nil {
		multi := *report.Multi
		clone.Multi = &multi
	}
	return &clone
}
