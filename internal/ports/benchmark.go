package ports

import (
	"context"

	"github.com/restartfu/grid-bench/internal/domain"
)

type BenchmarkRunner interface {
	StartBenchmark(ctx context.Context, onComplete func(domain.BenchmarkReport)) (string, error)
	Status() domain.BenchmarkStatus
	Latest() (single, multi domain.BenchmarkResult, ok bool)
}

type ReportStore interface {
	SaveReport(ctx context.Context, report domain.BenchmarkReport) error
	ListReports(ctx context.Context, limit int) ([]domain.BenchmarkReport, error)
}

type ReportNotifier interface {
	Notify(ctx context.Context, report domain.BenchmarkReport) error
}
