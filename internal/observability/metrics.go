package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/restartfu/grid-bench/internal/domain"
)

var (
	// BenchmarkRunsCounter counts finished benchmark cycles by final state.
	BenchmarkRunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grid",
			Subsystem: "benchmark",
			Name:      "runs_total",
			Help:      "Benchmark cycles by final state",
		}, []string{"state"})

	BenchmarkThroughputGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "grid",
			Subsystem: "benchmark",
			Name:      "throughput_hashes_per_second",
			Help:      "Throughput of the last completed run",
		}, []string{"mode", "algorithm"})

	BenchmarkDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grid",
			Subsystem: "benchmark",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of completed runs",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"mode"})

	BenchmarkRunningGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "grid",
			Subsystem: "benchmark",
			Name:      "running",
			Help:      "1 while a benchmark is in flight",
		})
)

// InitBenchmarkMetrics registers benchmark metrics on registry.
func InitBenchmarkMetrics(registry *prometheus.Registry) {
	registry.MustRegister(BenchmarkRunsCounter)
	registry.MustRegister(BenchmarkThroughputGauge)
	registry.MustRegister(BenchmarkDurationHistogram)
	registry.MustRegister(BenchmarkRunningGauge)
}

// ObserveReport records a finished benchmark cycle.
func ObserveReport(report domain.BenchmarkReport) {
	BenchmarkRunningGauge.Set(0)
	BenchmarkRunsCounter.WithLabelValues(report.State.String()).Inc()
	if report.State != domain.RunStateCompleted {
		return
	}
	for mode, result := range map[string]*domain.BenchmarkResult{
		"single": report.Single,
		"multi":  report.Multi,
	} {
		if result == nil {
			continue
		}
		BenchmarkThroughputGauge.WithLabelValues(mode, report.Algorithm).Set(result.Throughput)
		BenchmarkDurationHistogram.WithLabelValues(mode).Observe(result.ElapsedSeconds())
	}
}
